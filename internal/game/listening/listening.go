// Package listening implements the in-memory Listening Registry: an
// observer-to-subject map letting one actor eavesdrop on another's directed
// (tell/whisper) messages, per spec.md §4.3/§4.6.
package listening

import "sync"

// Registry tracks which actor each observer is currently listening to.
// Mutated exclusively from the Game Loop goroutine inside a tick slot (see
// spec.md §5), so the mutex here only guards against the admin/debug
// surfaces reading it concurrently; the simulation's own access pattern is
// already serialised.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]string // observerID -> subjectID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{subs: make(map[string]string)}
}

// Listen registers observerID as listening to subjectID, replacing any prior
// subscription.
//
// Precondition: observerID and subjectID must be non-empty.
func (r *Registry) Listen(observerID, subjectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[observerID] = subjectID
}

// Stop clears observerID's subscription, if any.
//
// Postcondition: reports whether a subscription was present and removed.
func (r *Registry) Stop(observerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[observerID]; !ok {
		return false
	}
	delete(r.subs, observerID)
	return true
}

// SubjectOf returns who observerID is currently listening to, if anyone.
func (r *Registry) SubjectOf(observerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subject, ok := r.subs[observerID]
	return subject, ok
}

// IsListening reports whether observerID is actively eavesdropping, which
// gates the `attack` command ("can't fight while trying to eavesdrop").
func (r *Registry) IsListening(observerID string) bool {
	_, ok := r.SubjectOf(observerID)
	return ok
}

// IsListeningTo reports whether observerID is subscribed specifically to
// subjectID, used by the Event Formatter's tell-obfuscation override.
func (r *Registry) IsListeningTo(observerID, subjectID string) bool {
	subject, ok := r.SubjectOf(observerID)
	return ok && subject == subjectID
}

// RemoveActor drops observerID's own subscription and every subscription
// that targeted it as a subject — called on retirement/death cleanup so a
// vanished actor never lingers as either side of a listening pair.
func (r *Registry) RemoveActor(actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, actorID)
	for observer, subject := range r.subs {
		if subject == actorID {
			delete(r.subs, observer)
		}
	}
}
