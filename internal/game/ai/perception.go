package ai

import (
	"sync"
	"time"

	"github.com/cory-johannsen/textworld/internal/game/event"
)

// PerceptionQueue is an AI Agent's bounded rolling window of perceived Game
// Events, the same bounded/non-blocking-push shape as
// session.BridgeEntity's channel, but typed over *event.Event instead of
// serialised bytes, since context assembly needs the structured payload.
type PerceptionQueue struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time

	entries []perceivedEvent
}

type perceivedEvent struct {
	evt  *event.Event
	seen time.Time
}

// NewPerceptionQueue builds a queue that prunes entries older than window.
func NewPerceptionQueue(window time.Duration) *PerceptionQueue {
	return &PerceptionQueue{window: window, now: time.Now}
}

// Push appends evt, never blocking, and prunes anything past the retention
// window.
func (q *PerceptionQueue) Push(evt *event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, perceivedEvent{evt: evt, seen: q.now()})
	q.pruneLocked()
}

// Drain returns every currently retained event in arrival order and clears
// the queue.
func (q *PerceptionQueue) Drain() []*event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked()
	if len(q.entries) == 0 {
		return nil
	}
	out := make([]*event.Event, len(q.entries))
	for i, pe := range q.entries {
		out[i] = pe.evt
	}
	q.entries = nil
	return out
}

// Len reports the number of currently retained events, after pruning.
func (q *PerceptionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked()
	return len(q.entries)
}

func (q *PerceptionQueue) pruneLocked() {
	if q.window <= 0 {
		return
	}
	cutoff := q.now().Add(-q.window)
	i := 0
	for ; i < len(q.entries); i++ {
		if q.entries[i].seen.After(cutoff) {
			break
		}
	}
	if i > 0 {
		q.entries = q.entries[i:]
	}
}
