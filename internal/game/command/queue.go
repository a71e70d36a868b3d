package command

import (
	"sync"
	"time"
)

// ActorKind distinguishes a human player's submission from one synthesized
// by the AI Agent Manager, per spec.md §4.2.
type ActorKind string

const (
	ActorPlayer ActorKind = "player"
	ActorAI     ActorKind = "ai"
)

// Entry is one queued command submission. Result is non-nil only for
// player-originated entries carrying a live websocket session: the Game
// Loop's drain subsystem sends the Dispatcher's CommandResult down it after
// the tick's synchronous Dispatch call, the "channel-delivered results" path
// back out of the tick goroutine. AI-originated entries leave it nil; their
// outcome rejoins the simulation only as the Events the handler broadcasts.
type Entry struct {
	Kind       ActorKind
	ActorID    string
	Text       string
	EnqueuedAt time.Time
	Result     chan<- CommandResult
}

// Queue is the Command Queue of spec.md §4.2: a mutex-guarded slice FIFO,
// not channel-based — the Game Loop drains it synchronously inside its own
// tick slot, so a channel would add nothing over a plain mutex, mirroring
// the teacher's session.Manager's plain-mutex style over channel-per-op.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Enqueue appends an entry with no result channel (the AI Manager's path;
// its outcome is observed only through broadcast Events). Never blocks.
func (q *Queue) Enqueue(kind ActorKind, actorID, text string) {
	q.EnqueueWithResult(kind, actorID, text, nil)
}

// EnqueueWithResult appends an entry carrying a result channel. The channel
// must be buffered (capacity >= 1): the drain subsystem performs a
// non-blocking send and drops the result rather than stall the tick if
// nothing is receiving. Never blocks.
func (q *Queue) EnqueueWithResult(kind ActorKind, actorID, text string, result chan<- CommandResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, Entry{Kind: kind, ActorID: actorID, Text: text, EnqueuedAt: q.now(), Result: result})
}

// Depth reports the number of entries currently queued.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain pops up to n entries in FIFO order, leaving any remainder queued for
// the next tick, preserving per-actor submission order across ticks.
func (q *Queue) Drain(n int) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || len(q.entries) == 0 {
		return nil
	}
	if n >= len(q.entries) {
		out := q.entries
		q.entries = nil
		return out
	}
	out := make([]Entry, n)
	copy(out, q.entries[:n])
	q.entries = q.entries[n:]
	return out
}
