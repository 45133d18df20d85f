// Package action holds the mutex-guarded mailboxes that carry remote-control
// actions between goroutines: the client's outbound channel and the
// server's merged inbound queue.
package action

import (
	"sync"

	"github.com/zsiec/screenshare/internal/wire"
)

// Queue is an unbounded ordered mailbox of actions. Push appends; Drain
// takes everything queued so far in one lock acquisition. Neither blocks
// beyond the lock.
type Queue struct {
	mu    sync.Mutex
	items []wire.Action
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a to the queue.
func (q *Queue) Push(a wire.Action) {
	q.mu.Lock()
	q.items = append(q.items, a)
	q.mu.Unlock()
}

// Drain atomically swaps the queue for an empty one and returns the
// previous contents in push order. An empty queue returns nil.
func (q *Queue) Drain() []wire.Action {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
