package capture

import (
	"sync"

	"github.com/zsiec/screenshare/internal/wire"
)

// Recorder wraps an Interactor and remembers every action handed to it.
type Recorder struct {
	Interactor

	mu      sync.Mutex
	actions []wire.Action
	notify  chan struct{}
}

// NewRecorder wraps inner.
func NewRecorder(inner Interactor) *Recorder {
	return &Recorder{Interactor: inner, notify: make(chan struct{}, 1)}
}

// HandleAction records a and forwards it to the wrapped interactor.
func (r *Recorder) HandleAction(a wire.Action) bool {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return r.Interactor.HandleAction(a)
}

// Actions returns a copy of the recorded actions in handling order.
func (r *Recorder) Actions() []wire.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wire.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Notify returns a channel that receives after new actions are recorded.
func (r *Recorder) Notify() <-chan struct{} {
	return r.notify
}
