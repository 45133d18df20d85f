package session

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Registry maps client ids to their connections. Every operation holds the
// one lock for its whole duration; I/O never happens under it.
type Registry struct {
	mu      sync.RWMutex
	clients map[uint64]*Client
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[uint64]*Client)}
}

// Register adds c. Registering an id twice is an error.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c.ID]; exists {
		return fmt.Errorf("client %d already registered", c.ID)
	}
	r.clients[c.ID] = c
	return nil
}

// Snapshot returns the registered clients ordered by id. The slice is a
// copy; the connections are shared.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Client) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Remove unregisters id and returns the client that was removed. Removing
// an absent id is a no-op that returns false.
func (r *Registry) Remove(id uint64) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	return c, ok
}

// Get returns the client registered under id.
func (r *Registry) Get(id uint64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
