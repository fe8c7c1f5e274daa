package subscriber

import (
	"sync"
)

// Registry maps server ids to the live subscriber of each connected
// shard. Shards register when their peer connects and are removed on
// disconnect; a missing entry simply means the shard is unreachable.
type Registry struct {
	mu   sync.RWMutex
	subs map[uint32]Subscriber
}

// NewRegistry NewRegistry
func NewRegistry() *Registry {
	return &Registry{subs: make(map[uint32]Subscriber)}
}

// Register Register
func (r *Registry) Register(sub Subscriber) {
	r.mu.Lock()
	r.subs[sub.ServerID()] = sub
	r.mu.Unlock()
}

// Unregister removes the subscriber for a server id, but only if it is
// still the given one (a reconnect may have replaced it).
func (r *Registry) Unregister(sub Subscriber) {
	r.mu.Lock()
	if cur, ok := r.subs[sub.ServerID()]; ok && cur == sub {
		delete(r.subs, sub.ServerID())
	}
	r.mu.Unlock()
}

// Get the subscriber of one shard, nil when not connected
func (r *Registry) Get(serverID uint32) Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subs[serverID]
}

// All snapshot of the connected subscribers
func (r *Registry) All() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]Subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	return subs
}
