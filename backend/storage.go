package backend

import (
	"context"
	"encoding/json"
	"sync"
)

// AreaName identifies a storage area.
type AreaName string

const (
	// AreaSync is replicated across every context sharing the store.
	AreaSync AreaName = "sync"
	// AreaLocal stays private to the machine (sign-in session and the like).
	AreaLocal AreaName = "local"
)

// Change describes one effective write to a key. OldValue is nil when the
// key did not exist and NewValue is nil when the key was removed.
type Change struct {
	Area     AreaName
	Key      string
	OldValue json.RawMessage
	NewValue json.RawMessage
}

// Listener receives change notifications.
type Listener func(Change)

// Area is a key/value storage area holding JSON values.
//
// Writes whose value equals the stored value are no-ops and produce no
// notification. Every effective write is reported to all subscribers.
type Area interface {
	Name() AreaName
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Remove(ctx context.Context, key string) error
	Subscribe(fn Listener) (unsubscribe func())
}

// Storage groups the shared and the local-only areas of one store.
type Storage struct {
	Sync  Area
	Local Area
}

// Notifier fans change notifications out to subscribers. It is embedded by
// the area implementations.
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// Subscribe registers fn and returns a function removing it again.
func (n *Notifier) Subscribe(fn Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[int]Listener)
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Notify delivers c to every listener. It must be called without holding
// any area lock because listeners commonly write back into the store.
func (n *Notifier) Notify(c Change) {
	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}
