package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// MemoryArea is an in-process storage area. It is used for ephemeral
// sessions and as the reference implementation in tests.
type MemoryArea struct {
	Notifier

	name AreaName
	mu   sync.RWMutex
	data map[string]json.RawMessage

	// FailWrites makes every write fail, simulating quota or platform errors.
	FailWrites error
}

// NewMemoryArea creates an empty area with the given name.
func NewMemoryArea(name AreaName) *MemoryArea {
	return &MemoryArea{
		name: name,
		data: make(map[string]json.RawMessage),
	}
}

// NewMemoryStorage creates a Storage whose areas live in memory.
func NewMemoryStorage() *Storage {
	return &Storage{
		Sync:  NewMemoryArea(AreaSync),
		Local: NewMemoryArea(AreaLocal),
	}
}

func (m *MemoryArea) Name() AreaName {
	return m.name
}

func (m *MemoryArea) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &StorageError{Op: "get", Area: m.name, Key: key, Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

func (m *MemoryArea) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "set", Area: m.name, Key: key, Err: err}
	}
	if m.FailWrites != nil {
		return &StorageError{Op: "set", Area: m.name, Key: key, Err: m.FailWrites}
	}
	if !json.Valid(value) {
		return &StorageError{Op: "set", Area: m.name, Key: key, Err: ErrInvalidValue}
	}

	m.mu.Lock()
	old, existed := m.data[key]
	if existed && bytes.Equal(old, value) {
		m.mu.Unlock()
		return nil
	}
	m.data[key] = append(json.RawMessage(nil), value...)
	m.mu.Unlock()

	m.Notify(Change{Area: m.name, Key: key, OldValue: old, NewValue: append(json.RawMessage(nil), value...)})
	return nil
}

func (m *MemoryArea) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "remove", Area: m.name, Key: key, Err: err}
	}
	if m.FailWrites != nil {
		return &StorageError{Op: "remove", Area: m.name, Key: key, Err: m.FailWrites}
	}

	m.mu.Lock()
	old, existed := m.data[key]
	if !existed {
		m.mu.Unlock()
		return nil
	}
	delete(m.data, key)
	m.mu.Unlock()

	m.Notify(Change{Area: m.name, Key: key, OldValue: old})
	return nil
}
