package backend

import (
	"context"
	"sync"
	"time"
)

// Profile is the per-user remote record carrying the entitlement flag.
type Profile struct {
	IsPremium    bool       `json:"isPremium"`
	PremiumSince *time.Time `json:"premiumSince"`
}

// TaskRecord is the premium-tier mirror of a user's task collection.
type TaskRecord struct {
	Todos []Task `json:"todos"`
}

// RemoteStore reads and writes the remote records of a user. Absent records
// are reported with an error matching ErrRecordNotFound.
type RemoteStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	PutProfile(ctx context.Context, userID string, profile Profile) error
	GetTaskRecord(ctx context.Context, userID string) (*TaskRecord, error)
	PutTaskRecord(ctx context.Context, userID string, record TaskRecord) error
	Close() error
}

// RemoteConfig configures a remote store instance.
type RemoteConfig struct {
	Type    string        `yaml:"type" validate:"required,oneof=memory http postgres"`
	URL     string        `yaml:"url,omitempty" validate:"omitempty,url"`
	DSN     string        `yaml:"dsn,omitempty"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

func init() {
	RegisterRemoteType("memory", func(RemoteConfig) (RemoteStore, error) {
		return NewMemoryRemote(), nil
	})
}

// MemoryRemote is an in-process RemoteStore.
type MemoryRemote struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	records  map[string]TaskRecord

	// Err, when set, is returned by every operation to simulate an
	// unreachable service.
	Err error
	// Pushes counts PutTaskRecord calls that reached the store.
	Pushes int
}

// NewMemoryRemote creates an empty in-memory remote store.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		profiles: make(map[string]Profile),
		records:  make(map[string]TaskRecord),
	}
}

func (m *MemoryRemote) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if err := m.check(ctx, "GetProfile", userID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, NewRemoteError("GetProfile", 0, "profile not found").WithUserID(userID).WithError(ErrRecordNotFound)
	}
	return &p, nil
}

func (m *MemoryRemote) PutProfile(ctx context.Context, userID string, profile Profile) error {
	if err := m.check(ctx, "PutProfile", userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = profile
	return nil
}

func (m *MemoryRemote) GetTaskRecord(ctx context.Context, userID string) (*TaskRecord, error) {
	if err := m.check(ctx, "GetTaskRecord", userID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[userID]
	if !ok {
		return nil, NewRemoteError("GetTaskRecord", 0, "task record not found").WithUserID(userID).WithError(ErrRecordNotFound)
	}
	todos := append([]Task(nil), r.Todos...)
	return &TaskRecord{Todos: todos}, nil
}

func (m *MemoryRemote) PutTaskRecord(ctx context.Context, userID string, record TaskRecord) error {
	if err := m.check(ctx, "PutTaskRecord", userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profiles[userID]
	if !p.IsPremium {
		return NewRemoteError("PutTaskRecord", 0, "premium required").WithUserID(userID).WithError(ErrNotEntitled)
	}
	m.records[userID] = TaskRecord{Todos: append([]Task(nil), record.Todos...)}
	m.Pushes++
	return nil
}

func (m *MemoryRemote) Close() error {
	return nil
}

// PushCount returns how many task records were written.
func (m *MemoryRemote) PushCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Pushes
}

func (m *MemoryRemote) check(ctx context.Context, op, userID string) error {
	if err := ctx.Err(); err != nil {
		return NewRemoteError(op, 0, "context done").WithUserID(userID).WithError(err)
	}
	if userID == "" {
		return NewRemoteError(op, 0, "user id is required")
	}
	if m.Err != nil {
		return NewRemoteError(op, 0, m.Err.Error()).WithUserID(userID).WithError(m.Err)
	}
	return nil
}
