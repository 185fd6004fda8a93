package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/utils"
)

// EventKind identifies what changed in the shared area
type EventKind int

const (
	TasksChanged EventKind = iota
	ThemeChanged
	PositionChanged
)

func (k EventKind) String() string {
	switch k {
	case TasksChanged:
		return "tasks"
	case ThemeChanged:
		return "theme"
	case PositionChanged:
		return "position"
	}
	return "unknown"
}

// Event is a typed change notification. Only the field matching Kind is set.
type Event struct {
	Kind     EventKind
	Tasks    []backend.Task
	Theme    backend.Theme
	Position *position.Position
}

// Session is the signed-in identity kept in the local area
type Session struct {
	UserID     string    `json:"userId"`
	Remote     string    `json:"remote,omitempty"`
	SignedInAt time.Time `json:"signedInAt"`
}

// Store is the single source of truth for the task collection and the
// user preferences. It is a thin typed layer over the storage areas.
type Store struct {
	storage *backend.Storage
	now     func() time.Time
}

// NewStore wraps the given storage areas
func NewStore(storage *backend.Storage) *Store {
	return &Store{storage: storage, now: time.Now}
}

// SetClock replaces the time source used for canonicalization and
// completion stamps
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.now()
}

// Storage returns the underlying areas
func (s *Store) Storage() *backend.Storage {
	return s.storage
}

// Load returns the canonical task collection. Storage failures are logged
// and yield an empty collection.
func (s *Store) Load(ctx context.Context) []backend.Task {
	raw, ok, err := s.storage.Sync.Get(ctx, backend.TasksKey)
	if err != nil {
		utils.Warnf("Failed to load tasks: %v", err)
		return []backend.Task{}
	}
	if !ok {
		return []backend.Task{}
	}
	return backend.DecodeTasks(raw, s.now())
}

// Save replaces the whole collection. Saving an identical collection
// produces no change notification.
func (s *Store) Save(ctx context.Context, list []backend.Task) error {
	data, err := backend.EncodeTasks(list)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	return s.storage.Sync.Set(ctx, backend.TasksKey, data)
}

// Update loads the collection, applies fn and saves the result
func (s *Store) Update(ctx context.Context, fn func([]backend.Task) ([]backend.Task, error)) ([]backend.Task, error) {
	current := s.Load(ctx)
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if err := s.Save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// GetPreference decodes the value stored under key into dst. It reports
// false when the key is absent, unreadable or malformed.
func (s *Store) GetPreference(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.storage.Sync.Get(ctx, key)
	if err != nil {
		utils.Warnf("Failed to read preference %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		utils.Debugf("Ignoring malformed preference %s: %v", key, err)
		return false
	}
	return true
}

// SetPreference stores value under key in the shared area
func (s *Store) SetPreference(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode preference %s: %w", key, err)
	}
	return s.storage.Sync.Set(ctx, key, data)
}

// Theme returns the stored theme, defaulting to system
func (s *Store) Theme(ctx context.Context) backend.Theme {
	raw, ok, err := s.storage.Sync.Get(ctx, backend.ThemeKey)
	if err != nil || !ok {
		return backend.ThemeSystem
	}
	return backend.DecodeTheme(raw)
}

// SetTheme persists the theme. Unknown names are rejected.
func (s *Store) SetTheme(ctx context.Context, theme backend.Theme) error {
	if !backend.IsValidTheme(string(theme)) {
		return utils.ErrInvalidTheme(string(theme), []string{
			string(backend.ThemeSystem), string(backend.ThemeLight), string(backend.ThemeDark),
		})
	}
	return s.SetPreference(ctx, backend.ThemeKey, string(theme))
}

// Position returns the persisted bubble position, or nil when none is
// stored or the stored value cannot be read
func (s *Store) Position(ctx context.Context) *position.Position {
	raw, ok, err := s.storage.Sync.Get(ctx, backend.PositionKey)
	if err != nil || !ok {
		return nil
	}
	p, ok := position.DecodePosition(raw)
	if !ok {
		return nil
	}
	return &p
}

// SetPosition persists the bubble position
func (s *Store) SetPosition(ctx context.Context, p position.Position) error {
	return s.SetPreference(ctx, backend.PositionKey, p)
}

// Session returns the signed-in identity, if any
func (s *Store) Session(ctx context.Context) (Session, bool) {
	raw, ok, err := s.storage.Local.Get(ctx, backend.SessionKey)
	if err != nil || !ok {
		return Session{}, false
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.UserID == "" {
		return Session{}, false
	}
	return sess, true
}

// SetSession records the signed-in identity in the local area
func (s *Store) SetSession(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.storage.Local.Set(ctx, backend.SessionKey, data)
}

// ClearSession forgets the signed-in identity
func (s *Store) ClearSession(ctx context.Context) error {
	return s.storage.Local.Remove(ctx, backend.SessionKey)
}

// Watch delivers typed events for changes to the shared area. Changes to
// the local area and to unknown keys are ignored. The returned function
// stops the subscription.
func (s *Store) Watch(fn func(Event)) func() {
	return s.storage.Sync.Subscribe(func(c backend.Change) {
		if ev, ok := s.eventFor(c); ok {
			fn(ev)
		}
	})
}

func (s *Store) eventFor(c backend.Change) (Event, bool) {
	if c.Area != backend.AreaSync {
		return Event{}, false
	}

	switch c.Key {
	case backend.TasksKey:
		return Event{Kind: TasksChanged, Tasks: backend.DecodeTasks(c.NewValue, s.now())}, true
	case backend.ThemeKey:
		return Event{Kind: ThemeChanged, Theme: backend.DecodeTheme(c.NewValue)}, true
	case backend.PositionKey:
		ev := Event{Kind: PositionChanged}
		if p, ok := position.DecodePosition(c.NewValue); ok {
			ev.Position = &p
		}
		return ev, true
	}
	return Event{}, false
}
