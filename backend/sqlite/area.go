package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bubbletasks/backend"
)

// Store is a SQLite-backed storage holding both the sync and the local area.
// Several processes may open the same database file; each of them observes
// the others' writes through Refresh.
type Store struct {
	db    *Database
	sync  *Area
	local *Area
}

// Open opens (or creates) the storage database. An empty path selects the
// default XDG data location.
func Open(path string) (*Store, error) {
	db, err := InitDatabase(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	s.sync = newArea(db, backend.AreaSync)
	s.local = newArea(db, backend.AreaLocal)

	for _, a := range []*Area{s.sync, s.local} {
		if err := a.prime(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Storage returns both areas as a backend.Storage.
func (s *Store) Storage() *backend.Storage {
	return &backend.Storage{Sync: s.sync, Local: s.local}
}

// SyncArea returns the replicated area.
func (s *Store) SyncArea() *Area {
	return s.sync
}

// LocalArea returns the local-only area.
func (s *Store) LocalArea() *Area {
	return s.local
}

// Database exposes the underlying database.
func (s *Store) Database() *Database {
	return s.db
}

// Refresh polls both areas for writes made by other processes.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.sync.Refresh(ctx); err != nil {
		return err
	}
	return s.local.Refresh(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Area is one named storage area inside the database.
type Area struct {
	backend.Notifier

	db   *Database
	name backend.AreaName

	mu   sync.Mutex
	seen int64                      // highest revision already observed
	view map[string]json.RawMessage // last observed value per key
}

func newArea(db *Database, name backend.AreaName) *Area {
	return &Area{
		db:   db,
		name: name,
		view: make(map[string]json.RawMessage),
	}
}

func (a *Area) Name() backend.AreaName {
	return a.name
}

// prime loads the current contents so that only later writes count as changes.
func (a *Area) prime(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT key, value, revision FROM storage_items WHERE area = ?`, string(a.name))
	if err != nil {
		return &backend.StorageError{Op: "open", Area: a.name, Err: err}
	}
	defer rows.Close()

	a.mu.Lock()
	defer a.mu.Unlock()

	for rows.Next() {
		var key string
		var value sql.NullString
		var rev int64
		if err := rows.Scan(&key, &value, &rev); err != nil {
			return &backend.StorageError{Op: "open", Area: a.name, Err: err}
		}
		if value.Valid {
			a.view[key] = json.RawMessage(value.String)
		}
		if rev > a.seen {
			a.seen = rev
		}
	}
	if err := rows.Err(); err != nil {
		return &backend.StorageError{Op: "open", Area: a.name, Err: err}
	}
	return nil
}

func (a *Area) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value sql.NullString
	err := a.db.QueryRowContext(ctx,
		`SELECT value FROM storage_items WHERE area = ? AND key = ?`, string(a.name), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &backend.StorageError{Op: "get", Area: a.name, Key: key, Err: err}
	}
	if !value.Valid {
		return nil, false, nil
	}
	return json.RawMessage(value.String), true, nil
}

func (a *Area) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return &backend.StorageError{Op: "set", Area: a.name, Key: key, Err: backend.ErrInvalidValue}
	}
	old, changed, err := a.write(ctx, key, sql.NullString{String: string(value), Valid: true})
	if err != nil {
		return &backend.StorageError{Op: "set", Area: a.name, Key: key, Err: err}
	}
	if !changed {
		return nil
	}

	a.remember(key, value)
	a.Notify(backend.Change{Area: a.name, Key: key, OldValue: old, NewValue: append(json.RawMessage(nil), value...)})
	return nil
}

func (a *Area) Remove(ctx context.Context, key string) error {
	old, changed, err := a.write(ctx, key, sql.NullString{})
	if err != nil {
		return &backend.StorageError{Op: "remove", Area: a.name, Key: key, Err: err}
	}
	if !changed {
		return nil
	}

	a.remember(key, nil)
	a.Notify(backend.Change{Area: a.name, Key: key, OldValue: old})
	return nil
}

// write stores value (NULL for removal) and reports the previous value and
// whether anything changed.
func (a *Area) write(ctx context.Context, key string, value sql.NullString) (json.RawMessage, bool, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var current sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM storage_items WHERE area = ? AND key = ?`, string(a.name), key).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	if current.Valid == value.Valid && (!value.Valid || bytes.Equal([]byte(current.String), []byte(value.String))) {
		return nil, false, tx.Commit()
	}

	var rev int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) + 1 FROM storage_items`).Scan(&rev); err != nil {
		return nil, false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO storage_items (area, key, value, revision, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(area, key) DO UPDATE SET
			value = excluded.value,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`, string(a.name), key, value, rev, time.Now().Unix())
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	var old json.RawMessage
	if current.Valid {
		old = json.RawMessage(current.String)
	}
	return old, true, nil
}

func (a *Area) remember(key string, value json.RawMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if value == nil {
		delete(a.view, key)
		return
	}
	a.view[key] = append(json.RawMessage(nil), value...)
}

// Refresh emits a change for every key whose stored value differs from the
// last value this process observed. Writes made through this Area were
// already reported by Set and are skipped.
func (a *Area) Refresh(ctx context.Context) error {
	a.mu.Lock()
	since := a.seen
	a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT key, value, revision FROM storage_items
		WHERE area = ? AND revision > ?
		ORDER BY revision ASC
	`, string(a.name), since)
	if err != nil {
		return &backend.StorageError{Op: "refresh", Area: a.name, Err: err}
	}

	type row struct {
		key   string
		value sql.NullString
		rev   int64
	}
	var fresh []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.value, &r.rev); err != nil {
			rows.Close()
			return &backend.StorageError{Op: "refresh", Area: a.name, Err: err}
		}
		fresh = append(fresh, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return &backend.StorageError{Op: "refresh", Area: a.name, Err: err}
	}

	var changes []backend.Change
	a.mu.Lock()
	for _, r := range fresh {
		if r.rev > a.seen {
			a.seen = r.rev
		}
		old, had := a.view[r.key]
		if !r.value.Valid {
			if !had {
				continue
			}
			delete(a.view, r.key)
			changes = append(changes, backend.Change{Area: a.name, Key: r.key, OldValue: old})
			continue
		}
		value := json.RawMessage(r.value.String)
		if had && bytes.Equal(old, value) {
			continue
		}
		a.view[r.key] = value
		changes = append(changes, backend.Change{Area: a.name, Key: r.key, OldValue: old, NewValue: value})
	}
	a.mu.Unlock()

	for _, c := range changes {
		a.Notify(c)
	}
	return nil
}

// String describes the area for logs.
func (a *Area) String() string {
	return fmt.Sprintf("sqlite:%s:%s", a.db.Path(), a.name)
}
