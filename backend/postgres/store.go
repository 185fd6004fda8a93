// Package postgres stores profile and premium task records in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bubbletasks/backend"
)

const schema = `
CREATE TABLE IF NOT EXISTS todo_users (
    user_id       TEXT PRIMARY KEY,
    is_premium    BOOLEAN NOT NULL DEFAULT FALSE,
    premium_since TIMESTAMPTZ,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS todo_list_premium (
    user_id    TEXT PRIMARY KEY,
    todos      JSONB NOT NULL DEFAULT '[]'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func init() {
	backend.RegisterRemoteType("postgres", func(config backend.RemoteConfig) (backend.RemoteStore, error) {
		ctx := context.Background()
		if config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, config.Timeout)
			defer cancel()
		}
		return Open(ctx, config.DSN)
	})
}

// Store is a RemoteStore over a pgx connection pool
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and creates the tables when missing
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres remote requires a dsn")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the record tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*backend.Profile, error) {
	var p backend.Profile
	var since *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT is_premium, premium_since FROM todo_users WHERE user_id = $1`, userID,
	).Scan(&p.IsPremium, &since)
	if err != nil {
		return nil, wrap("GetProfile", userID, err)
	}
	p.PremiumSince = since
	return &p, nil
}

func (s *Store) PutProfile(ctx context.Context, userID string, profile backend.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO todo_users (user_id, is_premium, premium_since)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			is_premium = EXCLUDED.is_premium,
			premium_since = EXCLUDED.premium_since,
			updated_at = now()`,
		userID, profile.IsPremium, profile.PremiumSince,
	)
	return wrap("PutProfile", userID, err)
}

func (s *Store) GetTaskRecord(ctx context.Context, userID string) (*backend.TaskRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT todos FROM todo_list_premium WHERE user_id = $1`, userID,
	).Scan(&raw)
	if err != nil {
		return nil, wrap("GetTaskRecord", userID, err)
	}

	rec := &backend.TaskRecord{Todos: []backend.Task{}}
	if err := json.Unmarshal(raw, &rec.Todos); err != nil {
		return nil, backend.NewRemoteError("GetTaskRecord", 0, "stored todos are not a task list").WithUserID(userID).WithError(err)
	}
	return rec, nil
}

// PutTaskRecord writes the record only when the user's profile is premium.
// The check and the write happen in one transaction.
func (s *Store) PutTaskRecord(ctx context.Context, userID string, record backend.TaskRecord) error {
	todos := record.Todos
	if todos == nil {
		todos = []backend.Task{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return backend.NewRemoteError("PutTaskRecord", 0, "failed to encode todos").WithUserID(userID).WithError(err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var premium bool
		err := tx.QueryRow(ctx,
			`SELECT is_premium FROM todo_users WHERE user_id = $1 FOR SHARE`, userID,
		).Scan(&premium)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return wrap("PutTaskRecord", userID, err)
		}
		if !premium {
			return backend.NewRemoteError("PutTaskRecord", 0, "premium required").WithUserID(userID).WithError(backend.ErrNotEntitled)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO todo_list_premium (user_id, todos)
			VALUES ($1, $2::jsonb)
			ON CONFLICT (user_id) DO UPDATE SET
				todos = EXCLUDED.todos,
				updated_at = now()`,
			userID, string(data),
		)
		return wrap("PutTaskRecord", userID, err)
	})
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// wrap maps driver errors onto backend errors
func wrap(op, userID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return backend.NewRemoteError(op, 0, "record not found").WithUserID(userID).WithError(backend.ErrRecordNotFound)
	}
	return backend.NewRemoteError(op, 0, err.Error()).WithUserID(userID).WithError(err)
}
