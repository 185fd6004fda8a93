package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/backend/sqlite"
	"bubbletasks/internal/config"
	"bubbletasks/internal/credentials"
	tasksync "bubbletasks/internal/sync"
	"bubbletasks/internal/tasks"
	"bubbletasks/internal/utils"
)

// App bundles what a command needs: configuration, storage and the task store
type App struct {
	cfg   *config.Config
	db    *sqlite.Store // nil with --ephemeral
	store *tasks.Store

	reconciler *tasksync.Reconciler
	remote     backend.RemoteStore
}

func openApp(opts *rootOptions) (*App, error) {
	cfg := config.GetConfig()
	app := &App{cfg: cfg}

	var storage *backend.Storage
	if opts.ephemeral {
		storage = backend.NewMemoryStorage()
	} else {
		path := cfg.Storage.DBPath
		if opts.dbPath != "" {
			path = config.ExpandPath(opts.dbPath)
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		app.db = db
		storage = db.Storage()
	}

	app.store = tasks.NewStore(storage)
	return app, nil
}

// Close drains pending pushes and closes storage
func (a *App) Close() {
	if a.reconciler != nil {
		a.reconciler.Close()
	}
	if a.remote != nil {
		a.remote.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			utils.Warnf("Failed to close storage: %v", err)
		}
	}
}

// withApp opens the app around fn
func withApp(opts *rootOptions, fn func(ctx context.Context, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := openApp(opts)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd.Context(), app)
	}
}

// openRemote builds the remote store described by rc, filling in the token
// from the keyring or environment when the config has none
func openRemote(rc backend.RemoteConfig) (backend.RemoteStore, error) {
	if rc.Type == "http" {
		tok, err := credentials.NewResolver().Resolve(rc.Type, rc.Token)
		if err != nil {
			return nil, err
		}
		utils.Debugf("Using %s token from %s", rc.Type, tok.Source)
		rc.Token = tok.Value
	}

	remote, err := backend.NewRemoteStore(rc)
	if err != nil {
		return nil, utils.ErrRemoteOffline(rc.Type, err.Error())
	}
	return remote, nil
}

// syncReconciler creates the reconciler for the configured sync remote
func (a *App) syncReconciler() (*tasksync.Reconciler, error) {
	if a.reconciler != nil {
		return a.reconciler, nil
	}
	if !a.cfg.Sync.Enabled || a.cfg.Sync.Remote == nil {
		return nil, utils.ErrSyncNotEnabled()
	}

	remote, err := openRemote(*a.cfg.Sync.Remote)
	if err != nil {
		return nil, err
	}
	r, err := tasksync.NewReconciler(a.store, remote, a.cfg.Sync.Remote.Type)
	if err != nil {
		remote.Close()
		return nil, err
	}
	r.SetTimeout(a.cfg.Sync.Remote.Timeout)
	a.reconciler = r
	a.remote = remote
	return r, nil
}

// attachSync starts pushing local edits for the signed-in user, if any.
// Sync problems never fail a local command.
func (a *App) attachSync(ctx context.Context) {
	if !a.cfg.Sync.Enabled {
		return
	}
	r, err := a.syncReconciler()
	if err != nil {
		utils.Debugf("Sync unavailable: %v", err)
		return
	}
	if r.Attach(ctx) {
		utils.Debugf("Pushing changes for %s", r.UserID())
	}
}
