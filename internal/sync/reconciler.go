package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/tasks"
	"bubbletasks/internal/utils"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds every background remote call
const DefaultTimeout = 15 * time.Second

// Reconciler mirrors the local task collection to the remote premium
// record of the signed-in user. Only entitled accounts are synced; for
// everyone else no remote write is ever issued.
type Reconciler struct {
	store   *tasks.Store
	remote  backend.RemoteStore
	name    string
	timeout time.Duration
	logger  *log.Logger

	mu         sync.Mutex
	userID     string
	lastSynced []byte // encoded collection last pulled or pushed
	pending    []backend.Task
	hasPending bool
	pushing    bool
	unwatch    func()

	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// SignInResult describes what happened during sign-in
type SignInResult struct {
	UserID    string
	Entitled  bool
	Pulled    bool
	TaskCount int
}

// Status is a snapshot of the sync state for display
type Status struct {
	UserID       string     `json:"userId" yaml:"userId"`
	Remote       string     `json:"remote" yaml:"remote"`
	SignedIn     bool       `json:"signedIn" yaml:"signedIn"`
	Entitled     bool       `json:"entitled" yaml:"entitled"`
	PremiumSince *time.Time `json:"premiumSince,omitempty" yaml:"premiumSince,omitempty"`
	RemoteTasks  int        `json:"remoteTasks" yaml:"remoteTasks"`
}

// NewReconciler creates a reconciler for the given store and remote. name
// identifies the remote in the persisted session.
func NewReconciler(store *tasks.Store, remote backend.RemoteStore, name string) (*Reconciler, error) {
	if store == nil || remote == nil {
		return nil, fmt.Errorf("task store and remote store are required")
	}

	return &Reconciler{
		store:   store,
		remote:  remote,
		name:    name,
		timeout: DefaultTimeout,
		logger:  utils.GetLogger().With("component", "sync", "remote", name),
	}, nil
}

// SetTimeout changes the bound applied to background remote calls
func (r *Reconciler) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// UserID returns the signed-in user, or "" when signed out
func (r *Reconciler) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// Resume restores the persisted session, if any, and reconciles exactly as
// a fresh sign-in does. It reports false when nobody is signed in.
func (r *Reconciler) Resume(ctx context.Context) (SignInResult, bool) {
	sess, ok := r.store.Session(ctx)
	if !ok {
		return SignInResult{}, false
	}
	return r.establish(ctx, sess.UserID), true
}

// Attach restores the persisted session and pushes later local changes
// without pulling first. Short-lived commands use it so that the edit they
// are about to make is not replaced by the remote copy.
func (r *Reconciler) Attach(ctx context.Context) bool {
	sess, ok := r.store.Session(ctx)
	if !ok {
		return false
	}

	r.stopWatching()
	r.mu.Lock()
	r.userID = sess.UserID
	r.lastSynced = nil
	r.hasPending = false
	r.unwatch = r.store.Watch(r.onChange)
	r.mu.Unlock()
	return true
}

// SignIn records the session, ensures the remote profile exists and, for
// entitled accounts, replaces the local collection with the remote one.
// Local edits made while signed out are lost when a remote record exists.
func (r *Reconciler) SignIn(ctx context.Context, userID string) (SignInResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SignInResult{}, fmt.Errorf("user id is required")
	}

	sess := tasks.Session{UserID: userID, Remote: r.name, SignedInAt: r.store.Now()}
	if err := r.store.SetSession(ctx, sess); err != nil {
		return SignInResult{}, fmt.Errorf("failed to save session: %w", err)
	}

	return r.establish(ctx, userID), nil
}

func (r *Reconciler) establish(ctx context.Context, userID string) SignInResult {
	r.stopWatching()

	r.mu.Lock()
	r.userID = userID
	r.lastSynced = nil
	r.hasPending = false
	r.mu.Unlock()

	result := SignInResult{UserID: userID}

	r.EnsureProfile(ctx, userID)
	result.Entitled = r.IsEntitled(ctx, userID)

	if result.Entitled {
		list, ok := r.pull(ctx, userID)
		if ok {
			result.Pulled = true
			result.TaskCount = len(list)
		}
	}

	r.mu.Lock()
	r.unwatch = r.store.Watch(r.onChange)
	r.mu.Unlock()

	r.logger.Info("signed in", "user", userID, "entitled", result.Entitled, "pulled", result.Pulled)
	return result
}

// SignOut stops syncing and forgets the session. In-flight pushes are
// drained first.
func (r *Reconciler) SignOut(ctx context.Context) error {
	r.stopWatching()
	r.Wait()

	r.mu.Lock()
	r.userID = ""
	r.lastSynced = nil
	r.hasPending = false
	r.mu.Unlock()

	if err := r.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// EnsureProfile creates a default non-entitled profile when none exists.
// Failures are logged and otherwise ignored.
func (r *Reconciler) EnsureProfile(ctx context.Context, userID string) {
	_, err := r.remote.GetProfile(ctx, userID)
	if err == nil {
		return
	}
	if !backend.IsNotFound(err) {
		r.logger.Warn("profile lookup failed", "user", userID, "err", err)
		return
	}
	if err := r.remote.PutProfile(ctx, userID, backend.Profile{}); err != nil {
		r.logger.Warn("profile creation failed", "user", userID, "err", err)
		return
	}
	r.logger.Debug("created profile", "user", userID)
}

// IsEntitled reports whether the user's profile grants cloud sync. Any
// failure to read the profile counts as not entitled.
func (r *Reconciler) IsEntitled(ctx context.Context, userID string) bool {
	p, err := r.remote.GetProfile(ctx, userID)
	if err != nil {
		r.logger.Debug("entitlement check failed", "user", userID, "err", err)
		return false
	}
	return p.IsPremium
}

// pull overwrites the local collection with the remote record. It reports
// false when there is nothing to pull or the pull failed.
func (r *Reconciler) pull(ctx context.Context, userID string) ([]backend.Task, bool) {
	rec, err := r.remote.GetTaskRecord(ctx, userID)
	if err != nil {
		if !backend.IsNotFound(err) {
			r.logger.Warn("pull failed", "user", userID, "err", err)
		}
		return nil, false
	}

	list := backend.CanonicalizeTasks(rec.Todos, r.store.Now())
	encoded, err := backend.EncodeTasks(list)
	if err != nil {
		r.logger.Warn("pull produced unencodable tasks", "err", err)
		return nil, false
	}

	r.mu.Lock()
	r.lastSynced = encoded
	r.mu.Unlock()

	if err := r.store.Save(ctx, list); err != nil {
		r.logger.Warn("failed to store pulled tasks", "err", err)
		return nil, false
	}
	return list, true
}

// Pull fetches the remote record now. Unlike the background path it
// reports why nothing was pulled.
func (r *Reconciler) Pull(ctx context.Context) (int, error) {
	userID := r.UserID()
	if userID == "" {
		return 0, utils.ErrNotSignedIn()
	}
	if !r.IsEntitled(ctx, userID) {
		return 0, backend.ErrNotEntitled
	}

	rec, err := r.remote.GetTaskRecord(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch remote tasks: %w", err)
	}

	list := backend.CanonicalizeTasks(rec.Todos, r.store.Now())
	encoded, err := backend.EncodeTasks(list)
	if err != nil {
		return 0, fmt.Errorf("remote tasks cannot be stored: %w", err)
	}
	r.mu.Lock()
	r.lastSynced = encoded
	r.mu.Unlock()

	if err := r.store.Save(ctx, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

// Push uploads the current local collection now and waits for the result
func (r *Reconciler) Push(ctx context.Context) error {
	userID := r.UserID()
	if userID == "" {
		return utils.ErrNotSignedIn()
	}
	if !r.IsEntitled(ctx, userID) {
		return backend.ErrNotEntitled
	}
	return r.pushList(ctx, userID, r.store.Load(ctx), true)
}

// Status reports the current sign-in and entitlement state
func (r *Reconciler) Status(ctx context.Context) Status {
	st := Status{UserID: r.UserID(), Remote: r.name}
	if st.UserID == "" {
		return st
	}
	st.SignedIn = true

	p, err := r.remote.GetProfile(ctx, st.UserID)
	if err != nil {
		return st
	}
	st.Entitled = p.IsPremium
	st.PremiumSince = p.PremiumSince

	if st.Entitled {
		if rec, err := r.remote.GetTaskRecord(ctx, st.UserID); err == nil {
			st.RemoteTasks = len(rec.Todos)
		}
	}
	return st
}

func (r *Reconciler) onChange(ev tasks.Event) {
	if ev.Kind != tasks.TasksChanged {
		return
	}
	r.schedulePush(ev.Tasks)
}

// schedulePush hands the latest snapshot to the push worker. Only one
// worker runs at a time; snapshots arriving while it is busy replace each
// other so that only the newest one is sent.
func (r *Reconciler) schedulePush(list []backend.Task) {
	if r.shutdown.Load() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userID == "" {
		return
	}
	r.pending = list
	r.hasPending = true
	if r.pushing {
		return
	}
	r.pushing = true
	r.wg.Add(1)
	go r.pushLoop()
}

func (r *Reconciler) pushLoop() {
	defer r.wg.Done()

	for {
		r.mu.Lock()
		if !r.hasPending || r.userID == "" {
			r.pushing = false
			r.mu.Unlock()
			return
		}
		list := r.pending
		userID := r.userID
		r.hasPending = false
		r.mu.Unlock()

		r.backgroundPush(userID, list)
	}
}

func (r *Reconciler) backgroundPush(userID string, list []backend.Task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in push", "err", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if !r.IsEntitled(ctx, userID) {
		r.logger.Debug("skipping push: not entitled", "user", userID)
		return
	}
	if err := r.pushList(ctx, userID, list, false); err != nil {
		r.logger.Warn("push failed", "user", userID, "err", err)
	}
}

func (r *Reconciler) pushList(ctx context.Context, userID string, list []backend.Task, force bool) error {
	encoded, err := backend.EncodeTasks(list)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}

	r.mu.Lock()
	echo := bytes.Equal(encoded, r.lastSynced)
	r.mu.Unlock()
	if echo && !force {
		r.logger.Debug("skipping push: remote already has this snapshot", "user", userID)
		return nil
	}

	if list == nil {
		list = []backend.Task{}
	}
	if err := r.remote.PutTaskRecord(ctx, userID, backend.TaskRecord{Todos: list}); err != nil {
		if errors.Is(err, backend.ErrNotEntitled) {
			return backend.ErrNotEntitled
		}
		return err
	}

	r.mu.Lock()
	r.lastSynced = encoded
	r.mu.Unlock()

	r.logger.Debug("pushed tasks", "user", userID, "count", len(list))
	return nil
}

// Wait blocks until no push is in flight
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Close stops reacting to local changes and drains pending pushes
func (r *Reconciler) Close() error {
	r.shutdown.Store(true)
	r.stopWatching()
	r.Wait()
	return nil
}

func (r *Reconciler) stopWatching() {
	r.mu.Lock()
	unwatch := r.unwatch
	r.unwatch = nil
	r.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}
