package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/tasks"
)

// countingRemote records every attempted write, including refused ones
type countingRemote struct {
	*backend.MemoryRemote
	mu       gosync.Mutex
	attempts int
}

func (c *countingRemote) PutTaskRecord(ctx context.Context, userID string, rec backend.TaskRecord) error {
	c.mu.Lock()
	c.attempts++
	c.mu.Unlock()
	return c.MemoryRemote.PutTaskRecord(ctx, userID, rec)
}

func (c *countingRemote) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

var fixedNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Reconciler, *tasks.Store, *countingRemote) {
	t.Helper()
	store := tasks.NewStore(backend.NewMemoryStorage())
	store.SetClock(func() time.Time { return fixedNow })
	remote := &countingRemote{MemoryRemote: backend.NewMemoryRemote()}

	r, err := NewReconciler(store, remote, "memory")
	if err != nil {
		t.Fatalf("NewReconciler failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, store, remote
}

func grant(t *testing.T, remote *countingRemote, userID string) {
	t.Helper()
	since := fixedNow
	if err := remote.PutProfile(context.Background(), userID, backend.Profile{IsPremium: true, PremiumSince: &since}); err != nil {
		t.Fatalf("PutProfile failed: %v", err)
	}
}

func addTask(t *testing.T, store *tasks.Store, text string) {
	t.Helper()
	_, err := store.Update(context.Background(), func(list []backend.Task) ([]backend.Task, error) {
		out, _, err := tasks.Add(list, text)
		return out, err
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
}

func TestNewReconciler_RequiresDependencies(t *testing.T) {
	if _, err := NewReconciler(nil, backend.NewMemoryRemote(), "memory"); err == nil {
		t.Error("Expected error without a store")
	}
}

func TestSignIn_CreatesProfile(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()

	res, err := r.SignIn(ctx, "alice")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if res.Entitled || res.Pulled {
		t.Errorf("New user should not be entitled: %+v", res)
	}

	p, err := remote.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("Expected profile to be created: %v", err)
	}
	if p.IsPremium || p.PremiumSince != nil {
		t.Errorf("Default profile should be non-premium, got %+v", p)
	}

	if sess, ok := store.Session(ctx); !ok || sess.UserID != "alice" || sess.Remote != "memory" {
		t.Errorf("Session = %+v, %v", sess, ok)
	}
}

func TestSignIn_KeepsExistingProfile(t *testing.T) {
	r, _, remote := setup(t)
	grant(t, remote, "bob")

	res, _ := r.SignIn(context.Background(), "bob")
	if !res.Entitled {
		t.Error("Existing premium profile must not be overwritten")
	}
}

func TestSignIn_RejectsEmptyUser(t *testing.T) {
	r, _, _ := setup(t)
	if _, err := r.SignIn(context.Background(), "  "); err == nil {
		t.Error("Expected error for empty user id")
	}
}

func TestSignIn_PullOverwritesLocal(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	grant(t, remote, "carol")

	cloud := []backend.Task{{ID: "c1", Text: "From cloud"}}
	if err := remote.PutTaskRecord(ctx, "carol", backend.TaskRecord{Todos: cloud}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	addTask(t, store, "Local only")

	res, err := r.SignIn(ctx, "carol")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !res.Pulled || res.TaskCount != 1 {
		t.Errorf("Unexpected result %+v", res)
	}

	list := store.Load(ctx)
	if len(list) != 1 || list[0].Text != "From cloud" {
		t.Errorf("Expected cloud snapshot to replace local tasks, got %v", list)
	}

	r.Wait()
	if remote.Attempts() != 1 {
		t.Errorf("The pulled snapshot must not be pushed back, attempts = %d", remote.Attempts())
	}
}

func TestSignIn_NoRecordKeepsLocal(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	grant(t, remote, "dave")
	addTask(t, store, "Keep me")

	res, _ := r.SignIn(ctx, "dave")
	if res.Pulled {
		t.Error("Nothing should be pulled without a remote record")
	}
	if list := store.Load(ctx); len(list) != 1 {
		t.Errorf("Local tasks lost: %v", list)
	}
}

func TestNonEntitledNeverPushes(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()

	if _, err := r.SignIn(ctx, "erin"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		addTask(t, store, "task")
	}
	r.Wait()

	if remote.Attempts() != 0 {
		t.Errorf("Non-entitled user issued %d pushes", remote.Attempts())
	}
}

func TestEntitledPushesOnChange(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	grant(t, remote, "frank")

	if _, err := r.SignIn(ctx, "frank"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	addTask(t, store, "First")
	addTask(t, store, "Second")
	r.Wait()

	rec, err := remote.GetTaskRecord(ctx, "frank")
	if err != nil {
		t.Fatalf("Expected remote record: %v", err)
	}
	if len(rec.Todos) != 2 || rec.Todos[1].Text != "Second" {
		t.Errorf("Remote holds %v, want the latest snapshot", rec.Todos)
	}
	if remote.Attempts() == 0 || remote.Attempts() > 2 {
		t.Errorf("Unexpected push count %d", remote.Attempts())
	}
}

func TestSignedOutDoesNothing(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	grant(t, remote, "gina")

	r.SignIn(ctx, "gina")
	if err := r.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	before := remote.Attempts()

	addTask(t, store, "offline edit")
	r.Wait()

	if remote.Attempts() != before {
		t.Error("No push may happen after sign-out")
	}
	if _, ok := store.Session(ctx); ok {
		t.Error("Session should be cleared")
	}
}

func TestRemoteFailuresAreSwallowed(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	remote.Err = errors.New("connection refused")

	res, err := r.SignIn(ctx, "hank")
	if err != nil {
		t.Fatalf("SignIn must not fail on remote errors: %v", err)
	}
	if res.Entitled {
		t.Error("Failed entitlement check counts as not entitled")
	}

	addTask(t, store, "still works locally")
	r.Wait()
	if len(store.Load(ctx)) != 1 {
		t.Error("Local operation must keep working")
	}
}

func TestResume(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	grant(t, remote, "ivy")
	remote.PutTaskRecord(ctx, "ivy", backend.TaskRecord{Todos: []backend.Task{{ID: "1", Text: "Remote"}}})

	if _, ok := r.Resume(ctx); ok {
		t.Fatal("Nothing to resume without a session")
	}

	store.SetSession(ctx, tasks.Session{UserID: "ivy", Remote: "memory"})
	res, ok := r.Resume(ctx)
	if !ok || !res.Pulled {
		t.Fatalf("Resume = %+v, %v", res, ok)
	}
	if r.UserID() != "ivy" {
		t.Errorf("UserID = %q", r.UserID())
	}
}

func TestAttach_PushesWithoutPulling(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()
	grant(t, remote, "kim")
	remote.MemoryRemote.PutTaskRecord(ctx, "kim", backend.TaskRecord{Todos: []backend.Task{{ID: "r", Text: "Remote"}}})

	if r.Attach(ctx) {
		t.Fatal("Nothing to attach without a session")
	}

	store.SetSession(ctx, tasks.Session{UserID: "kim", Remote: "memory"})
	if !r.Attach(ctx) {
		t.Fatal("Attach should restore the session")
	}
	if len(store.Load(ctx)) != 0 {
		t.Error("Attach must not pull the remote record")
	}

	addTask(t, store, "Local edit")
	r.Wait()

	rec, err := remote.GetTaskRecord(ctx, "kim")
	if err != nil {
		t.Fatalf("GetTaskRecord failed: %v", err)
	}
	if len(rec.Todos) != 1 || rec.Todos[0].Text != "Local edit" {
		t.Errorf("remote record = %+v", rec.Todos)
	}
}

func TestExplicitPullAndPush(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()

	if _, err := r.Pull(ctx); err == nil {
		t.Error("Pull without session should fail")
	}

	r.SignIn(ctx, "jay")
	if err := r.Push(ctx); !errors.Is(err, backend.ErrNotEntitled) {
		t.Errorf("Push for non-entitled user = %v", err)
	}

	grant(t, remote, "jay")
	addTask(t, store, "Explicit")
	r.Wait()
	if err := r.Push(ctx); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	remote.PutTaskRecord(ctx, "jay", backend.TaskRecord{Todos: []backend.Task{
		{ID: "a", Text: "One"}, {ID: "b", Text: "Two", Completed: true},
	}})
	n, err := r.Pull(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Pull = %d, %v", n, err)
	}
	list := store.Load(ctx)
	if !list[1].Completed || list[1].CompletedAt == nil {
		t.Errorf("Pulled tasks must be canonical, got %+v", list[1])
	}
}

func TestPull_UnencodableRecordKeepsLocal(t *testing.T) {
	r, store, remote := setup(t)
	ctx := context.Background()

	grant(t, remote, "jay")
	r.SignIn(ctx, "jay")
	addTask(t, store, "Local")
	r.Wait()

	// time.Time refuses to encode years past 9999
	far := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	remote.MemoryRemote.PutTaskRecord(ctx, "jay", backend.TaskRecord{Todos: []backend.Task{
		{ID: "a", Text: "Far", Completed: true, CompletedAt: &far},
	}})

	if _, err := r.Pull(ctx); err == nil {
		t.Fatal("Expected Pull to fail")
	}
	list := store.Load(ctx)
	if len(list) != 1 || list[0].Text != "Local" {
		t.Errorf("Local tasks must be kept, got %+v", list)
	}
}

func TestStatus(t *testing.T) {
	r, _, remote := setup(t)
	ctx := context.Background()

	if st := r.Status(ctx); st.SignedIn {
		t.Error("Expected signed-out status")
	}
	grant(t, remote, "kim")
	r.SignIn(ctx, "kim")

	st := r.Status(ctx)
	if !st.SignedIn || !st.Entitled || st.PremiumSince == nil {
		t.Errorf("Status = %+v", st)
	}
}
