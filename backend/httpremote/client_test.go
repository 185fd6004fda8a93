package httpremote

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"bubbletasks/backend"
	"bubbletasks/internal/server"
)

func newPair(t *testing.T, serverToken, clientToken string) (*Client, *backend.MemoryRemote) {
	t.Helper()
	store := backend.NewMemoryRemote()
	ts := httptest.NewServer(server.New(store, serverToken).Router())
	t.Cleanup(ts.Close)

	c, err := New(backend.RemoteConfig{Type: "http", URL: ts.URL, Token: clientToken})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, store
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(backend.RemoteConfig{Type: "http"}); err == nil {
		t.Error("Expected error without url")
	}
}

func TestRegistered(t *testing.T) {
	store, err := backend.NewRemoteStore(backend.RemoteConfig{Type: "http", URL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewRemoteStore failed: %v", err)
	}
	if _, ok := store.(*Client); !ok {
		t.Errorf("Expected *Client, got %T", store)
	}
}

func TestClient_Profile(t *testing.T) {
	c, _ := newPair(t, "tok", "tok")
	ctx := context.Background()

	_, err := c.GetProfile(ctx, "u1")
	if !backend.IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}

	if err := c.PutProfile(ctx, "u1", backend.Profile{IsPremium: true}); err != nil {
		t.Fatalf("PutProfile failed: %v", err)
	}
	p, err := c.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !p.IsPremium {
		t.Error("Expected premium profile")
	}
}

func TestClient_TaskRecord(t *testing.T) {
	c, store := newPair(t, "", "")
	ctx := context.Background()

	err := c.PutTaskRecord(ctx, "u1", backend.TaskRecord{Todos: []backend.Task{{ID: "1", Text: "x"}}})
	if !errors.Is(err, backend.ErrNotEntitled) {
		t.Fatalf("Expected ErrNotEntitled, got %v", err)
	}

	store.PutProfile(ctx, "u1", backend.Profile{IsPremium: true})
	if err := c.PutTaskRecord(ctx, "u1", backend.TaskRecord{Todos: []backend.Task{{ID: "1", Text: "x"}}}); err != nil {
		t.Fatalf("PutTaskRecord failed: %v", err)
	}

	rec, err := c.GetTaskRecord(ctx, "u1")
	if err != nil {
		t.Fatalf("GetTaskRecord failed: %v", err)
	}
	if len(rec.Todos) != 1 || rec.Todos[0].Text != "x" {
		t.Errorf("record = %+v", rec)
	}
	if store.PushCount() != 1 {
		t.Errorf("PushCount = %d", store.PushCount())
	}
}

func TestClient_Unauthorized(t *testing.T) {
	c, _ := newPair(t, "server-secret", "wrong")

	_, err := c.GetProfile(context.Background(), "u1")
	var re *backend.RemoteError
	if !errors.As(err, &re) || !re.IsUnauthorized() {
		t.Errorf("Expected unauthorized RemoteError, got %v", err)
	}
}

func TestClient_EmptyUser(t *testing.T) {
	c, _ := newPair(t, "", "")
	if _, err := c.GetProfile(context.Background(), ""); err == nil {
		t.Error("Expected error for empty user id")
	}
}
