package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bubbletasks/backend"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *backend.MemoryRemote) {
	t.Helper()
	store := backend.NewMemoryRemote()
	ts := httptest.NewServer(New(store, token).Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestAuth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")

	if resp := do(t, http.MethodGet, ts.URL+"/v1/users/u1", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/v1/users/u1", "wrong", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/v1/users/u1", "secret", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("valid token on missing profile: status %d", resp.StatusCode)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := do(t, http.MethodPut, ts.URL+"/v1/users/u1", "", `{"isPremium":true}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/users/u1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	var p backend.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !p.IsPremium {
		t.Error("Expected premium profile")
	}
}

func TestPremiumWriteRequiresEntitlement(t *testing.T) {
	ts, store := newTestServer(t, "")
	body := `{"todos":[{"id":"1","text":"Synced","completed":false}]}`

	if resp := do(t, http.MethodPut, ts.URL+"/v1/premium/u1", "", body); resp.StatusCode != http.StatusForbidden {
		t.Errorf("missing profile: status %d", resp.StatusCode)
	}

	store.PutProfile(context.Background(), "u1", backend.Profile{})
	if resp := do(t, http.MethodPut, ts.URL+"/v1/premium/u1", "", body); resp.StatusCode != http.StatusForbidden {
		t.Errorf("free profile: status %d", resp.StatusCode)
	}

	store.PutProfile(context.Background(), "u1", backend.Profile{IsPremium: true})
	if resp := do(t, http.MethodPut, ts.URL+"/v1/premium/u1", "", body); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("premium profile: status %d", resp.StatusCode)
	}

	resp := do(t, http.MethodGet, ts.URL+"/v1/premium/u1", "", "")
	var rec backend.TaskRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(rec.Todos) != 1 || rec.Todos[0].Text != "Synced" {
		t.Errorf("record = %+v", rec)
	}
}

func TestBadBody(t *testing.T) {
	ts, _ := newTestServer(t, "")
	if resp := do(t, http.MethodPut, ts.URL+"/v1/users/u1", "", "{not json"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBodySchema(t *testing.T) {
	ts, store := newTestServer(t, "")
	store.PutProfile(context.Background(), "u1", backend.Profile{IsPremium: true})

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"profile flag type", "/v1/users/u2", `{"isPremium":"yes"}`, "/isPremium"},
		{"profile date", "/v1/users/u2", `{"isPremium":true,"premiumSince":"yesterday"}`, "/premiumSince"},
		{"todos type", "/v1/premium/u1", `{"todos":"nope"}`, "/todos"},
		{"task field type", "/v1/premium/u1", `{"todos":[{"id":"1","text":"x","completed":"no"}]}`, "/todos/0/completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPut, ts.URL+tt.path, "", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !strings.Contains(body["error"], tt.want) {
				t.Errorf("error %q does not point at %s", body["error"], tt.want)
			}
		})
	}

	resp := do(t, http.MethodPut, ts.URL+"/v1/premium/u1", "", `{"todos":null}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("null todos: status %d", resp.StatusCode)
	}
}
