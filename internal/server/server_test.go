package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/store"
)

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, backend store.Store, opts ...Option) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(New(backend, quietLogger(), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRoundTripThroughHTTPStore(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(nil))
	client, err := store.NewHTTPStore(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := t.Context()

	key, err := client.Post(ctx, "tasks", map[string]any{"Title": "Write docs", "Status": "to do"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if key == "" {
		t.Fatal("post returned no key")
	}
	raw, err := client.Get(ctx, store.Join("tasks", key, "Title"))
	if err != nil || string(raw) != `"Write docs"` {
		t.Fatalf("get posted title: %s %v", raw, err)
	}

	if _, err := client.Patch(ctx, store.Join("tasks", key), map[string]any{"Status": "done"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	raw, err = client.Get(ctx, store.Join("tasks", key, "Status"))
	if err != nil || string(raw) != `"done"` {
		t.Fatalf("get patched status: %s %v", raw, err)
	}

	if _, err := client.Put(ctx, "contacts/c1", map[string]string{"name": "Anna"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	root, err := client.Get(ctx, "")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	var tree map[string]json.RawMessage
	if err := json.Unmarshal(root, &tree); err != nil {
		t.Fatalf("decode root: %v", err)
	}
	if _, ok := tree["contacts"]; !ok {
		t.Fatalf("root misses contacts: %s", root)
	}

	if err := client.Delete(ctx, store.Join("tasks", key)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	raw, err = client.Get(ctx, store.Join("tasks", key))
	if err != nil || !store.IsNull(raw) {
		t.Fatalf("expected null after delete: %s %v", raw, err)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(nil))

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodPut, "/tasks.json", `{"Title":`, http.StatusBadRequest},
		{http.MethodPatch, "/tasks.json", `[1,2]`, http.StatusBadRequest},
		{http.MethodPatch, "/tasks.json", `null`, http.StatusBadRequest},
		{http.MethodGet, "/tasks/a$b.json", "", http.StatusBadRequest},
		{http.MethodGet, "/tasks", "", http.StatusNotFound},
		{http.MethodGet, "/tasks.history", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s %s: status %d, want %d", tc.method, tc.path, resp.StatusCode, tc.status)
		}
	}
}

type brokenStore struct{ store.Store }

func (brokenStore) Get(_ context.Context, _ string) (json.RawMessage, error) {
	return nil, errors.New("disk on fire")
}

func TestStoreFailureIs500(t *testing.T) {
	srv := newTestServer(t, brokenStore{store.NewMemoryStore(nil)})
	client, err := store.NewHTTPStore(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Get(t.Context(), "tasks")
	var se *store.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status error, got %v", err)
	}
	if strings.Contains(se.Body, "disk on fire") {
		t.Fatalf("internal error leaked: %s", se.Body)
	}
}

func TestAuthToken(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(nil), WithAuthToken("secret"))

	anon, err := store.NewHTTPStore(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = anon.Get(t.Context(), "tasks")
	var se *store.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	authed, err := store.NewHTTPStore(srv.URL, store.WithAuthToken("secret"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := authed.Get(t.Context(), "tasks"); err != nil {
		t.Fatalf("authed get: %v", err)
	}
}

func TestHistoryFromSQLite(t *testing.T) {
	backend, err := store.OpenSQLite(filepath.Join(t.TempDir(), "join.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	srv := newTestServer(t, backend)
	client, err := store.NewHTTPStore(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Put(t.Context(), "contacts/c1", map[string]string{"name": "Anna"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := client.Delete(t.Context(), "contacts/c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	resp, err := http.Get(srv.URL + "/contacts.history?limit=5")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var entries []historyEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 2 || entries[0].Method != http.MethodDelete || entries[1].Method != http.MethodPut {
		t.Fatalf("unexpected history: %+v", entries)
	}
}
