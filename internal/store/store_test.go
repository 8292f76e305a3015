package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "joinboard-test.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(nil),
		"sqlite": setupSQLite(t),
	}
}

func mustGet(t *testing.T, s Store, path string) string {
	t.Helper()
	raw, err := s.Get(t.Context(), path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	return string(raw)
}

func TestStoreEmptyPathIsNull(t *testing.T) {
	for name, s := range backends(t) {
		if got := mustGet(t, s, "tasks"); got != "null" {
			t.Fatalf("%s: expected null, got %s", name, got)
		}
		if got := mustGet(t, s, ""); got != "null" {
			t.Fatalf("%s: expected null root, got %s", name, got)
		}
	}
}

func TestStoreCRUDContract(t *testing.T) {
	for name, s := range backends(t) {
		ctx := context.Background()
		key, err := s.Post(ctx, "tasks", map[string]any{"Title": "one", "Status": "to do", "timestamp": 1})
		if err != nil {
			t.Fatalf("%s: post: %v", name, err)
		}
		if len(key) != 20 {
			t.Fatalf("%s: unexpected push key %q", name, key)
		}

		if _, err := s.Patch(ctx, "tasks/"+key, map[string]any{"Status": "done", "timestamp": 2}); err != nil {
			t.Fatalf("%s: patch: %v", name, err)
		}
		if got := mustGet(t, s, "tasks/"+key); got != `{"Status":"done","Title":"one","timestamp":2}` {
			t.Fatalf("%s: unexpected patched task: %s", name, got)
		}

		if _, err := s.Put(ctx, "tasks/"+key+"/Subtasks/s1", map[string]any{"id": "s1", "isChecked": false}); err != nil {
			t.Fatalf("%s: put subtask: %v", name, err)
		}
		if err := s.Delete(ctx, "tasks/"+key+"/Subtasks/s1"); err != nil {
			t.Fatalf("%s: delete subtask: %v", name, err)
		}
		if got := mustGet(t, s, "tasks/"+key+"/Subtasks"); got != "null" {
			t.Fatalf("%s: expected subtasks removed, got %s", name, got)
		}

		if _, err := s.Put(ctx, "contacts/c1", map[string]any{"id": "c1", "name": "Anna Alt"}); err != nil {
			t.Fatalf("%s: put contact: %v", name, err)
		}
		var root map[string]json.RawMessage
		if err := json.Unmarshal([]byte(mustGet(t, s, "")), &root); err != nil {
			t.Fatalf("%s: decode root: %v", name, err)
		}
		if len(root) != 2 {
			t.Fatalf("%s: expected two collections, got %v", name, root)
		}

		if err := s.Delete(ctx, "tasks/"+key); err != nil {
			t.Fatalf("%s: delete task: %v", name, err)
		}
		if got := mustGet(t, s, "tasks"); got != "null" {
			t.Fatalf("%s: expected tasks gone, got %s", name, got)
		}
	}
}

func TestStorePutReplacesWholeSubtree(t *testing.T) {
	for name, s := range backends(t) {
		ctx := context.Background()
		if _, err := s.Put(ctx, "tasks", map[string]any{"a": map[string]any{"Title": "a"}, "b": map[string]any{"Title": "b"}}); err != nil {
			t.Fatalf("%s: put: %v", name, err)
		}
		if _, err := s.Put(ctx, "tasks", map[string]any{"b": map[string]any{"Title": "b2"}}); err != nil {
			t.Fatalf("%s: put: %v", name, err)
		}
		if got := mustGet(t, s, "tasks"); got != `{"b":{"Title":"b2"}}` {
			t.Fatalf("%s: unexpected tasks: %s", name, got)
		}
		if _, err := s.Put(ctx, "", map[string]any{"users": []any{map[string]any{"id": "u0"}}}); err != nil {
			t.Fatalf("%s: put root: %v", name, err)
		}
		if got := mustGet(t, s, ""); got != `{"users":{"0":{"id":"u0"}}}` {
			t.Fatalf("%s: unexpected root: %s", name, got)
		}
	}
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	for name, s := range backends(t) {
		if _, err := s.Get(t.Context(), "tasks/a.b"); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("%s: expected ErrInvalidPath, got %v", name, err)
		}
		if _, err := s.Patch(t.Context(), "tasks", "not an object"); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("%s: expected ErrInvalidValue, got %v", name, err)
		}
	}
}

func TestSQLiteHistoryRecordsWrites(t *testing.T) {
	s := setupSQLite(t)
	ctx := t.Context()
	if _, err := s.Put(ctx, "contacts/c1", map[string]any{"id": "c1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "contacts/c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Post(ctx, "tasks", map[string]any{"Title": "x"}); err != nil {
		t.Fatalf("post: %v", err)
	}

	recs, err := s.History(ctx, "contacts", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(recs) != 2 || recs[0].Method != "DELETE" || recs[1].Method != "PUT" {
		t.Fatalf("unexpected history: %#v", recs)
	}
	all, err := s.History(ctx, "", 0)
	if err != nil {
		t.Fatalf("history all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}
