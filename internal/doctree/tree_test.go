package doctree

import (
	"errors"
	"math/rand/v2"
	"sort"
	"testing"
	"time"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	v, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func mustEncode(t *testing.T, v any) string {
	t.Helper()
	raw, err := Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(raw)
}

func TestSplitValidatesSegments(t *testing.T) {
	segs, err := Split("/tasks/-N1/Subtasks/")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(segs) != 3 || segs[2] != "Subtasks" {
		t.Fatalf("unexpected segments: %#v", segs)
	}
	if segs, err := Split(""); err != nil || len(segs) != 0 {
		t.Fatalf("expected root path, got %#v %v", segs, err)
	}
	for _, bad := range []string{"tasks//x", "tasks/a.b", "con$tacts", "a/[0]"} {
		if _, err := Split(bad); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("expected invalid path for %q, got %v", bad, err)
		}
	}
}

func TestSetGetDeleteCollapsesEmptyParents(t *testing.T) {
	var root any
	root = Set(root, []string{"tasks", "a", "Title"}, "one")
	root = Set(root, []string{"tasks", "b", "Title"}, "two")
	if got := Get(root, []string{"tasks", "a", "Title"}); got != "one" {
		t.Fatalf("unexpected get: %#v", got)
	}

	root = Delete(root, []string{"tasks", "a", "Title"})
	if Get(root, []string{"tasks", "a"}) != nil {
		t.Fatal("expected empty parent to be removed")
	}
	root = Delete(root, []string{"tasks", "b"})
	if root != nil {
		t.Fatalf("expected empty root, got %#v", root)
	}
}

func TestSetNullDeletes(t *testing.T) {
	root := mustDecode(t, `{"contacts":{"c1":{"name":"A"}}}`)
	root = Set(root, []string{"contacts", "c1"}, nil)
	if mustEncode(t, root) != "null" {
		t.Fatalf("expected null root, got %s", mustEncode(t, root))
	}
}

func TestMergeUpdatesOnlyNamedFields(t *testing.T) {
	root := mustDecode(t, `{"tasks":{"f1":{"Status":"to do","timestamp":1,"Title":"keep"}}}`)
	patch := mustDecode(t, `{"Status":"done","timestamp":2}`)
	root, err := Merge(root, []string{"tasks", "f1"}, patch)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	got := mustEncode(t, Get(root, []string{"tasks", "f1"}))
	if got != `{"Status":"done","Title":"keep","timestamp":2}` {
		t.Fatalf("unexpected merge result: %s", got)
	}

	if _, err := Merge(root, nil, "scalar"); !errors.Is(err, ErrInvalidPatch) {
		t.Fatalf("expected ErrInvalidPatch, got %v", err)
	}
}

func TestMergeNestedPathKeys(t *testing.T) {
	root := mustDecode(t, `{"tasks":{"f1":{"Subtasks":{"s1":{"isChecked":false}}}}}`)
	root, err := Merge(root, []string{"tasks"}, map[string]any{"f1/Subtasks/s1/isChecked": true})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if Get(root, []string{"tasks", "f1", "Subtasks", "s1", "isChecked"}) != true {
		t.Fatalf("nested merge failed: %s", mustEncode(t, root))
	}
}

func TestDecodeConvertsArraysAndKeepsLargeNumbers(t *testing.T) {
	root := mustDecode(t, `{"users":[{"id":"u0"},null,{"id":"u2"}],"n":1700000000000123}`)
	if got := mustEncode(t, Get(root, []string{"users"})); got != `{"0":{"id":"u0"},"2":{"id":"u2"}}` {
		t.Fatalf("unexpected array conversion: %s", got)
	}
	if got := mustEncode(t, Get(root, []string{"n"})); got != "1700000000000123" {
		t.Fatalf("number precision lost: %s", got)
	}
}

func TestKeyGeneratorOrdersKeys(t *testing.T) {
	clock := time.UnixMilli(1700000000000)
	gen := NewKeyGenerator(func() time.Time { return clock }, rand.New(rand.NewPCG(7, 7)))
	keys := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		if i%10 == 0 {
			clock = clock.Add(time.Millisecond)
		}
		keys = append(keys, gen.Next())
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if len(k) != 20 {
			t.Fatalf("unexpected key length: %q", k)
		}
		if seen[k] {
			t.Fatalf("duplicate key: %q", k)
		}
		seen[k] = true
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for i := range keys {
		if keys[i] != sorted[i] {
			t.Fatalf("keys not in generation order at %d: %q vs %q", i, keys[i], sorted[i])
		}
	}
}
