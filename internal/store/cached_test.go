package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type countingStore struct {
	*MemoryStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, path)
}

func newCached(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	base := &countingStore{MemoryStore: NewMemoryStore(nil)}
	return NewCachedStore(base, client, time.Minute, logger), base, mr
}

func TestCachedStoreMissThenHit(t *testing.T) {
	c, base, _ := newCached(t)
	ctx := context.Background()
	if _, err := base.MemoryStore.Put(ctx, "contacts/c1", map[string]any{"id": "c1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for i := 0; i < 3; i++ {
		raw, err := c.Get(ctx, "contacts")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(raw) != `{"c1":{"id":"c1"}}` {
			t.Fatalf("unexpected contacts: %s", raw)
		}
	}
	if base.gets != 1 {
		t.Fatalf("expected one backend read, got %d", base.gets)
	}
}

func TestCachedStoreWriteEvictsCollectionAndRoot(t *testing.T) {
	c, base, mr := newCached(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "tasks"); err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	if _, err := c.Get(ctx, ""); err != nil {
		t.Fatalf("get root: %v", err)
	}
	if !mr.Exists("joinboard:doc:tasks") || !mr.Exists("joinboard:doc:/") {
		t.Fatalf("expected cached hashes, got keys %v", mr.Keys())
	}

	if _, err := c.Post(ctx, "tasks", map[string]any{"Title": "fresh"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if mr.Exists("joinboard:doc:tasks") || mr.Exists("joinboard:doc:/") {
		t.Fatalf("expected eviction, got keys %v", mr.Keys())
	}

	before := base.gets
	raw, err := c.Get(ctx, "tasks")
	if err != nil {
		t.Fatalf("get after write: %v", err)
	}
	if IsNull(raw) || base.gets != before+1 {
		t.Fatalf("expected fresh backend read, got %s (gets %d)", raw, base.gets)
	}
}

func TestCachedStoreRootWriteFlushesAll(t *testing.T) {
	c, _, mr := newCached(t)
	ctx := context.Background()
	for _, p := range []string{"tasks", "contacts", "users/0"} {
		if _, err := c.Get(ctx, p); err != nil {
			t.Fatalf("get %s: %v", p, err)
		}
	}
	if _, err := c.Put(ctx, "", map[string]any{}); err != nil {
		t.Fatalf("put root: %v", err)
	}
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "joinboard:doc:") {
			t.Fatalf("expected no cached documents, got %v", mr.Keys())
		}
	}
}

// pausingStore parks the first Get after it has read from the backend.
type pausingStore struct {
	*MemoryStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	raw, err := p.MemoryStore.Get(ctx, path)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return raw, err
}

func TestCachedStoreSkipsFillRacingAWrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	ctx := context.Background()
	base := &pausingStore{MemoryStore: NewMemoryStore(nil), read: make(chan struct{}), release: make(chan struct{})}
	if _, err := base.MemoryStore.Put(ctx, "tasks/t1", map[string]any{"Status": "to do"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	c := NewCachedStore(base, client, time.Minute, logger)

	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "tasks")
		done <- err
	}()
	<-base.read
	if _, err := c.Patch(ctx, "tasks/t1", map[string]any{"Status": "done"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	close(base.release)
	if err := <-done; err != nil {
		t.Fatalf("racing get: %v", err)
	}

	if mr.Exists("joinboard:doc:tasks") {
		t.Fatal("stale read must not be cached after a concurrent write")
	}
	raw, err := c.Get(ctx, "tasks")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != `{"t1":{"Status":"done"}}` {
		t.Fatalf("expected fresh tasks, got %s", raw)
	}
}

func TestCachedStoreFillsWhenNoWriteIntervenes(t *testing.T) {
	c, _, mr := newCached(t)
	ctx := context.Background()
	if _, err := c.Put(ctx, "tasks/t1", map[string]any{"Status": "to do"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := c.Get(ctx, "tasks"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !mr.Exists("joinboard:doc:tasks") {
		t.Fatalf("expected cached tasks after a quiet read, got keys %v", mr.Keys())
	}
}

func TestCachedStoreFallsBackWhenRedisDown(t *testing.T) {
	c, base, mr := newCached(t)
	mr.Close()
	raw, err := c.Get(context.Background(), "tasks")
	if err != nil {
		t.Fatalf("expected fallback read, got %v", err)
	}
	if !IsNull(raw) || base.gets != 1 {
		t.Fatalf("unexpected fallback result %s gets=%d", raw, base.gets)
	}
}
