package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sandeepkv93/joinboard/internal/doctree"
)

// MemoryStore keeps the whole tree in process.
type MemoryStore struct {
	mu   sync.Mutex
	root any
	keys *doctree.KeyGenerator
}

func NewMemoryStore(keys *doctree.KeyGenerator) *MemoryStore {
	if keys == nil {
		keys = doctree.NewKeyGenerator(nil, nil)
	}
	return &MemoryStore{keys: keys}
}

func (s *MemoryStore) Get(_ context.Context, path string) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return doctree.Encode(doctree.Get(s.root, segs))
}

func (s *MemoryStore) Put(_ context.Context, path string, value any) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	v, err := treeValue(value)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = doctree.Set(s.root, segs, doctree.Clone(v))
	return doctree.Encode(v)
}

func (s *MemoryStore) Post(_ context.Context, path string, value any) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	v, err := treeValue(value)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keys.Next()
	s.root = doctree.Set(s.root, append(segs, key), v)
	return key, nil
}

func (s *MemoryStore) Patch(_ context.Context, path string, partial any) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	v, err := treeValue(partial)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := mergeTree(s.root, segs, doctree.Clone(v))
	if err != nil {
		return nil, err
	}
	s.root = next
	return doctree.Encode(v)
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = doctree.Delete(s.root, segs)
	return nil
}
