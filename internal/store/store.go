// Package store provides uniform CRUD over a path-addressed JSON document tree.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/joinboard/internal/doctree"
)

var (
	ErrInvalidPath  = errors.New("store: invalid path")
	ErrInvalidValue = errors.New("store: invalid value")
)

// Store is the contract every document backend satisfies. Paths are slash separated
// and relative to the database root; "" is the root itself. Get returns the JSON
// literal null for an absent path.
type Store interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Put(ctx context.Context, path string, value any) (json.RawMessage, error)
	Post(ctx context.Context, path string, value any) (string, error)
	Patch(ctx context.Context, path string, partial any) (json.RawMessage, error)
	Delete(ctx context.Context, path string) error
}

// StatusError reports a non-2xx answer from a remote store.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("store: %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("store: %s %s: status %d: %s", e.Method, e.Path, e.Code, body)
}

// PostResult is the body a store answers to POST.
type PostResult struct {
	Name string `json:"name"`
}

// Join builds a store path from segments, skipping empty ones.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func splitPath(path string) ([]string, error) {
	segs, err := doctree.Split(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return segs, nil
}

func treeValue(v any) (any, error) {
	out, err := doctree.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return out, nil
}

func mergeTree(root any, segs []string, partial any) (any, error) {
	next, err := doctree.Merge(root, segs, partial)
	if err != nil {
		return root, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return next, nil
}
