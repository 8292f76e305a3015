// Package doctree implements path operations over a decoded JSON document tree with
// the semantics of a hierarchical realtime database: empty objects do not exist,
// writing null deletes, arrays are stored as index-keyed objects.
package doctree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidPath  = errors.New("doctree: invalid path")
	ErrInvalidPatch = errors.New("doctree: patch value must be an object")
)

// Split validates a slash separated path and returns its segments. The empty path
// and "/" address the root and yield no segments.
func Split(path string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil, nil
	}
	segs := strings.Split(trimmed, "/")
	for _, seg := range segs {
		if seg == "" || strings.ContainsAny(seg, ".#$[]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// Decode parses raw JSON keeping numbers exact and normalizes the result.
func Decode(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// FromValue converts an arbitrary Go value into tree form via its JSON encoding.
func FromValue(v any) (any, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return Decode(raw)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Encode renders a tree node; an absent node encodes as null.
func Encode(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(v)
}

// Normalize converts arrays into index-keyed objects and prunes nulls and empty objects.
func Normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, child := range typed {
			if n := Normalize(child); n != nil {
				out[k] = n
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make(map[string]any, len(typed))
		for i, child := range typed {
			if n := Normalize(child); n != nil {
				out[strconv.Itoa(i)] = n
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

// Get returns the node at segs or nil when absent.
func Get(root any, segs []string) any {
	cur := root
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

// Set replaces the node at segs, creating parents, and returns the new root. Setting
// nil deletes the node.
func Set(root any, segs []string, v any) any {
	v = Normalize(v)
	if len(segs) == 0 {
		return v
	}
	m, ok := root.(map[string]any)
	if !ok {
		if v == nil {
			return root
		}
		m = make(map[string]any)
	}
	child := Set(m[segs[0]], segs[1:], v)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// Delete removes the node at segs and returns the new root.
func Delete(root any, segs []string) any {
	return Set(root, segs, nil)
}

// Merge writes each child of fields under segs. Child keys may themselves be
// slash separated paths relative to segs.
func Merge(root any, segs []string, fields any) (any, error) {
	m, ok := fields.(map[string]any)
	if !ok {
		if fields == nil {
			return root, nil
		}
		return root, ErrInvalidPatch
	}
	paths := make(map[string][]string, len(m))
	for key := range m {
		rel, err := Split(key)
		if err != nil {
			return root, err
		}
		if len(rel) == 0 {
			return root, fmt.Errorf("%w: empty patch key", ErrInvalidPath)
		}
		full := make([]string, 0, len(segs)+len(rel))
		full = append(full, segs...)
		paths[key] = append(full, rel...)
	}
	for key, value := range m {
		root = Set(root, paths[key], value)
	}
	return root, nil
}

// Clone deep-copies a tree so callers can mutate the result freely.
func Clone(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, child := range typed {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}
