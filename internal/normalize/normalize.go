// Package normalize converts store collections (records keyed by opaque store keys)
// into ordered lists and back.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/sandeepkv93/joinboard/internal/model"
)

// Keyed pairs a record with the store key it lives under.
type Keyed[T any] struct {
	Key   string
	Value T
}

// Collection decodes a key->record mapping into a list ordered by key. Integer keys
// (array-shaped collections) order numerically. null, absent and empty input yield
// an empty list.
func Collection[T any](raw json.RawMessage) ([]Keyed[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Keyed[T]{}, nil
	}

	var entries map[string]json.RawMessage
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("normalize: decode array collection: %w", err)
		}
		entries = make(map[string]json.RawMessage, len(items))
		for i, item := range items {
			entries[strconv.Itoa(i)] = item
		}
	case '{':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("normalize: decode collection: %w", err)
		}
	default:
		return nil, fmt.Errorf("normalize: collection must be an object, got %.20s", trimmed)
	}

	out := make([]Keyed[T], 0, len(entries))
	for key, item := range entries {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("normalize: decode record %s: %w", key, err)
		}
		out = append(out, Keyed[T]{Key: key, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out, nil
}

// Denormalize rebuilds the key->record mapping for write-back.
func Denormalize[T any](items []Keyed[T]) map[string]T {
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[item.Key] = item.Value
	}
	return out
}

func keyLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// Tasks decodes the tasks collection and attaches each store key as FirebaseID.
func Tasks(raw json.RawMessage) ([]model.Task, error) {
	items, err := Collection[model.Task](raw)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(items))
	for _, item := range items {
		task := item.Value
		task.FirebaseID = item.Key
		out = append(out, task)
	}
	return out, nil
}

// TaskMap is the write-back form of a task list, keyed by FirebaseID.
func TaskMap(tasks []model.Task) map[string]model.Task {
	out := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		out[t.FirebaseID] = t
	}
	return out
}

// Contacts decodes the contacts collection. Contacts are stored under their own id;
// a record missing its id takes the store key.
func Contacts(raw json.RawMessage) ([]model.Contact, error) {
	items, err := Collection[model.Contact](raw)
	if err != nil {
		return nil, err
	}
	out := make([]model.Contact, 0, len(items))
	for _, item := range items {
		c := item.Value
		if c.ID == "" {
			c.ID = item.Key
		}
		out = append(out, c)
	}
	return out, nil
}

// StoredUser is a user together with the store key it lives under.
type StoredUser struct {
	Key  string
	User model.User
}

func Users(raw json.RawMessage) ([]StoredUser, error) {
	items, err := Collection[model.User](raw)
	if err != nil {
		return nil, err
	}
	out := make([]StoredUser, 0, len(items))
	for _, item := range items {
		out = append(out, StoredUser{Key: item.Key, User: item.Value})
	}
	return out, nil
}

// SortedSubtasks lists a task's subtasks in key order for rendering.
func SortedSubtasks(t model.Task) []Keyed[model.Subtask] {
	out := make([]Keyed[model.Subtask], 0, len(t.Subtasks))
	for k, v := range t.Subtasks {
		out = append(out, Keyed[model.Subtask]{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

// SortedAssignees lists a task's assignees in key order for rendering.
func SortedAssignees(t model.Task) []Keyed[model.Assignee] {
	out := make([]Keyed[model.Assignee], 0, len(t.AssignedTo))
	for k, v := range t.AssignedTo {
		out = append(out, Keyed[model.Assignee]{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}
