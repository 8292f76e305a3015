package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidCategory = errors.New("model: invalid task category")
)

type Status string

const (
	StatusToDo          Status = "to do"
	StatusInProgress    Status = "in progress"
	StatusAwaitFeedback Status = "await feedback"
	StatusDone          Status = "done"
)

// Statuses returns the board columns in display order.
func Statuses() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusAwaitFeedback, StatusDone}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusAwaitFeedback, StatusDone:
		return true
	default:
		return false
	}
}

func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusAwaitFeedback:
		return "Await feedback"
	case StatusDone:
		return "Done"
	default:
		return ""
	}
}

// ParseStatus accepts a stored status, its label or a short alias.
func ParseStatus(raw string) (Status, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", " ", "_", " ").Replace(v)
	switch v {
	case "to do", "todo":
		return StatusToDo, true
	case "in progress", "inprogress", "progress":
		return StatusInProgress, true
	case "await feedback", "awaitfeedback", "feedback":
		return StatusAwaitFeedback, true
	case "done":
		return StatusDone, true
	default:
		return "", false
	}
}

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryTechnicalTask Category = "Technical Task"
	CategoryUserStory     Category = "User Story"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryTechnicalTask, CategoryUserStory:
		return true
	default:
		return false
	}
}

type Subtask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IsChecked   bool   `json:"isChecked"`
}

type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Subtasks is keyed by the generated subtask key. Legacy array payloads decode with
// their index as key.
type Subtasks map[string]Subtask

func (s *Subtasks) UnmarshalJSON(data []byte) error {
	out, err := decodeKeyed[Subtask](data)
	if err != nil {
		return fmt.Errorf("decode subtasks: %w", err)
	}
	*s = out
	return nil
}

// Assignees is keyed by the generated assignment key. Legacy array payloads decode
// with their index as key.
type Assignees map[string]Assignee

func (a *Assignees) UnmarshalJSON(data []byte) error {
	out, err := decodeKeyed[Assignee](data)
	if err != nil {
		return fmt.Errorf("decode assignees: %w", err)
	}
	*a = out
	return nil
}

func decodeKeyed[T any](data []byte) (map[string]T, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []*T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		out := make(map[string]T, len(items))
		for i, item := range items {
			if item != nil {
				out[strconv.Itoa(i)] = *item
			}
		}
		return out, nil
	}
	var out map[string]T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Task is the stored task record. FirebaseID is the store key and never part of the
// payload; Extra carries fields written by other clients so write-back keeps them.
type Task struct {
	ID          int64     `json:"id"`
	FirebaseID  string    `json:"-"`
	Title       string    `json:"Title"`
	Description string    `json:"Description"`
	DueDate     string    `json:"Due_date"`
	Prio        Priority  `json:"Prio"`
	Category    Category  `json:"Category"`
	Status      Status    `json:"Status"`
	AssignedTo  Assignees `json:"Assigned_to,omitempty"`
	Subtasks    Subtasks  `json:"Subtasks,omitempty"`
	Timestamp   int64     `json:"timestamp"`

	Extra map[string]json.RawMessage `json:"-"`

	// absent lists scalar fields missing from the decoded record. They stay out of the
	// payload while still zero.
	absent []string
}

type taskFields Task

var taskScalarFields = []string{"id", "Title", "Description", "Due_date", "Prio", "Category", "Status", "timestamp"}

var taskKnownFields = []string{
	"id", "Title", "Description", "Due_date", "Prio", "Category", "Status",
	"Assigned_to", "Subtasks", "timestamp", "firebaseId",
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var fields taskFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	fields.absent = nil
	for _, k := range taskScalarFields {
		if _, ok := all[k]; !ok {
			fields.absent = append(fields.absent, k)
		}
	}
	for _, k := range taskKnownFields {
		delete(all, k)
	}
	fields.FirebaseID = t.FirebaseID
	fields.Extra = nil
	if len(all) > 0 {
		fields.Extra = all
	}
	*t = Task(fields)
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(taskFields(t))
	if err != nil {
		return nil, err
	}
	if len(t.Extra) == 0 && len(t.absent) == 0 {
		return raw, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for _, k := range t.absent {
		if v := string(merged[k]); v == `""` || v == "0" {
			delete(merged, k)
		}
	}
	for k, v := range t.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func (t Task) Validate() error {
	if t.ID == 0 {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Prio.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Prio)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	for key, st := range t.Subtasks {
		if strings.TrimSpace(st.Description) == "" {
			return fmt.Errorf("model: subtask %s has no description", key)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can edit nested maps without touching cached data.
func (t Task) Clone() Task {
	out := t
	if t.AssignedTo != nil {
		out.AssignedTo = make(Assignees, len(t.AssignedTo))
		for k, v := range t.AssignedTo {
			out.AssignedTo[k] = v
		}
	}
	if t.Subtasks != nil {
		out.Subtasks = make(Subtasks, len(t.Subtasks))
		for k, v := range t.Subtasks {
			out.Subtasks[k] = v
		}
	}
	out.absent = slices.Clone(t.absent)
	if t.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// CompletedSubtasks returns how many subtasks are checked and how many exist.
func (t Task) CompletedSubtasks() (done int, total int) {
	for _, st := range t.Subtasks {
		total++
		if st.IsChecked {
			done++
		}
	}
	return done, total
}

// SubtaskKeys returns the subtask keys in stored order.
func (t Task) SubtaskKeys() []string {
	keys := make([]string, 0, len(t.Subtasks))
	for k := range t.Subtasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
