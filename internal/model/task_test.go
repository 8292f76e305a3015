package model

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:        1700000000000,
		Title:     "Implement board",
		Status:    StatusToDo,
		Prio:      PriorityMedium,
		Category:  CategoryUserStory,
		Timestamp: 1700000000000,
	}
}

func TestTaskValidateSuccess(t *testing.T) {
	if err := validTask().Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateInvalidEnums(t *testing.T) {
	task := validTask()
	task.Status = Status("backlog")
	err := task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}

	task.Status = StatusDone
	task.Prio = Priority("high")
	err = task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got: %v", err)
	}

	task.Prio = PriorityLow
	task.Category = Category("Bug")
	err = task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got: %v", err)
	}
}

func TestTaskJSONFieldNames(t *testing.T) {
	task := validTask()
	task.FirebaseID = "-Nabc"
	task.DueDate = "2030-01-02"
	task.Subtasks = Subtasks{"-1-a": {ID: "-1-a", Description: "write", IsChecked: true}}
	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(raw)
	for _, want := range []string{`"Title":"Implement board"`, `"Due_date":"2030-01-02"`, `"Status":"to do"`, `"isChecked":true`, `"timestamp":1700000000000`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "-Nabc") {
		t.Fatalf("store key leaked into payload: %s", out)
	}
}

func TestTaskJSONPreservesUnknownFields(t *testing.T) {
	in := `{"id":5,"Title":"x","Status":"done","Prio":"low","Category":"User Story","timestamp":5,"Color":"red"}`
	var task Task
	if err := json.Unmarshal([]byte(in), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(task.Extra["Color"]) != `"red"` {
		t.Fatalf("expected extra field preserved, got %#v", task.Extra)
	}
	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"Color":"red"`) {
		t.Fatalf("expected extra field written back: %s", raw)
	}
}

func TestTaskJSONKeepsSparseRecordsSparse(t *testing.T) {
	in := `{"id":1,"Title":"x","Status":"to do","timestamp":3}`
	var task Task
	if err := json.Unmarshal([]byte(in), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"Status":"to do","Title":"x","id":1,"timestamp":3}` {
		t.Fatalf("sparse record grew fields: %s", raw)
	}

	task.Description = "now set"
	raw, err = json.Marshal(task.Clone())
	if err != nil {
		t.Fatalf("marshal edited: %v", err)
	}
	if !strings.Contains(string(raw), `"Description":"now set"`) || strings.Contains(string(raw), "Due_date") {
		t.Fatalf("unexpected edited payload: %s", raw)
	}

	raw, err = json.Marshal(validTask())
	if err != nil {
		t.Fatalf("marshal new task: %v", err)
	}
	if !strings.Contains(string(raw), `"Description":`) {
		t.Fatalf("new tasks carry every field: %s", raw)
	}
}

func TestAssigneesDecodeArrayAndMap(t *testing.T) {
	var task Task
	in := `{"id":1,"Assigned_to":[{"id":"c1","name":"Anna Alt","color":"#112233"},null,{"id":"c2","name":"Ben Bo","color":"#445566"}]}`
	if err := json.Unmarshal([]byte(in), &task); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if len(task.AssignedTo) != 2 || task.AssignedTo["2"].ID != "c2" {
		t.Fatalf("unexpected assignees from array: %#v", task.AssignedTo)
	}

	in = `{"id":1,"Assigned_to":{"-k1":{"id":"c1","name":"Anna Alt","color":"#112233"}}}`
	task = Task{}
	if err := json.Unmarshal([]byte(in), &task); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if task.AssignedTo["-k1"].Name != "Anna Alt" {
		t.Fatalf("unexpected assignees from map: %#v", task.AssignedTo)
	}
}

func TestCloneIsDeep(t *testing.T) {
	task := validTask()
	task.Subtasks = Subtasks{"a": {ID: "a", Description: "one"}}
	clone := task.Clone()
	st := clone.Subtasks["a"]
	st.IsChecked = true
	clone.Subtasks["a"] = st
	if task.Subtasks["a"].IsChecked {
		t.Fatal("clone shares subtask map with original")
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"todo":           StatusToDo,
		"To do":          StatusToDo,
		"in-progress":    StatusInProgress,
		"await_feedback": StatusAwaitFeedback,
		"DONE":           StatusDone,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseStatus("later"); ok {
		t.Fatal("expected unknown status to fail")
	}
}

func TestNewSubtaskIDFormat(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewSubtaskID(now, rand.New(rand.NewPCG(1, 2)))
	if !regexp.MustCompile(`^-1700000000123-[0-9a-z]{9}$`).MatchString(id) {
		t.Fatalf("unexpected subtask id: %q", id)
	}
	if NewTaskID(now) != 1700000000123 {
		t.Fatalf("unexpected task id: %d", NewTaskID(now))
	}
}

func TestRandomColorAndInitials(t *testing.T) {
	color := RandomColor(rand.New(rand.NewPCG(3, 4)))
	if !hexColor.MatchString(color) {
		t.Fatalf("unexpected color: %q", color)
	}
	cases := map[string]string{
		"Max Muster":    "MM",
		"madonna":       "M",
		"":              "",
		"  anna  b  c ": "ABC",
		"ülf öberg":     "ÜÖ",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Fatalf("Initials(%q) = %q want %q", in, got, want)
		}
	}
	if got := FormatName("mAX   muSTER"); got != "Max Muster" {
		t.Fatalf("FormatName = %q", got)
	}
}
