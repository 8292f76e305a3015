package projector

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

func taskWithAssignees(n int) model.Task {
	t := model.Task{ID: 1, Title: "Card", Status: model.StatusToDo, AssignedTo: model.Assignees{}}
	for i := 0; i < n; i++ {
		t.AssignedTo[fmt.Sprint(i)] = model.Assignee{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Name%d Last", i), Color: "#000000"}
	}
	return t
}

func TestCardAssigneeOverflow(t *testing.T) {
	tests := []struct {
		n        int
		badges   int
		overflow int
	}{
		{0, 0, 0},
		{3, 3, 0},
		{4, 4, 0},
		{5, 4, 1},
		{9, 4, 5},
	}
	for _, tc := range tests {
		card := Card(taskWithAssignees(tc.n), nil)
		if len(card.Assignees) != tc.badges || card.Overflow != tc.overflow {
			t.Fatalf("n=%d: got %d badges overflow %d", tc.n, len(card.Assignees), card.Overflow)
		}
	}
}

func TestCardProgressAbsentWithoutSubtasks(t *testing.T) {
	card := Card(model.Task{ID: 1, Title: "x"}, nil)
	if card.Progress != nil {
		t.Fatalf("expected no progress, got %+v", card.Progress)
	}

	task := model.Task{ID: 2, Subtasks: model.Subtasks{
		"-1-a": {Description: "a", IsChecked: true},
		"-1-b": {Description: "b"},
		"-1-c": {Description: "c"},
	}}
	card = Card(task, nil)
	if card.Progress == nil || card.Progress.Done != 1 || card.Progress.Total != 3 || card.Progress.Percent != 33 {
		t.Fatalf("unexpected progress: %+v", card.Progress)
	}
}

func TestCardResolvesContactByID(t *testing.T) {
	task := model.Task{ID: 1, AssignedTo: model.Assignees{
		"0": {ID: "c1", Name: "Old Name", Color: "#111111"},
		"1": {ID: "gone", Name: "Ghost Writer", Color: "#222222"},
	}}
	contacts := []model.Contact{
		{ID: "c1", Name: "Anna Alt", Color: "#ABCDEF"},
		{ID: "c2", Name: "Old Name", Color: "#FFFFFF"},
	}
	card := Card(task, contacts)
	if card.Assignees[0].Name != "Anna Alt" || card.Assignees[0].Color != "#ABCDEF" || card.Assignees[0].Initials != "AA" {
		t.Fatalf("expected live contact, got %+v", card.Assignees[0])
	}
	if card.Assignees[1].Color != "#222222" || card.Assignees[1].Initials != "GW" {
		t.Fatalf("expected stored fallback, got %+v", card.Assignees[1])
	}
}

func TestBadgeLookups(t *testing.T) {
	if PriorityBadge("URGENT").Label != "Urgent" {
		t.Fatal("expected case-insensitive priority lookup")
	}
	if !PriorityBadge("whenever").IsZero() || !CategoryBadge("Epic").IsZero() {
		t.Fatal("expected zero badge for unknown values")
	}
	if CategoryBadge(model.CategoryUserStory).Label != "User Story" {
		t.Fatal("unexpected category badge")
	}
}

func TestInitials(t *testing.T) {
	for in, want := range map[string]string{
		"anna alt":        "AA",
		"Max":             "M",
		"":                "",
		"  peter  van  d": "PVD",
	} {
		if got := Initials(in); got != want {
			t.Fatalf("initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBoardColumnsAndPlaceholders(t *testing.T) {
	tasks := []model.Task{
		{ID: 3, Title: "late", Status: model.StatusToDo, Timestamp: 30},
		{ID: 1, Title: "early", Status: model.StatusToDo, Timestamp: 10},
		{ID: 2, Title: "finished", Status: model.StatusDone, Timestamp: 20},
		{ID: 4, Title: "limbo", Status: "archived", Timestamp: 5},
	}
	b := Board(tasks, nil, "")
	if len(b.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(b.Columns))
	}
	todo := b.Columns[0]
	if len(todo.Cards) != 2 || todo.Cards[0].TaskID != 1 || todo.Cards[1].TaskID != 3 {
		t.Fatalf("unexpected to do column: %+v", todo.Cards)
	}
	if b.Columns[1].Placeholder != "No tasks In progress" || b.Columns[2].Placeholder != "No tasks Await feedback" {
		t.Fatalf("unexpected placeholders: %q %q", b.Columns[1].Placeholder, b.Columns[2].Placeholder)
	}
	if b.Columns[3].Placeholder != "" || len(b.Columns[3].Cards) != 1 {
		t.Fatal("done column should hold one card")
	}
	total := 0
	for _, col := range b.Columns {
		total += len(col.Cards)
	}
	if total != 3 {
		t.Fatalf("task with unknown status must not render, got %d cards", total)
	}
}

func TestBoardSearch(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "Write Docs", Status: model.StatusToDo},
		{ID: 2, Title: "Deploy", Description: "needs DOCS review", Status: model.StatusInProgress},
		{ID: 3, Title: "Other", Status: model.StatusDone},
	}
	b := Board(tasks, nil, "  docs ")
	if b.NoResults || len(b.Columns[0].Cards) != 1 || len(b.Columns[1].Cards) != 1 || len(b.Columns[3].Cards) != 0 {
		t.Fatalf("unexpected search result: %+v", b)
	}
	if b := Board(tasks, nil, "nothing-here"); !b.NoResults {
		t.Fatal("expected no results")
	}
	if b := Board(nil, nil, ""); b.NoResults {
		t.Fatal("empty board without query is not a search miss")
	}
}

func TestTaskDetail(t *testing.T) {
	task := model.Task{
		ID: 1, Title: "Detail", DueDate: "2030-04-09", Prio: model.PriorityLow,
		Subtasks: model.Subtasks{"-2-b": {Description: "second"}, "-1-a": {Description: "first", IsChecked: true}},
		AssignedTo: model.Assignees{
			"0": {ID: "a"}, "1": {ID: "b"}, "2": {ID: "c"}, "3": {ID: "d"}, "4": {ID: "e", Name: "Eve Last"},
		},
	}
	d := TaskDetail(task, nil)
	if d.DueDate != "09/04/2030" || d.Priority.Label != "Low" {
		t.Fatalf("unexpected detail header: %+v", d)
	}
	if len(d.Assignees) != 5 {
		t.Fatalf("detail must list every assignee, got %d", len(d.Assignees))
	}
	if len(d.Subtasks) != 2 || d.Subtasks[0].Description != "first" || !d.Subtasks[0].Checked {
		t.Fatalf("unexpected subtasks: %+v", d.Subtasks)
	}
	if FormatDueDate("soon") != "soon" {
		t.Fatal("unparseable dates pass through")
	}
}

func TestContactListGroupsByLetter(t *testing.T) {
	view := ContactList([]model.Contact{
		{ID: "1", Name: "bert Braun"},
		{ID: "2", Name: "Anna Alt"},
		{ID: "3", Name: "Ben Bauer"},
	}, "3")
	if len(view.Groups) != 2 || view.Groups[0].Letter != "A" || view.Groups[1].Letter != "B" {
		t.Fatalf("unexpected groups: %+v", view.Groups)
	}
	b := view.Groups[1].Contacts
	if b[0].Name != "Ben Bauer" || !b[0].Selected || b[1].Name != "bert Braun" {
		t.Fatalf("unexpected B group: %+v", b)
	}
	if d := ContactDetail(model.Contact{Name: "Anna Alt", Phone: "0123"}); d.Initials != "AA" || d.Phone != "0123" {
		t.Fatalf("unexpected detail: %+v", d)
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{Status: model.StatusToDo, Prio: model.PriorityUrgent, DueDate: "2026-03-20", Title: "later"},
		{Status: model.StatusToDo, Prio: "Urgent", DueDate: "2026-03-12", Title: "sooner"},
		{Status: model.StatusDone, DueDate: "2026-01-01"},
		{Status: model.StatusInProgress},
	}
	s := Summary(tasks, now, "Max Muster")
	if s.Greeting != "Good Morning," || s.Total != 4 || s.Urgent != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Counts[model.StatusToDo] != 2 || s.Counts[model.StatusDone] != 1 || s.Counts[model.StatusAwaitFeedback] != 0 {
		t.Fatalf("unexpected counts: %v", s.Counts)
	}
	if s.NextDeadline != "March 12, 2026" || s.DeadlineTitle != "sooner" {
		t.Fatalf("unexpected deadline: %q %q", s.NextDeadline, s.DeadlineTitle)
	}

	empty := Summary(nil, now, "")
	if empty.Greeting != "Good Morning" || empty.NextDeadline != NoUpcomingDeadline || empty.HasDeadline {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestGreetingBoundaries(t *testing.T) {
	for hour, want := range map[int]string{
		0: "Good Night", 5: "Good Night", 6: "Good Morning", 11: "Good Morning",
		12: "Good Noon", 13: "Good Noon", 14: "Good Afternoon", 17: "Good Afternoon",
		18: "Good Evening", 23: "Good Evening",
	} {
		if got := Greeting(hour); got != want {
			t.Fatalf("hour %d: got %q want %q", hour, got, want)
		}
	}
}

func TestHeader(t *testing.T) {
	users := []normalize.StoredUser{{Key: "0", User: model.User{ID: "u1", Name: "Max Muster", Initials: "MM"}}}
	if h := Header(model.Session{UserID: "u1"}, users); h.Initials != "MM" || h.Guest {
		t.Fatalf("unexpected header: %+v", h)
	}
	if h := Header(model.Session{Guest: true}, users); h.Initials != "G" {
		t.Fatalf("guest header: %+v", h)
	}
	if h := Header(model.Session{UserID: "missing"}, users); !strings.EqualFold(h.Initials, "g") {
		t.Fatalf("unknown user header: %+v", h)
	}
}
