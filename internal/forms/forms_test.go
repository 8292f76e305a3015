package forms

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

var today = time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

func validTaskForm() *TaskForm {
	f := NewTaskForm()
	f.Title = "Plan sprint"
	f.DueDate = "2026-05-11"
	f.Category = model.CategoryUserStory
	return f
}

func TestTaskFormRequiredAndFutureDate(t *testing.T) {
	f := NewTaskForm()
	f.DueDate = "2020-01-01"
	f.Category = model.CategoryTechnicalTask
	errs := f.Validate(today)
	if len(errs) != 2 {
		t.Fatalf("expected two field errors, got %v", errs)
	}
	if errs[FieldTitle] != MsgRequired || errs[FieldDueDate] != MsgFutureDate {
		t.Fatalf("unexpected messages: %v", errs)
	}
}

func TestTaskFormDateRules(t *testing.T) {
	tests := []struct {
		due  string
		want string
	}{
		{"", MsgRequired},
		{"11.05.2026", MsgDateFormat},
		{"2026-13-01", MsgDateFormat},
		{"2026-05-10", MsgFutureDate},
		{"2026-05-11", ""},
	}
	for _, tc := range tests {
		f := validTaskForm()
		f.DueDate = tc.due
		if got := f.Validate(today)[FieldDueDate]; got != tc.want {
			t.Fatalf("due %q: got %q want %q", tc.due, got, tc.want)
		}
	}
}

func TestTaskFormEditKeepsStoredDate(t *testing.T) {
	f := EditTaskForm(model.Task{ID: 1, Title: "Old", DueDate: "2024-01-01", Category: model.CategoryUserStory, Prio: model.PriorityLow})
	if errs := f.Validate(today); len(errs) != 0 {
		t.Fatalf("stored date should be accepted in edit mode: %v", errs)
	}
	f.DueDate = "2024-01-02"
	if f.Validate(today)[FieldDueDate] != MsgFutureDate {
		t.Fatal("a changed past date must be rejected")
	}
}

func TestTaskFormCategoryRequired(t *testing.T) {
	f := validTaskForm()
	f.Category = "Epic"
	if f.Validate(today)[FieldCategory] != MsgRequired {
		t.Fatal("unknown category must be rejected")
	}
}

func TestSubtaskEditing(t *testing.T) {
	f := validTaskForm()
	rnd := rand.New(rand.NewPCG(1, 2))
	if _, err := f.AddSubtask("   ", today, rnd); err == nil {
		t.Fatal("expected blank subtask error")
	} else {
		var fe FieldErrors
		if !errors.As(err, &fe) || fe[FieldSubtask] != MsgSubtaskEmpty {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	key, err := f.AddSubtask(" write ", today, rnd)
	if err != nil {
		t.Fatalf("add subtask: %v", err)
	}
	if !strings.HasPrefix(key, "-1778425200000-") || f.Subtasks[0].Description != "write" {
		t.Fatalf("unexpected subtask %q %+v", key, f.Subtasks)
	}
	if err := f.EditSubtask(key, ""); err == nil {
		t.Fatal("expected error for blank edit")
	}
	if err := f.EditSubtask(key, "rewrite"); err != nil || f.Subtasks[0].Description != "rewrite" {
		t.Fatalf("edit subtask: %v", err)
	}
	f.RemoveSubtask(key)
	if len(f.Subtasks) != 0 || len(f.Deleted) != 0 {
		t.Fatalf("new subtasks are dropped without a queued delete: %+v", f)
	}
}

func TestEditFormQueuesStoredSubtaskDeletes(t *testing.T) {
	task := model.Task{ID: 1, Subtasks: model.Subtasks{"-1-a": {ID: "-1-a", Description: "a"}, "-1-b": {ID: "-1-b", Description: "b"}}}
	f := EditTaskForm(task)
	f.RemoveSubtask("-1-a")
	if len(f.Subtasks) != 1 || len(f.Deleted) != 1 || f.Deleted[0] != "-1-a" {
		t.Fatalf("unexpected form state: %+v", f)
	}
	if _, ok := task.Subtasks["-1-a"]; !ok {
		t.Fatal("editing the form must not touch the source task")
	}
}

func TestBuildCreate(t *testing.T) {
	f := validTaskForm()
	f.Prio = ""
	f.ToggleAssignee("c1")
	f.ToggleAssignee("missing")
	contacts := []model.Contact{{ID: "c1", Name: "Anna Alt", Color: "#123456"}}
	task := f.Build(contacts, model.StatusAwaitFeedback, today, rand.New(rand.NewPCG(3, 4)))

	if task.ID != today.UnixMilli() || task.Timestamp != task.ID {
		t.Fatalf("unexpected id/timestamp: %d %d", task.ID, task.Timestamp)
	}
	if task.Status != model.StatusAwaitFeedback || task.Prio != model.PriorityMedium {
		t.Fatalf("unexpected status/prio: %q %q", task.Status, task.Prio)
	}
	if len(task.AssignedTo) != 1 {
		t.Fatalf("expected one assignee, got %v", task.AssignedTo)
	}
	for _, a := range task.AssignedTo {
		if a != (model.Assignee{ID: "c1", Name: "Anna Alt", Color: "#123456"}) {
			t.Fatalf("unexpected assignee: %+v", a)
		}
	}
	if task.Subtasks != nil {
		t.Fatal("no subtasks drafted")
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("built task invalid: %v", err)
	}

	other := validTaskForm().Build(nil, "", today, nil)
	if other.Status != model.StatusToDo {
		t.Fatalf("default status: %q", other.Status)
	}
}

func TestBuildEditKeepsIdentity(t *testing.T) {
	stored := model.Task{
		ID: 7, FirebaseID: "-N7", Title: "Old", Status: model.StatusInProgress, Timestamp: 99,
		Prio: model.PriorityUrgent, Category: model.CategoryTechnicalTask, DueDate: "2027-01-01",
		AssignedTo: model.Assignees{"-1-k": {ID: "c1", Name: "Stale", Color: "#000000"}},
	}
	f := EditTaskForm(stored)
	f.Title = "New"
	f.ToggleAssignee("c2")
	contacts := []model.Contact{
		{ID: "c1", Name: "Anna Alt", Color: "#111111"},
		{ID: "c2", Name: "Ben Bauer", Color: "#222222"},
	}
	task := f.Build(contacts, model.StatusDone, today, nil)
	if task.ID != 7 || task.FirebaseID != "-N7" || task.Status != model.StatusInProgress || task.Timestamp != 99 {
		t.Fatalf("edit must keep identity: %+v", task)
	}
	if task.Title != "New" || len(task.AssignedTo) != 2 {
		t.Fatalf("unexpected edited task: %+v", task)
	}
	if a := task.AssignedTo["-1-k"]; a.Name != "Anna Alt" {
		t.Fatalf("existing assignment key must be kept: %+v", task.AssignedTo)
	}
}

func TestContactFormMessages(t *testing.T) {
	tests := []struct {
		form  ContactForm
		field string
		want  string
	}{
		{ContactForm{Email: "a@b.de", Phone: "0123456789"}, FieldName, MsgNameEmpty},
		{ContactForm{Name: "max muster", Email: "a@b.de", Phone: "0123456789"}, FieldName, MsgNameFormat},
		{ContactForm{Name: "Max", Email: "a@b.de", Phone: "0123456789"}, FieldName, MsgNameFormat},
		{ContactForm{Name: "Max Muster", Email: "nope", Phone: "0123456789"}, FieldEmail, MsgEmailInvalid},
		{ContactForm{Name: "Max Muster", Phone: "0123456789"}, FieldEmail, MsgEmailInvalid},
		{ContactForm{Name: "Max Muster", Email: "a@b.de"}, FieldPhone, MsgPhoneEmpty},
		{ContactForm{Name: "Max Muster", Email: "a@b.de", Phone: "0123-456789"}, FieldPhone, MsgPhoneChars},
		{ContactForm{Name: "Max Muster", Email: "a@b.de", Phone: "+49 123"}, FieldPhone, MsgPhoneDigits},
	}
	for _, tc := range tests {
		if got := tc.form.Validate(nil, "")[tc.field]; got != tc.want {
			t.Fatalf("%+v: got %q want %q", tc.form, got, tc.want)
		}
	}
	ok := ContactForm{Name: "Jürgen Öztürk", Email: " Juergen@Example.COM ", Phone: "+49 151 2345 6789"}
	if errs := ok.Validate(nil, ""); len(errs) != 0 {
		t.Fatalf("expected valid contact, got %v", errs)
	}
}

func TestContactFormDuplicateEmail(t *testing.T) {
	existing := []model.Contact{{ID: "c1", Email: "anna@example.com"}}
	f := ContactForm{Name: "Anna Alt", Email: "ANNA@example.com", Phone: "0123456789"}
	if f.Validate(existing, "")[FieldEmail] != MsgEmailTaken {
		t.Fatal("expected duplicate email rejection")
	}
	if errs := f.Validate(existing, "c1"); len(errs) != 0 {
		t.Fatalf("a contact may keep its own email: %v", errs)
	}
}

func TestSignupForm(t *testing.T) {
	users := []normalize.StoredUser{{Key: "0", User: model.User{Email: "taken@example.com"}}}
	errs := SignupForm{Name: "Max", Email: "Taken@example.com", Password: "pw", Confirm: "other"}.Validate(users)
	if errs[FieldEmail] != MsgEmailTaken || errs[FieldConfirm] != MsgPasswordsDiffer || errs[FieldPrivacy] != MsgPrivacy {
		t.Fatalf("unexpected signup errors: %v", errs)
	}
	ok := SignupForm{Name: "Max", Email: "new@example.com", Password: "pw", Confirm: "pw", Privacy: true}
	if err := ok.Validate(users).Err(); err != nil {
		t.Fatalf("expected valid signup, got %v", err)
	}
}

func TestLoginFormGenericMessage(t *testing.T) {
	if (LoginForm{Email: "a@b.de"}).Validate()[FieldLogin] != MsgLoginFailed {
		t.Fatal("expected generic login message")
	}
	if len((LoginForm{Email: "a@b.de", Password: "x"}).Validate()) != 0 {
		t.Fatal("expected no structural errors")
	}
}

func TestFieldErrorsString(t *testing.T) {
	err := FieldErrors{FieldTitle: MsgRequired, FieldDueDate: MsgFutureDate}.Err()
	if err == nil || err.Error() != "forms: due_date: Please enter a future date.; title: This field is required" {
		t.Fatalf("unexpected error string: %v", err)
	}
	if (FieldErrors{}).Err() != nil {
		t.Fatal("empty errors must be nil")
	}
}
