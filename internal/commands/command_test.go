package commands

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/joinboard/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add write docs", TypeAdd},
		{"move 1700000000000 done", TypeMove},
		{"/delete 42", TypeDelete},
		{"/search login page", TypeSearch},
		{"/check 42 2", TypeCheck},
		{`/contact add "Anna Berg" anna@example.com +4912345`, TypeContact},
		{"/show summary", TypeShow},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddOptions(t *testing.T) {
	cmd, err := Parse("/add fix login in:awaitFeedback prio:Urgent due:2026-06-01 cat:story")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := AddArgs{
		Title:    "fix login",
		Status:   model.StatusAwaitFeedback,
		Priority: model.PriorityUrgent,
		DueDate:  "2026-06-01",
		Category: model.CategoryUserStory,
	}
	if *cmd.Add != want {
		t.Fatalf("unexpected add args: %+v", *cmd.Add)
	}
}

func TestParseMoveAcceptsSpacedColumn(t *testing.T) {
	cmd, err := Parse("/move 7 in progress")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.TaskID != 7 || cmd.Move.Status != model.StatusInProgress {
		t.Fatalf("unexpected move args: %+v", *cmd.Move)
	}
}

func TestParseContactQuotedName(t *testing.T) {
	cmd, err := Parse(`/contact add "Anna Berg" anna@example.com +4912345`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := cmd.Contact
	if c.Action != ContactAdd || c.Name != "Anna Berg" || c.Email != "anna@example.com" || c.Phone != "+4912345" {
		t.Fatalf("unexpected contact args: %+v", *c)
	}

	cmd, err = Parse("/contact delete c1")
	if err != nil || cmd.Contact.ID != "c1" {
		t.Fatalf("unexpected delete parse: %+v %v", cmd.Contact, err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		in   string
		code ErrorCode
	}{
		{"   ", ErrCodeEmptyInput},
		{"/", ErrCodeEmptyInput},
		{"/unknown do x", ErrCodeUnknownCommand},
		{"/add in:done", ErrCodeInvalidArgument},
		{"/add x in:trash", ErrCodeInvalidArgument},
		{"/add x prio:high", ErrCodeInvalidArgument},
		{"/add x due:tomorrow", ErrCodeInvalidArgument},
		{"/add x cat:bug", ErrCodeInvalidArgument},
		{"/move abc done", ErrCodeInvalidArgument},
		{"/move 1", ErrCodeInvalidArgument},
		{"/check 1 0", ErrCodeInvalidArgument},
		{`/contact add "Anna Berg anna@example.com 1`, ErrCodeInvalidArgument},
		{"/contact add Anna", ErrCodeInvalidArgument},
		{"/show calendar", ErrCodeInvalidArgument},
	}
	for _, tc := range cases {
		_, err := Parse(tc.in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != tc.code {
			t.Fatalf("parse %q: expected %s, got %v", tc.in, tc.code, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/move 9 done")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Move: func(a MoveArgs) (Result, error) {
			called = true
			if a.TaskID != 9 || a.Status != model.StatusDone {
				t.Fatalf("unexpected args: %+v", a)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show board")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
