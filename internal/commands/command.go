// Package commands parses the board's command palette.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sandeepkv93/joinboard/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeMove    Type = "move"
	TypeDelete  Type = "delete"
	TypeSearch  Type = "search"
	TypeCheck   Type = "check"
	TypeContact Type = "contact"
	TypeShow    Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs holds a new task. Empty fields take the form defaults.
type AddArgs struct {
	Title    string
	Status   model.Status
	Priority model.Priority
	DueDate  string
	Category model.Category
}

type MoveArgs struct {
	TaskID int64
	Status model.Status
}

type DeleteArgs struct {
	TaskID int64
}

type SearchArgs struct {
	Query string
}

// CheckArgs toggles the Nth subtask, counted from 1 in display order.
type CheckArgs struct {
	TaskID int64
	Index  int
}

type ContactAction string

const (
	ContactAdd    ContactAction = "add"
	ContactDelete ContactAction = "delete"
)

type ContactArgs struct {
	Action ContactAction
	Name   string
	Email  string
	Phone  string
	ID     string
}

type View string

const (
	ViewBoard    View = "board"
	ViewSummary  View = "summary"
	ViewContacts View = "contacts"
)

type ShowArgs struct {
	View View
}

type Command struct {
	Type    Type
	Raw     string
	Add     *AddArgs
	Move    *MoveArgs
	Delete  *DeleteArgs
	Search  *SearchArgs
	Check   *CheckArgs
	Contact *ContactArgs
	Show    *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts, err := tokenize(raw)
	if err != nil {
		return Command{}, err
	}
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	case TypeSearch:
		return Command{Type: TypeSearch, Raw: input, Search: &SearchArgs{Query: strings.Join(args, " ")}}, nil
	case TypeCheck:
		return parseCheck(input, args)
	case TypeContact:
		return parseContact(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// tokenize splits on whitespace and keeps double-quoted runs together.
func tokenize(s string) ([]string, error) {
	var (
		out    []string
		cur    strings.Builder
		quoted bool
		inTok  bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			inTok = true
		case unicode.IsSpace(r) && !quoted:
			if inTok {
				out = append(out, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if quoted {
		return nil, invalid("unterminated quote")
	}
	if inTok {
		out = append(out, cur.String())
	}
	return out, nil
}

func parseAdd(raw string, args []string) (Command, error) {
	add := AddArgs{}
	var title []string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok {
			title = append(title, arg)
			continue
		}
		switch strings.ToLower(key) {
		case "in":
			status, ok := model.ParseStatus(value)
			if !ok {
				return Command{}, invalid("unknown column %q", value)
			}
			add.Status = status
		case "prio":
			p := model.Priority(strings.ToLower(value))
			if !p.IsValid() {
				return Command{}, invalid("unknown priority %q", value)
			}
			add.Priority = p
		case "due":
			if _, err := time.Parse("2006-01-02", value); err != nil {
				return Command{}, invalid("due date must be YYYY-MM-DD, got %q", value)
			}
			add.DueDate = value
		case "cat":
			c, ok := parseCategory(value)
			if !ok {
				return Command{}, invalid("unknown category %q", value)
			}
			add.Category = c
		default:
			title = append(title, arg)
		}
	}
	add.Title = strings.TrimSpace(strings.Join(title, " "))
	if add.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &add}, nil
}

func parseCategory(v string) (model.Category, bool) {
	switch strings.ToLower(v) {
	case "tech", "technical":
		return model.CategoryTechnicalTask, true
	case "story", "user-story":
		return model.CategoryUserStory, true
	default:
		return "", false
	}
}

func parseTaskID(v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("task id must be a positive number, got %q", v)
	}
	return id, nil
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("move requires a task id and a column")
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return Command{}, err
	}
	column := strings.Join(args[1:], " ")
	status, ok := model.ParseStatus(column)
	if !ok {
		return Command{}, invalid("unknown column %q", column)
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{TaskID: id, Status: status}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("delete requires a task id")
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{TaskID: id}}, nil
}

func parseCheck(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("check requires a task id and a subtask number")
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return Command{}, err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return Command{}, invalid("subtask number must be 1 or more, got %q", args[1])
	}
	return Command{Type: TypeCheck, Raw: raw, Check: &CheckArgs{TaskID: id, Index: n}}, nil
}

func parseContact(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("contact requires add or delete")
	}
	switch ContactAction(strings.ToLower(args[0])) {
	case ContactAdd:
		if len(args) != 4 {
			return Command{}, invalid(`contact add requires "<name>" <email> <phone>`)
		}
		return Command{Type: TypeContact, Raw: raw, Contact: &ContactArgs{
			Action: ContactAdd,
			Name:   args[1],
			Email:  args[2],
			Phone:  args[3],
		}}, nil
	case ContactDelete:
		if len(args) != 2 {
			return Command{}, invalid("contact delete requires an id")
		}
		return Command{Type: TypeContact, Raw: raw, Contact: &ContactArgs{Action: ContactDelete, ID: args[1]}}, nil
	default:
		return Command{}, invalid("unknown contact action %q", args[0])
	}
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("show requires board, summary or contacts")
	}
	v := View(strings.ToLower(args[0]))
	switch v {
	case ViewBoard, ViewSummary, ViewContacts:
		return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{View: v}}, nil
	default:
		return Command{}, invalid("unknown view %q", args[0])
	}
}
