package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/commands"
	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

// typeInto feeds a key to a text input. Runes are appended directly so input works
// without a focused cursor.
func typeInto(in textinput.Model, msg tea.KeyMsg) textinput.Model {
	switch msg.Type {
	case tea.KeyRunes:
		in.SetValue(in.Value() + string(msg.Runes))
		in.CursorEnd()
		return in
	case tea.KeySpace:
		in.SetValue(in.Value() + " ")
		in.CursorEnd()
		return in
	}
	in, _ = in.Update(msg)
	return in
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		m.commandInput = typeInto(m.commandInput, msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	parsed, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var cmd tea.Cmd
	res, err := commands.Execute(parsed, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			f := forms.NewTaskForm()
			f.Title = a.Title
			f.DueDate = a.DueDate
			f.Category = a.Category
			if a.Priority != "" {
				f.Prio = a.Priority
			}
			if errs := f.Validate(m.now()); len(errs) > 0 {
				// Let the user fill in what the command left out.
				m.openTaskForm(f, a.Status)
				m.Form.Errors = errs
				return commands.Result{Message: "complete the task form to add it"}, nil
			}
			status := a.Status
			cmd = m.mutate("add task", fmt.Sprintf("added %q", a.Title), false, func(ctx context.Context) error {
				_, err := m.deps.Mutations.CreateTask(ctx, f, status)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("adding %q", a.Title)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			task, ok := m.deps.Cache.TaskByID(a.TaskID)
			if !ok {
				return commands.Result{}, noTask(a.TaskID)
			}
			fid, status := task.FirebaseID, a.Status
			cmd = m.mutate("move task", fmt.Sprintf("moved %q to %s", task.Title, status.Label()), false, func(ctx context.Context) error {
				return m.deps.Mutations.MoveTask(ctx, fid, status)
			})
			return commands.Result{Message: fmt.Sprintf("moving %q", task.Title)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			task, ok := m.deps.Cache.TaskByID(a.TaskID)
			if !ok {
				return commands.Result{}, noTask(a.TaskID)
			}
			fid := task.FirebaseID
			if m.Detail.FirebaseID == fid {
				m.Detail = DetailState{}
			}
			cmd = m.mutate("delete task", fmt.Sprintf("deleted %q", task.Title), false, func(ctx context.Context) error {
				return m.deps.Mutations.DeleteTask(ctx, fid)
			})
			return commands.Result{Message: fmt.Sprintf("deleting %q", task.Title)}, nil
		},
		Search: func(a commands.SearchArgs) (commands.Result, error) {
			m.switchView(ViewBoard)
			m.Board.Query = a.Query
			m.searchInput.SetValue(a.Query)
			m.Board.Card = 0
			m.clampCursors()
			if a.Query == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("searching for %q", a.Query)}, nil
		},
		Check: func(a commands.CheckArgs) (commands.Result, error) {
			task, ok := m.deps.Cache.TaskByID(a.TaskID)
			if !ok {
				return commands.Result{}, noTask(a.TaskID)
			}
			subtasks := normalize.SortedSubtasks(task)
			if a.Index > len(subtasks) {
				return commands.Result{}, &commands.CommandError{
					Code:    commands.ErrCodeInvalidArgument,
					Message: fmt.Sprintf("task %d has %d subtask(s)", a.TaskID, len(subtasks)),
				}
			}
			fid, sid := task.FirebaseID, subtasks[a.Index-1].Key
			cmd = m.mutate("toggle subtask", "subtask updated", false, func(ctx context.Context) error {
				return m.deps.Mutations.ToggleSubtask(ctx, fid, sid)
			})
			return commands.Result{Message: fmt.Sprintf("toggling subtask %d of %q", a.Index, task.Title)}, nil
		},
		Contact: func(a commands.ContactArgs) (commands.Result, error) {
			switch a.Action {
			case commands.ContactAdd:
				f := forms.ContactForm{Name: a.Name, Email: a.Email, Phone: a.Phone}
				if errs := f.Validate(m.deps.Cache.Contacts(), ""); len(errs) > 0 {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: errs.Error()}
				}
				cmd = m.mutate("add contact", fmt.Sprintf("added contact %s", f.Normalized().Name), false, func(ctx context.Context) error {
					_, err := m.deps.Mutations.CreateContact(ctx, f)
					return err
				})
				return commands.Result{Message: "adding contact"}, nil
			default:
				c, ok := m.deps.Cache.ContactByID(a.ID)
				if !ok {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no contact with id %s", a.ID)}
				}
				id := c.ID
				if m.Contacts.SelectedID == id {
					m.Contacts.SelectedID = ""
				}
				cmd = m.mutate("delete contact", fmt.Sprintf("deleted contact %s", c.Name), false, func(ctx context.Context) error {
					return m.deps.Mutations.DeleteContact(ctx, id)
				})
				return commands.Result{Message: fmt.Sprintf("deleting contact %s", c.Name)}, nil
			}
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			switch a.View {
			case commands.ViewSummary:
				m.switchView(ViewSummary)
			case commands.ViewContacts:
				m.switchView(ViewContacts)
			default:
				m.switchView(ViewBoard)
			}
			return commands.Result{Message: fmt.Sprintf("showing %s", m.CurrentView)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	return m, cmd
}

func noTask(id int64) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task with id %d", id)}
}
