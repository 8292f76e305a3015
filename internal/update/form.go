package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/views"
)

type taskField int

// Focus order of the task form.
const (
	taskTitle taskField = iota
	taskDescription
	taskDueDate
	taskPriority
	taskCategory
	taskAssignees
	taskSubtask
	taskFieldCount
)

// inputFor maps a task field onto its text input, -1 for choice fields.
func inputFor(f taskField) int {
	switch f {
	case taskTitle:
		return 0
	case taskDescription:
		return 1
	case taskDueDate:
		return 2
	case taskSubtask:
		return 3
	default:
		return -1
	}
}

var (
	priorities = []model.Priority{model.PriorityUrgent, model.PriorityMedium, model.PriorityLow}
	categories = []model.Category{"", model.CategoryTechnicalTask, model.CategoryUserStory}
)

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.SetValue(value)
	return ti
}

func (m *Model) openTaskForm(f *forms.TaskForm, status model.Status) {
	m.Form = &FormState{
		Kind:   formTask,
		Task:   f,
		Status: status,
		inputs: []textinput.Model{
			newInput("Enter a title", f.Title),
			newInput("Enter a description", f.Description),
			newInput("YYYY-MM-DD", f.DueDate),
			newInput("Add new subtask", ""),
		},
	}
	m.Form.inputs[0].Focus()
	m.Drag.End()
	m.MoveMenu.OutsideClick()
}

func (m *Model) openContactForm(c *model.Contact) {
	var f forms.ContactForm
	id := ""
	if c != nil {
		f = forms.ContactFormFrom(*c)
		id = c.ID
	}
	m.Form = &FormState{
		Kind:      formContact,
		ContactID: id,
		inputs: []textinput.Model{
			newInput("Name", f.Name),
			newInput("Email", f.Email),
			newInput("Phone", f.Phone),
		},
	}
	m.Form.inputs[0].Focus()
}

func (s *FormState) fieldCount() int {
	if s.Kind == formTask {
		return int(taskFieldCount)
	}
	return len(s.inputs)
}

func (s *FormState) inputIndex() int {
	if s.Kind == formTask {
		return inputFor(taskField(s.Focus))
	}
	return s.Focus
}

func (s *FormState) setFocus(i int) {
	n := s.fieldCount()
	s.Focus = (i + n) % n
	for j := range s.inputs {
		s.inputs[j].Blur()
	}
	if idx := s.inputIndex(); idx >= 0 {
		s.inputs[idx].Focus()
	}
}

// sync copies the text inputs into the task form.
func (s *FormState) sync() {
	if s.Kind != formTask {
		return
	}
	s.Task.Title = s.inputs[0].Value()
	s.Task.Description = s.inputs[1].Value()
	s.Task.DueDate = strings.TrimSpace(s.inputs[2].Value())
}

func (s *FormState) contactForm() forms.ContactForm {
	return forms.ContactForm{Name: s.inputs[0].Value(), Email: s.inputs[1].Value(), Phone: s.inputs[2].Value()}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.Form
	switch msg.String() {
	case "esc":
		m.Form = nil
		m.Status = StatusBar{Text: "cancelled"}
		return m, nil
	case "tab", "down":
		s.setFocus(s.Focus + 1)
		return m, nil
	case "shift+tab", "up":
		s.setFocus(s.Focus - 1)
		return m, nil
	case "ctrl+s":
		return m.submitForm()
	}

	if s.Kind == formTask {
		switch taskField(s.Focus) {
		case taskPriority:
			if msg.String() != "enter" {
				s.cyclePriority(msg.String())
				return m, nil
			}
		case taskCategory:
			if msg.String() != "enter" {
				s.cycleCategory(msg.String())
				return m, nil
			}
		case taskAssignees:
			if msg.String() != "enter" {
				m.handlePickerKey(msg.String())
				return m, nil
			}
		case taskSubtask:
			switch msg.String() {
			case "enter":
				if strings.TrimSpace(s.inputs[3].Value()) == "" {
					break
				}
				if _, err := s.Task.AddSubtask(s.inputs[3].Value(), m.now(), nil); err != nil {
					s.Errors = forms.FieldErrors{forms.FieldSubtask: forms.MsgSubtaskEmpty}
					return m, nil
				}
				delete(s.Errors, forms.FieldSubtask)
				s.inputs[3].SetValue("")
				return m, nil
			case "ctrl+d":
				if n := len(s.Task.Subtasks); n > 0 {
					s.Task.RemoveSubtask(s.Task.Subtasks[n-1].Key)
				}
				return m, nil
			}
		}
	}

	if msg.String() == "enter" {
		return m.submitForm()
	}
	if idx := s.inputIndex(); idx >= 0 {
		s.inputs[idx] = typeInto(s.inputs[idx], msg)
	}
	return m, nil
}

func (s *FormState) cyclePriority(key string) {
	i := 0
	for j, p := range priorities {
		if p == s.Task.Prio {
			i = j
		}
	}
	switch key {
	case "left", "h":
		i = (i - 1 + len(priorities)) % len(priorities)
	case "right", "l", " ":
		i = (i + 1) % len(priorities)
	}
	s.Task.Prio = priorities[i]
}

func (s *FormState) cycleCategory(key string) {
	i := 0
	for j, c := range categories {
		if c == s.Task.Category {
			i = j
		}
	}
	switch key {
	case "left", "h":
		i = (i - 1 + len(categories)) % len(categories)
	case "right", "l", " ":
		i = (i + 1) % len(categories)
	}
	s.Task.Category = categories[i]
}

func (m *Model) handlePickerKey(key string) {
	s := m.Form
	contacts := m.deps.Cache.Contacts()
	if len(contacts) == 0 {
		return
	}
	switch key {
	case "left", "h":
		if s.PickerCursor > 0 {
			s.PickerCursor--
		}
	case "right", "l":
		if s.PickerCursor < len(contacts)-1 {
			s.PickerCursor++
		}
	case " ":
		if s.PickerCursor < len(contacts) {
			s.Task.ToggleAssignee(contacts[s.PickerCursor].ID)
		}
	}
}

// submitForm validates locally and only then starts the write.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	s := m.Form
	switch s.Kind {
	case formTask:
		s.sync()
		if errs := s.Task.Validate(m.now()); len(errs) > 0 {
			s.Errors = errs
			m.Status = StatusBar{Text: "please fix the highlighted fields", IsError: true}
			return m, nil
		}
		s.Errors = nil
		f, status := s.Task.Clone(), s.Status
		if f.Mode == forms.ModeEdit {
			cmd := m.mutate("edit task", fmt.Sprintf("saved %q", f.Title), true, func(ctx context.Context) error {
				return m.deps.Mutations.EditTask(ctx, f)
			})
			return m, cmd
		}
		cmd := m.mutate("add task", "Task added to board", true, func(ctx context.Context) error {
			_, err := m.deps.Mutations.CreateTask(ctx, f, status)
			return err
		})
		return m, cmd
	default:
		f, id := s.contactForm(), s.ContactID
		if errs := f.Validate(m.deps.Cache.Contacts(), id); len(errs) > 0 {
			s.Errors = errs
			m.Status = StatusBar{Text: "please fix the highlighted fields", IsError: true}
			return m, nil
		}
		s.Errors = nil
		if id != "" {
			cmd := m.mutate("edit contact", fmt.Sprintf("saved contact %s", f.Normalized().Name), true, func(ctx context.Context) error {
				_, err := m.deps.Mutations.EditContact(ctx, id, f)
				return err
			})
			return m, cmd
		}
		cmd := m.mutate("add contact", "Contact successfully created", true, func(ctx context.Context) error {
			c, err := m.deps.Mutations.CreateContact(ctx, f)
			if err == nil {
				m.deps.Logger.WithField("contact_id", c.ID).Debug("contact created from form")
			}
			return err
		})
		return m, cmd
	}
}

func (m Model) renderForm() string {
	s := m.Form
	if s.Kind == formContact {
		title := "Add contact"
		if s.ContactID != "" {
			title = "Edit contact"
		}
		labels := []string{"Name", "Email", "Phone"}
		keys := []string{forms.FieldName, forms.FieldEmail, forms.FieldPhone}
		data := views.FormData{Title: title, Hint: "tab next | enter save | esc cancel"}
		for i, label := range labels {
			data.Fields = append(data.Fields, views.FormFieldData{
				Label:   label,
				View:    s.inputs[i].View(),
				Error:   s.Errors[keys[i]],
				Focused: s.Focus == i,
			})
		}
		return views.RenderForm(data)
	}

	title := "Add Task"
	if s.Task.Mode == forms.ModeEdit {
		title = "Edit Task"
	} else if s.Status != "" && s.Status != model.StatusToDo {
		title = fmt.Sprintf("Add Task to %s", s.Status.Label())
	}
	category := string(s.Task.Category)
	if category == "" {
		category = "Select task category"
	}
	fields := []views.FormFieldData{
		{Label: "Title*", View: s.inputs[0].View(), Error: s.Errors[forms.FieldTitle]},
		{Label: "Description", View: s.inputs[1].View()},
		{Label: "Due date*", View: s.inputs[2].View(), Error: s.Errors[forms.FieldDueDate]},
		{Label: "Prio", View: "< " + string(s.Task.Prio) + " >", Error: s.Errors[forms.FieldPriority]},
		{Label: "Category*", View: "< " + category + " >", Error: s.Errors[forms.FieldCategory]},
		{Label: "Assigned to", View: m.renderPicker()},
		{Label: "Subtasks", View: m.renderSubtaskDrafts(), Error: s.Errors[forms.FieldSubtask]},
	}
	for i := range fields {
		fields[i].Focused = s.Focus == i
	}
	return views.RenderForm(views.FormData{
		Title:  title,
		Fields: fields,
		Hint:   "tab next | enter save | h/l choose | space toggle | enter on subtask adds it | ctrl+d drop last subtask | esc cancel",
	})
}

func (m Model) renderPicker() string {
	s := m.Form
	contacts := m.deps.Cache.Contacts()
	if len(contacts) == 0 {
		return "no contacts"
	}
	parts := make([]string, 0, len(contacts))
	for i, c := range contacts {
		mark := "[ ]"
		if s.Task.IsAssigned(c.ID) {
			mark = "[x]"
		}
		label := fmt.Sprintf("%s %s", mark, model.Initials(c.Name))
		if i == s.PickerCursor && taskField(s.Focus) == taskAssignees {
			label = "<" + label + ">"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func (m Model) renderSubtaskDrafts() string {
	s := m.Form
	var b strings.Builder
	b.WriteString(s.inputs[3].View())
	for _, st := range s.Task.Subtasks {
		b.WriteString("\n               - " + st.Description)
	}
	return b.String()
}
