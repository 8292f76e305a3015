package forms

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type SubtaskDraft struct {
	Key         string
	Description string
	IsChecked   bool
}

// TaskForm backs both the add and the edit task flows. Initial is the cached task in
// edit mode and nil in create mode.
type TaskForm struct {
	Mode    Mode
	Initial *model.Task

	Title       string
	Description string
	DueDate     string
	Prio        model.Priority
	Category    model.Category
	// Assignees lists contact ids in selection order.
	Assignees []string
	Subtasks  []SubtaskDraft
	// Deleted holds keys of stored subtasks removed in this edit.
	Deleted []string
}

func NewTaskForm() *TaskForm {
	return &TaskForm{Mode: ModeCreate, Prio: model.PriorityMedium}
}

// EditTaskForm prefills the form from a cached task. The task is cloned.
func EditTaskForm(task model.Task) *TaskForm {
	initial := task.Clone()
	f := &TaskForm{
		Mode:        ModeEdit,
		Initial:     &initial,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Prio:        task.Prio,
		Category:    task.Category,
	}
	for _, a := range normalize.SortedAssignees(task) {
		if a.Value.ID != "" {
			f.Assignees = append(f.Assignees, a.Value.ID)
		}
	}
	for _, st := range normalize.SortedSubtasks(task) {
		f.Subtasks = append(f.Subtasks, SubtaskDraft{Key: st.Key, Description: st.Value.Description, IsChecked: st.Value.IsChecked})
	}
	return f
}

// Clone copies the form so a caller can keep the user's input after a failed save.
func (f *TaskForm) Clone() *TaskForm {
	out := *f
	out.Assignees = append([]string(nil), f.Assignees...)
	out.Subtasks = append([]SubtaskDraft(nil), f.Subtasks...)
	out.Deleted = append([]string(nil), f.Deleted...)
	return &out
}

type taskRules struct {
	Title    string `form:"title" validate:"nonblank"`
	DueDate  string `form:"due_date" validate:"nonblank,dateonly"`
	Category string `form:"category" validate:"nonblank,category"`
	Prio     string `form:"priority" validate:"omitempty,priority"`
}

var taskMessages = map[string]map[string]string{
	FieldTitle:    {"nonblank": MsgRequired},
	FieldDueDate:  {"nonblank": MsgRequired, "dateonly": MsgDateFormat},
	FieldCategory: {"nonblank": MsgRequired, "category": MsgRequired},
}

// Validate checks the form against today's date. The due date must lie after today;
// in edit mode the task's stored date is accepted unchanged.
func (f *TaskForm) Validate(today time.Time) FieldErrors {
	errs := check(taskRules{
		Title:    f.Title,
		DueDate:  strings.TrimSpace(f.DueDate),
		Category: string(f.Category),
		Prio:     string(f.Prio),
	}, taskMessages)

	if _, bad := errs[FieldDueDate]; !bad {
		keep := f.Mode == ModeEdit && f.Initial != nil && strings.TrimSpace(f.DueDate) == f.Initial.DueDate
		if !keep && !afterToday(strings.TrimSpace(f.DueDate), today) {
			errs.set(FieldDueDate, MsgFutureDate)
		}
	}
	for _, st := range f.Subtasks {
		if strings.TrimSpace(st.Description) == "" {
			errs.set(FieldSubtask, MsgSubtaskEmpty)
		}
	}
	return errs
}

func afterToday(raw string, today time.Time) bool {
	due, err := time.ParseInLocation(time.DateOnly, raw, today.Location())
	if err != nil {
		return false
	}
	y, m, d := today.Date()
	return due.After(time.Date(y, m, d, 0, 0, 0, 0, today.Location()))
}

// AddSubtask appends a drafted subtask with a fresh key.
func (f *TaskForm) AddSubtask(description string, now time.Time, rnd *rand.Rand) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", FieldErrors{FieldSubtask: MsgSubtaskEmpty}
	}
	key := model.NewSubtaskID(now, rnd)
	f.Subtasks = append(f.Subtasks, SubtaskDraft{Key: key, Description: description})
	return key, nil
}

func (f *TaskForm) EditSubtask(key, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return FieldErrors{FieldSubtask: MsgSubtaskEmpty}
	}
	for i := range f.Subtasks {
		if f.Subtasks[i].Key == key {
			f.Subtasks[i].Description = description
			return nil
		}
	}
	return FieldErrors{FieldSubtask: MsgSubtaskEmpty}
}

// RemoveSubtask drops a drafted subtask. Stored subtasks are queued in Deleted.
func (f *TaskForm) RemoveSubtask(key string) {
	for i, st := range f.Subtasks {
		if st.Key != key {
			continue
		}
		f.Subtasks = append(f.Subtasks[:i], f.Subtasks[i+1:]...)
		if f.Initial != nil {
			if _, stored := f.Initial.Subtasks[key]; stored {
				f.Deleted = append(f.Deleted, key)
			}
		}
		return
	}
}

// ToggleAssignee selects or deselects a contact.
func (f *TaskForm) ToggleAssignee(contactID string) {
	for i, id := range f.Assignees {
		if id == contactID {
			f.Assignees = append(f.Assignees[:i], f.Assignees[i+1:]...)
			return
		}
	}
	f.Assignees = append(f.Assignees, contactID)
}

func (f *TaskForm) IsAssigned(contactID string) bool {
	for _, id := range f.Assignees {
		if id == contactID {
			return true
		}
	}
	return false
}

// Build produces the record to write. In create mode id and timestamp are now and
// status defaults to "to do". In edit mode identity, status, timestamp and unknown
// fields come from Initial. Assignees copy name and color from the matching contact;
// unknown contact ids are skipped.
func (f *TaskForm) Build(contacts []model.Contact, status model.Status, now time.Time, rnd *rand.Rand) model.Task {
	var task model.Task
	if f.Mode == ModeEdit && f.Initial != nil {
		task = f.Initial.Clone()
	} else {
		task.ID = model.NewTaskID(now)
		task.Timestamp = task.ID
		task.Status = status
		if !task.Status.IsValid() {
			task.Status = model.StatusToDo
		}
	}
	task.Title = strings.TrimSpace(f.Title)
	task.Description = strings.TrimSpace(f.Description)
	task.DueDate = strings.TrimSpace(f.DueDate)
	task.Prio = f.Prio
	if !task.Prio.IsValid() {
		task.Prio = model.PriorityMedium
	}
	task.Category = f.Category

	byID := make(map[string]model.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}
	existing := make(map[string]string)
	if f.Initial != nil {
		for key, a := range f.Initial.AssignedTo {
			existing[a.ID] = key
		}
	}
	task.AssignedTo = nil
	for _, id := range f.Assignees {
		c, ok := byID[id]
		if !ok {
			continue
		}
		key, ok := existing[id]
		if !ok {
			key = model.NewSubtaskID(now, rnd)
		}
		if task.AssignedTo == nil {
			task.AssignedTo = model.Assignees{}
		}
		task.AssignedTo[key] = c.Assignee()
	}

	task.Subtasks = nil
	for _, st := range f.Subtasks {
		if task.Subtasks == nil {
			task.Subtasks = model.Subtasks{}
		}
		task.Subtasks[st.Key] = model.Subtask{ID: st.Key, Description: strings.TrimSpace(st.Description), IsChecked: st.IsChecked}
	}
	return task
}
