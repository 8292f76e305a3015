package projector

import (
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

type ColumnView struct {
	Status      model.Status
	Title       string
	Cards       []CardView
	Placeholder string
}

type BoardView struct {
	Query     string
	Columns   []ColumnView
	NoResults bool
}

// Board groups tasks into the four status columns ordered by timestamp. Tasks whose
// status is not a column are left out. A non-empty query keeps tasks whose title or
// description contains it, ignoring case.
func Board(tasks []model.Task, contacts []model.Contact, query string) BoardView {
	query = strings.TrimSpace(query)
	needle := strings.ToLower(query)
	index := contactIndex(contacts)

	byStatus := make(map[model.Status][]model.Task, 4)
	matched := 0
	for _, t := range tasks {
		if !t.Status.IsValid() {
			continue
		}
		if needle != "" && !matches(t, needle) {
			continue
		}
		byStatus[t.Status] = append(byStatus[t.Status], t)
		matched++
	}

	view := BoardView{Query: query, NoResults: needle != "" && matched == 0}
	for _, status := range model.Statuses() {
		group := byStatus[status]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Timestamp < group[j].Timestamp })
		col := ColumnView{Status: status, Title: status.Label(), Cards: make([]CardView, 0, len(group))}
		for _, t := range group {
			col.Cards = append(col.Cards, card(t, index))
		}
		if len(col.Cards) == 0 {
			col.Placeholder = "No tasks " + status.Label()
		}
		view.Columns = append(view.Columns, col)
	}
	return view
}

func matches(t model.Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

type SubtaskView struct {
	Key         string
	Description string
	Checked     bool
}

type TaskDetailView struct {
	TaskID      int64
	FirebaseID  string
	Status      model.Status
	Title       string
	Description string
	DueDate     string
	Category    Badge
	Priority    Badge
	Assignees   []AssigneeBadge
	Subtasks    []SubtaskView
	Progress    *Progress
}

func TaskDetail(task model.Task, contacts []model.Contact) TaskDetailView {
	badges, _ := assigneeBadges(task, contactIndex(contacts), 0)
	view := TaskDetailView{
		TaskID:      task.ID,
		FirebaseID:  task.FirebaseID,
		Status:      task.Status,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     FormatDueDate(task.DueDate),
		Category:    CategoryBadge(task.Category),
		Priority:    PriorityBadge(task.Prio),
		Assignees:   badges,
		Progress:    progress(task),
	}
	for _, st := range normalize.SortedSubtasks(task) {
		view.Subtasks = append(view.Subtasks, SubtaskView{
			Key:         st.Key,
			Description: st.Value.Description,
			Checked:     st.Value.IsChecked,
		})
	}
	return view
}

// FormatDueDate renders "YYYY-MM-DD" as "DD/MM/YYYY". Unparseable input is returned as is.
func FormatDueDate(raw string) string {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return d.Format("02/01/2006")
}
