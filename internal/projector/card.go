// Package projector turns cached records into view-models. Nothing here performs
// I/O or mutates its input.
package projector

import (
	"strings"
	"unicode/utf8"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

const (
	MaxBadges         = 4
	DescriptionLength = 50
)

type Badge struct {
	Label string
	Color string
}

func (b Badge) IsZero() bool {
	return b.Label == ""
}

var categoryBadges = map[model.Category]Badge{
	model.CategoryTechnicalTask: {Label: "Technical Task", Color: "#1FD7C1"},
	model.CategoryUserStory:     {Label: "User Story", Color: "#0038FF"},
}

var priorityBadges = map[model.Priority]Badge{
	model.PriorityUrgent: {Label: "Urgent", Color: "#FF3D00"},
	model.PriorityMedium: {Label: "Medium", Color: "#FFA800"},
	model.PriorityLow:    {Label: "Low", Color: "#7AE229"},
}

// CategoryBadge returns the zero Badge for unknown categories.
func CategoryBadge(c model.Category) Badge {
	return categoryBadges[c]
}

// PriorityBadge matches case-insensitively and returns the zero Badge for unknown values.
func PriorityBadge(p model.Priority) Badge {
	return priorityBadges[model.Priority(strings.ToLower(string(p)))]
}

type AssigneeBadge struct {
	ContactID string
	Name      string
	Initials  string
	Color     string
}

type Progress struct {
	Done    int
	Total   int
	Percent int
}

type CardView struct {
	TaskID      int64
	FirebaseID  string
	Status      model.Status
	Title       string
	Description string
	Category    Badge
	Priority    Badge
	// Progress is nil when the task has no subtasks.
	Progress  *Progress
	Assignees []AssigneeBadge
	Overflow  int
}

func Card(task model.Task, contacts []model.Contact) CardView {
	return card(task, contactIndex(contacts))
}

func card(task model.Task, contacts map[string]model.Contact) CardView {
	badges, overflow := assigneeBadges(task, contacts, MaxBadges)
	return CardView{
		TaskID:      task.ID,
		FirebaseID:  task.FirebaseID,
		Status:      task.Status,
		Title:       task.Title,
		Description: truncate(task.Description, DescriptionLength),
		Category:    CategoryBadge(task.Category),
		Priority:    PriorityBadge(task.Prio),
		Progress:    progress(task),
		Assignees:   badges,
		Overflow:    overflow,
	}
}

func progress(task model.Task) *Progress {
	done, total := task.CompletedSubtasks()
	if total == 0 {
		return nil
	}
	return &Progress{Done: done, Total: total, Percent: done * 100 / total}
}

// Initials is safe for empty and single-token names.
func Initials(name string) string {
	return model.Initials(name)
}

func contactIndex(contacts []model.Contact) map[string]model.Contact {
	out := make(map[string]model.Contact, len(contacts))
	for _, c := range contacts {
		out[c.ID] = c
	}
	return out
}

// assigneeBadges resolves name and color from the current contact by id and falls back
// to the assignee as stored. limit <= 0 returns every badge.
func assigneeBadges(task model.Task, contacts map[string]model.Contact, limit int) ([]AssigneeBadge, int) {
	sorted := normalize.SortedAssignees(task)
	out := make([]AssigneeBadge, 0, len(sorted))
	for _, item := range sorted {
		if limit > 0 && len(out) == limit {
			break
		}
		a := item.Value
		name, color := a.Name, a.Color
		if c, ok := contacts[a.ID]; ok {
			name, color = c.Name, c.Color
		}
		out = append(out, AssigneeBadge{ContactID: a.ID, Name: name, Initials: Initials(name), Color: color})
	}
	return out, len(sorted) - len(out)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
