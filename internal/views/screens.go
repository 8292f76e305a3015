package views

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/projector"
)

type TaskDetailData struct {
	Detail projector.TaskDetailView
	// SubtaskCursor highlights one subtask row; -1 for none.
	SubtaskCursor int
	// Markdown renders the description through glamour.
	Markdown bool
}

func RenderTaskDetail(data TaskDetailData) string {
	d := data.Detail
	var b strings.Builder
	if !d.Category.IsZero() {
		b.WriteString(swatch(d.Category.Label, d.Category.Color) + "\n")
	}
	b.WriteString(titleStyle.Render(d.Title) + "\n")
	if d.Description != "" {
		desc := d.Description
		if data.Markdown {
			desc = RenderMarkdown(desc)
		}
		b.WriteString(desc + "\n")
	}
	b.WriteString(fmt.Sprintf("\nDue date: %s\n", d.DueDate))
	b.WriteString(fmt.Sprintf("Priority: %s\n", d.Priority.Label))
	b.WriteString(fmt.Sprintf("Status:   %s\n", d.Status.Label()))

	b.WriteString("\nAssigned To:\n")
	if len(d.Assignees) == 0 {
		b.WriteString(mutedStyle.Render("  nobody") + "\n")
	}
	for _, a := range d.Assignees {
		b.WriteString(fmt.Sprintf("  %s %s\n", swatch(a.Initials, a.Color), a.Name))
	}

	b.WriteString("\nSubtasks:\n")
	if len(d.Subtasks) == 0 {
		b.WriteString(mutedStyle.Render("  none") + "\n")
	}
	for i, st := range d.Subtasks {
		cursor := " "
		if i == data.SubtaskCursor {
			cursor = ">"
		}
		box := "[ ]"
		if st.Checked {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, box, st.Description))
	}
	if d.Progress != nil {
		b.WriteString("\n" + RenderProgress(*d.Progress, 20) + "\n")
	}
	b.WriteString(footerStyle.Render("[space]toggle [e]edit [m]move [x]delete [esc]close"))
	return b.String()
}

func RenderSummary(s projector.SummaryView) string {
	var b strings.Builder
	greeting := s.Greeting
	if s.UserName != "" {
		greeting += " " + s.UserName
	} else {
		greeting += "!"
	}
	b.WriteString(headerStyle.Render(greeting) + "\n\n")
	b.WriteString(fmt.Sprintf("%-16s %3d\n", model.StatusToDo.Label(), s.Counts[model.StatusToDo]))
	b.WriteString(fmt.Sprintf("%-16s %3d\n", model.StatusDone.Label(), s.Counts[model.StatusDone]))
	b.WriteString(fmt.Sprintf("%-16s %3d\n", "Urgent", s.Urgent))
	if s.HasDeadline {
		b.WriteString(fmt.Sprintf("%-16s %s\n", "Upcoming", s.NextDeadline))
	} else {
		b.WriteString(mutedStyle.Render(s.NextDeadline) + "\n")
	}
	b.WriteString(fmt.Sprintf("%-16s %3d\n", plural(s.Total, "Task")+" in Board", s.Total))
	inProgress := s.Counts[model.StatusInProgress]
	b.WriteString(fmt.Sprintf("%-16s %3d\n", plural(inProgress, "Task")+" in Progress", inProgress))
	b.WriteString(fmt.Sprintf("%-16s %3d", model.StatusAwaitFeedback.Label(), s.Counts[model.StatusAwaitFeedback]))
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func RenderContactList(v projector.ContactListView) string {
	if len(v.Groups) == 0 {
		return mutedStyle.Render("No contacts yet. Press [n] to add one.")
	}
	var b strings.Builder
	for _, g := range v.Groups {
		b.WriteString(titleStyle.Render(g.Letter) + "\n")
		for _, c := range g.Contacts {
			cursor := " "
			if c.Selected {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s %s %s <%s>\n", cursor, swatch(c.Initials, c.Color), c.Name, c.Email))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderContactDetail(c projector.ContactDetailView) string {
	if c.ID == "" {
		return mutedStyle.Render("(no contact selected)")
	}
	return fmt.Sprintf("%s %s\n\nEmail: %s\nPhone: %s\n%s",
		swatch(c.Initials, c.Color),
		titleStyle.Render(c.Name),
		c.Email,
		c.Phone,
		footerStyle.Render("[e]edit [x]delete"),
	)
}

type FormFieldData struct {
	Label   string
	View    string
	Error   string
	Focused bool
}

type FormData struct {
	Title  string
	Fields []FormFieldData
	Error  string
	Hint   string
}

func RenderForm(data FormData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(data.Title) + "\n")
	for _, f := range data.Fields {
		cursor := " "
		if f.Focused {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-12s %s\n", cursor, f.Label, f.View))
		if f.Error != "" {
			b.WriteString("  " + errorStyle.Render(f.Error) + "\n")
		}
	}
	if data.Error != "" {
		b.WriteString(errorStyle.Render(data.Error) + "\n")
	}
	if data.Hint != "" {
		b.WriteString(footerStyle.Render(data.Hint))
	}
	return strings.TrimRight(b.String(), "\n")
}
