package projector

import (
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

const NoUpcomingDeadline = "No upcoming deadline"

type SummaryView struct {
	Greeting      string
	UserName      string
	Counts        map[model.Status]int
	Total         int
	Urgent        int
	NextDeadline  string
	HasDeadline   bool
	DeadlineTitle string
}

// Summary counts tasks per status and finds the nearest due date after now.
func Summary(tasks []model.Task, now time.Time, userName string) SummaryView {
	view := SummaryView{
		Greeting: Greeting(now.Hour()),
		UserName: strings.TrimSpace(userName),
		Counts:   make(map[model.Status]int, 4),
		Total:    len(tasks),
	}
	if view.UserName != "" {
		view.Greeting += ","
	}

	var next time.Time
	for _, t := range tasks {
		status, ok := model.ParseStatus(string(t.Status))
		if ok {
			view.Counts[status]++
		}
		if strings.EqualFold(string(t.Prio), string(model.PriorityUrgent)) {
			view.Urgent++
		}
		due, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(t.DueDate), now.Location())
		if err != nil || !due.After(now) {
			continue
		}
		if next.IsZero() || due.Before(next) {
			next = due
			view.DeadlineTitle = t.Title
		}
	}

	view.NextDeadline = NoUpcomingDeadline
	if !next.IsZero() {
		view.HasDeadline = true
		view.NextDeadline = next.Format("January 2, 2006")
	}
	return view
}

func Greeting(hour int) string {
	switch {
	case hour >= 0 && hour < 6:
		return "Good Night"
	case hour >= 6 && hour < 12:
		return "Good Morning"
	case hour >= 12 && hour < 14:
		return "Good Noon"
	case hour >= 14 && hour < 18:
		return "Good Afternoon"
	case hour >= 18 && hour < 24:
		return "Good Evening"
	default:
		return "Hello"
	}
}

type HeaderView struct {
	Initials string
	Name     string
	Guest    bool
}

// Header shows the stored initials of the session user, or "G" for guests and
// unknown users.
func Header(session model.Session, users []normalize.StoredUser) HeaderView {
	if !session.Guest && session.UserID != "" {
		for _, u := range users {
			if u.User.ID != session.UserID {
				continue
			}
			initials := u.User.Initials
			if initials == "" {
				initials = Initials(u.User.Name)
			}
			if initials != "" {
				return HeaderView{Initials: initials, Name: u.User.Name}
			}
		}
	}
	return HeaderView{Initials: "G", Guest: true}
}

type ContactGroup struct {
	Letter   string
	Contacts []ContactRow
}

type ContactRow struct {
	ID       string
	Name     string
	Email    string
	Initials string
	Color    string
	Selected bool
}

type ContactListView struct {
	Groups []ContactGroup
}

// ContactList sorts contacts by name ignoring case and groups them by the uppercased
// first letter.
func ContactList(contacts []model.Contact, selectedID string) ContactListView {
	sorted := append([]model.Contact(nil), contacts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	var view ContactListView
	for _, c := range sorted {
		letter := firstLetter(c.Name)
		if n := len(view.Groups); n == 0 || view.Groups[n-1].Letter != letter {
			view.Groups = append(view.Groups, ContactGroup{Letter: letter})
		}
		g := &view.Groups[len(view.Groups)-1]
		g.Contacts = append(g.Contacts, ContactRow{
			ID:       c.ID,
			Name:     c.Name,
			Email:    c.Email,
			Initials: Initials(c.Name),
			Color:    c.Color,
			Selected: c.ID == selectedID,
		})
	}
	return view
}

func firstLetter(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "#"
}

type ContactDetailView struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Initials string
	Color    string
}

func ContactDetail(c model.Contact) ContactDetailView {
	return ContactDetailView{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Initials: Initials(c.Name),
		Color:    c.Color,
	}
}
