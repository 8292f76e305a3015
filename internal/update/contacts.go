package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/projector"
	"github.com/sandeepkv93/joinboard/internal/views"
)

// sortedContacts lists contacts in display order, the order the cursor walks.
func (m Model) sortedContacts() []projector.ContactRow {
	var rows []projector.ContactRow
	for _, g := range projector.ContactList(m.deps.Cache.Contacts(), "").Groups {
		rows = append(rows, g.Contacts...)
	}
	return rows
}

func (m Model) contactAtCursor() (model.Contact, bool) {
	rows := m.sortedContacts()
	if m.Contacts.Cursor < 0 || m.Contacts.Cursor >= len(rows) {
		return model.Contact{}, false
	}
	return m.deps.Cache.ContactByID(rows[m.Contacts.Cursor].ID)
}

func (m Model) handleContactsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.Contacts.Cursor < len(m.sortedContacts())-1 {
			m.Contacts.Cursor++
		}
	case "k", "up":
		if m.Contacts.Cursor > 0 {
			m.Contacts.Cursor--
		}
	case "enter":
		if c, ok := m.contactAtCursor(); ok {
			m.Contacts.SelectedID = c.ID
		}
	case "esc":
		m.Contacts.SelectedID = ""
	case "n":
		m.openContactForm(nil)
	case "e":
		if c, ok := m.selectedContact(); ok {
			m.openContactForm(&c)
		}
	case "x":
		c, ok := m.selectedContact()
		if !ok {
			return m, nil
		}
		id := c.ID
		m.Contacts.SelectedID = ""
		cmd := m.mutate("delete contact", fmt.Sprintf("deleted contact %s", c.Name), false, func(ctx context.Context) error {
			return m.deps.Mutations.DeleteContact(ctx, id)
		})
		return m, cmd
	}
	return m, nil
}

// selectedContact is the open contact, or the one under the cursor.
func (m Model) selectedContact() (model.Contact, bool) {
	if m.Contacts.SelectedID != "" {
		if c, ok := m.deps.Cache.ContactByID(m.Contacts.SelectedID); ok {
			return c, true
		}
	}
	return m.contactAtCursor()
}

func (m Model) renderContactsView() (string, string) {
	cursorID := ""
	if rows := m.sortedContacts(); m.Contacts.Cursor < len(rows) {
		cursorID = rows[m.Contacts.Cursor].ID
	}
	list := views.RenderContactList(projector.ContactList(m.deps.Cache.Contacts(), cursorID))
	var detail projector.ContactDetailView
	if c, ok := m.deps.Cache.ContactByID(m.Contacts.SelectedID); ok && m.Contacts.SelectedID != "" {
		detail = projector.ContactDetail(c)
	}
	return list, views.RenderContactDetail(detail)
}
