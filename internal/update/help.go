package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/joinboard/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpView() string {
	global := toBindings(m.globalBindings())
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: global,
			full:  [][]key.Binding{global, toBindings(m.viewBindings())},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Summary, Action: "summary"},
		{Key: m.Keys.Board, Action: "board"},
		{Key: m.Keys.Contacts, Action: "contacts"},
		{Key: m.Keys.Palette, Action: "command palette"},
		{Key: m.Keys.Reload, Action: "reload"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Logout, Action: "log out"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewSummary:
		return []KeyBinding{{Key: "enter", Action: "open board"}}
	case ViewBoard:
		if m.Detail.Open {
			return []KeyBinding{
				{Key: "j/k", Action: "move subtask cursor"},
				{Key: "space", Action: "toggle subtask"},
				{Key: "e", Action: "edit task"},
				{Key: "m", Action: "move to column"},
				{Key: "x", Action: "delete task"},
				{Key: "pgup/pgdn", Action: "scroll"},
				{Key: "esc", Action: "close detail"},
			}
		}
		return []KeyBinding{
			{Key: "h/l", Action: "previous/next column"},
			{Key: "j/k", Action: "move card cursor"},
			{Key: "enter", Action: "open task"},
			{Key: "space", Action: "pick up / drop card"},
			{Key: "m", Action: "move card via menu"},
			{Key: "f", Action: "find task"},
			{Key: "n/a", Action: "add task to column / to do"},
			{Key: "esc", Action: "cancel drag / clear search"},
		}
	case ViewContacts:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "enter", Action: "show contact"},
			{Key: "n", Action: "add contact"},
			{Key: "e", Action: "edit contact"},
			{Key: "x", Action: "delete contact"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func toBindings(kbs []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
