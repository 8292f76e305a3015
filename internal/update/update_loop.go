package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/mutation"
	"github.com/sandeepkv93/joinboard/internal/projector"
	"github.com/sandeepkv93/joinboard/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.reloadCmd()}
	if m.deps.Deadlines != nil {
		cmds = append(cmds, waitForDeadlineCmd(m.deps.Deadlines.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.detailViewport.Width = max(typed.Width/2, 40)
		m.detailViewport.Height = max(typed.Height-10, 10)
		return m, nil
	case spinner.TickMsg:
		if m.Pending > 0 {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case SwitchViewMsg:
		m.switchView(typed.View)
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.fail(typed.Err)
		return m, nil
	case DataLoadedMsg:
		m.settle()
		if typed.Err != nil {
			m.fail(fmt.Errorf("load board: %w", typed.Err))
			return m, nil
		}
		m.applyGeneration(typed.Generation)
		return m, nil
	case DataChangedMsg:
		m.applyGeneration(typed.Generation)
		return m, nil
	case MutationDoneMsg:
		m.settle()
		return m.onMutationDone(typed), nil
	case SessionMsg:
		m.settle()
		return m.onSession(typed)
	case SignedUpMsg:
		m.settle()
		return m.onSignedUp(typed), nil
	case DeadlineDueMsg:
		m.DeadlineLog = append(m.DeadlineLog, typed.Due)
		if len(m.DeadlineLog) > 20 {
			m.DeadlineLog = m.DeadlineLog[len(m.DeadlineLog)-20:]
		}
		m.notify("Deadline", fmt.Sprintf("%s is due today", typed.Due.Title), "warn")
		if m.deps.Deadlines != nil {
			return m, waitForDeadlineCmd(m.deps.Deadlines.C())
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) settle() {
	if m.Pending > 0 {
		m.Pending--
	}
}

func (m *Model) applyGeneration(gen uint64) {
	if gen > m.Generation {
		m.Generation = gen
	}
	m.clampCursors()
	m.refreshDetail()
	m.scheduleDeadlines()
}

func (m *Model) fail(err error) {
	m.LastError = err
	if err == nil {
		return
	}
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.notify("Error", err.Error(), "error")
}

func (m Model) onMutationDone(done MutationDoneMsg) Model {
	if done.Err != nil {
		if fields, ok := fieldErrors(done.Err); ok && m.Form != nil {
			m.Form.Errors = fields
			m.Status = StatusBar{Text: "please fix the highlighted fields", IsError: true}
			return m
		}
		if errors.Is(done.Err, mutation.ErrTaskNotFound) && m.Detail.Open {
			m.Detail = DetailState{}
		}
		m.fail(fmt.Errorf("%s: %w", done.Op, done.Err))
		return m
	}
	if done.CloseForm {
		m.Form = nil
	}
	m.LastError = nil
	m.Status = StatusBar{Text: done.Message}
	m.notify("Saved", done.Message, "info")
	m.applyGeneration(m.deps.Cache.Generation())
	return m
}

func (m *Model) switchView(v View) {
	if !isKnownView(v) || v == ViewLogin {
		return
	}
	if !m.Session.Active() {
		m.Status = StatusBar{Text: "log in or continue as guest first", IsError: true}
		return
	}
	m.CurrentView = v
	m.Detail = DetailState{}
	m.Drag.End()
	m.MoveMenu.OutsideClick()
}

// handleKey routes keys to whatever owns the keyboard: the palette, an open form,
// the login screen, the search input, an overlay, then the current view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	if m.Form != nil {
		return m.handleFormKey(msg)
	}
	if m.CurrentView == ViewLogin {
		return m.handleLoginKey(msg)
	}
	if m.Board.Searching {
		return m.handleSearchKey(msg), nil
	}
	if m.MoveMenu.IsOpen() {
		return m.handleMoveMenuKey(msg)
	}

	switch keyStr {
	case m.Keys.Palette:
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		m.Drag.End()
		return m, nil
	case m.Keys.Summary:
		m.switchView(ViewSummary)
		return m, nil
	case m.Keys.Board:
		m.switchView(ViewBoard)
		return m, nil
	case m.Keys.Contacts:
		m.switchView(ViewContacts)
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
		return m, nil
	case m.Keys.Reload:
		m.Status = StatusBar{Text: "reloading"}
		cmd := m.reloadCmd()
		return m, cmd
	case m.Keys.Logout:
		return m.logout()
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewSummary:
		if keyStr == "enter" {
			m.switchView(ViewBoard)
		}
		return m, nil
	case ViewBoard:
		if m.Detail.Open {
			return m.handleDetailKey(msg)
		}
		return m.handleBoardKey(msg)
	case ViewContacts:
		return m.handleContactsKey(msg)
	}
	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	if m.Pending > 0 {
		status = strings.TrimSpace(status + " " + m.syncSpinner.View() + " syncing")
	}

	data := views.AppData{
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer:       m.footer(),
	}

	if m.CurrentView == ViewLogin {
		data.Header = "Join"
		data.Body = m.renderLoginView()
		return views.RenderApp(data)
	}

	header := projector.Header(m.Session, m.deps.Cache.Users())
	data.Header = fmt.Sprintf("Join | %s", header.Initials)
	data.Tabs = []string{string(ViewSummary), string(ViewBoard), string(ViewContacts)}
	data.ActiveTab = string(m.CurrentView)

	switch m.CurrentView {
	case ViewSummary:
		name := header.Name
		if header.Guest {
			name = ""
		}
		data.Body = views.RenderSummary(projector.Summary(m.deps.Cache.Tasks(), m.now(), name))
	case ViewBoard:
		data.Body = m.renderBoardView()
		if m.Detail.Open {
			data.Side = m.detailViewport.View()
		}
	case ViewContacts:
		data.Body, data.Side = m.renderContactsView()
	}

	switch {
	case m.Palette.Active:
		data.Overlay = views.RenderCommandPalette(true, m.commandInput.View())
	case m.Form != nil:
		data.Overlay = m.renderForm()
	case m.MoveMenu.IsOpen():
		data.Overlay = m.renderMoveMenu()
	}
	if m.HelpVisible {
		data.Side = strings.TrimSpace(data.Side + "\n" + m.renderHelpView())
	}
	return views.RenderApp(data)
}

func (m Model) footer() string {
	if m.CurrentView == ViewLogin {
		return "keys: tab next | enter submit | ctrl+r remember me | ctrl+g guest | ctrl+n sign up/log in | ctrl+c quit"
	}
	return fmt.Sprintf("keys: %s summary | %s board | %s contacts | %s cmd | %s reload | %s help | %s logout | %s quit",
		m.Keys.Summary, m.Keys.Board, m.Keys.Contacts, m.Keys.Palette, m.Keys.Reload, m.Keys.Help, m.Keys.Logout, m.Keys.Quit)
}

func isKnownView(v View) bool {
	switch v {
	case ViewLogin, ViewSummary, ViewBoard, ViewContacts:
		return true
	default:
		return false
	}
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}
