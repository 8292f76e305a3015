package update

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/auth"
	"github.com/sandeepkv93/joinboard/internal/board"
	"github.com/sandeepkv93/joinboard/internal/cache"
	"github.com/sandeepkv93/joinboard/internal/deadline"
	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/mutation"
)

type View string

const (
	ViewLogin    View = "Login"
	ViewSummary  View = "Summary"
	ViewBoard    View = "Board"
	ViewContacts View = "Contacts"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Summary  string
	Board    string
	Contacts string
	Palette  string
	Help     string
	Reload   string
	Logout   string
	Quit     string
}

// Deps are the services the UI drives. Cache and Mutations are required.
type Deps struct {
	Context   context.Context
	Cache     *cache.Collections
	Mutations *mutation.Coordinator
	Auth      *auth.Service
	Deadlines *deadline.Engine
	Notifier  DesktopNotifier
	Logger    log.FieldLogger
	Now       func() time.Time

	DesktopNotifications bool
}

type BoardState struct {
	Column int
	Card   int
	Query  string
	// Searching is true while the search input has focus.
	Searching bool
}

type DetailState struct {
	Open          bool
	FirebaseID    string
	SubtaskCursor int
}

type MoveMenuState struct {
	board.MoveOverlay
	Options []model.Status
	Cursor  int
}

type ContactsState struct {
	Cursor     int
	SelectedID string
}

type formKind int

const (
	formTask formKind = iota + 1
	formContact
)

// FormState is the open add/edit overlay. Inputs map one to one onto the form's
// text fields; the assignee picker has no input.
type FormState struct {
	Kind      formKind
	Task      *forms.TaskForm
	Status    model.Status
	ContactID string
	Focus     int
	// PickerCursor indexes the contact list in the assignee picker.
	PickerCursor int
	Errors       forms.FieldErrors
	inputs       []textinput.Model
}

type LoginState struct {
	Signup   bool
	Focus    int
	Remember bool
	Privacy  bool
	Errors   forms.FieldErrors
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	CurrentView    View
	Session        model.Session
	Board          BoardState
	Drag           board.Drag
	MoveMenu       MoveMenuState
	Detail         DetailState
	Contacts       ContactsState
	Form           *FormState
	Login          LoginState
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DeadlineLog    []deadline.Due
	DesktopEnabled bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	// Pending counts store operations in flight.
	Pending    int
	Generation uint64

	deps     Deps
	notifier DesktopNotifier

	searchInput    textinput.Model
	commandInput   textinput.Model
	loginInputs    []textinput.Model
	syncSpinner    spinner.Model
	helpModel      help.Model
	detailViewport viewport.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// DataLoadedMsg reports a finished reload of every collection.
type DataLoadedMsg struct {
	Generation uint64
	Err        error
}

// DataChangedMsg is sent when a write elsewhere replaced the cached snapshot.
type DataChangedMsg struct {
	Generation uint64
}

// MutationDoneMsg reports the end of one store write started by the UI.
type MutationDoneMsg struct {
	Op      string
	Message string
	Err     error
	// CloseForm closes the open form on success.
	CloseForm bool
}

type SessionMsg struct {
	Session model.Session
	Err     error
}

type DeadlineDueMsg struct {
	Due deadline.Due
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// NewModel starts on the summary for an active session and on the login screen
// otherwise.
func NewModel(deps Deps, session model.Session) Model {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	m := Model{
		CurrentView:    ViewLogin,
		Session:        session,
		DesktopEnabled: deps.DesktopNotifications,
		deps:           deps,
		notifier:       NoopDesktopNotifier{},
		Keys: GlobalKeyMap{
			Summary:  "1",
			Board:    "2",
			Contacts: "3",
			Palette:  "/",
			Help:     "?",
			Reload:   "R",
			Logout:   "ctrl+l",
			Quit:     "q",
		},
	}
	if deps.Notifier != nil {
		m.notifier = deps.Notifier
	}
	if session.Active() {
		m.CurrentView = ViewSummary
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.searchInput = textinput.New()
	m.searchInput.Prompt = "Find Task: "
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 40

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 60

	m.loginInputs = newLoginInputs(false)

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(60, 18)
}

func newLoginInputs(signup bool) []textinput.Model {
	labels := []string{"Email", "Password"}
	if signup {
		labels = []string{"Name", "Email", "Password", "Confirm Password"}
	}
	out := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = label
		ti.CharLimit = 128
		ti.Width = 36
		if strings.Contains(label, "Password") {
			ti.EchoMode = textinput.EchoPassword
		}
		out[i] = ti
	}
	out[0].Focus()
	return out
}

func (m Model) now() time.Time {
	return m.deps.Now()
}
