package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/views"
)

// SignedUpMsg reports a finished signup. The user logs in afterwards.
type SignedUpMsg struct {
	Email string
	Err   error
}

var errNoAccounts = errors.New("accounts are not available")

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusLogin(m.Login.Focus + 1)
	case "shift+tab", "up":
		m.focusLogin(m.Login.Focus - 1)
	case "ctrl+r":
		m.Login.Remember = !m.Login.Remember
	case "ctrl+p":
		m.Login.Privacy = !m.Login.Privacy
	case "ctrl+n":
		m.resetLogin(!m.Login.Signup)
	case "ctrl+g":
		return m.loginAsGuest()
	case "enter":
		if m.Login.Signup {
			return m.submitSignup()
		}
		return m.submitLogin()
	default:
		i := m.Login.Focus
		m.loginInputs[i] = typeInto(m.loginInputs[i], msg)
	}
	return m, nil
}

func (m *Model) focusLogin(i int) {
	n := len(m.loginInputs)
	m.Login.Focus = (i + n) % n
	for j := range m.loginInputs {
		m.loginInputs[j].Blur()
	}
	m.loginInputs[m.Login.Focus].Focus()
}

func (m *Model) resetLogin(signup bool) {
	m.Login = LoginState{Signup: signup}
	m.loginInputs = newLoginInputs(signup)
}

func (m Model) loginValue(i int) string {
	return m.loginInputs[i].Value()
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	f := forms.LoginForm{Email: m.loginValue(0), Password: m.loginValue(1), RememberMe: m.Login.Remember}
	if errs := f.Validate(); len(errs) > 0 {
		m.Login.Errors = errs
		return m, nil
	}
	if m.deps.Auth == nil {
		m.fail(errNoAccounts)
		return m, nil
	}
	m.Login.Errors = nil
	ctx, svc := m.deps.Context, m.deps.Auth
	cmd := m.track(func() tea.Msg {
		s, err := svc.Login(ctx, f)
		return SessionMsg{Session: s, Err: err}
	})
	return m, cmd
}

func (m Model) submitSignup() (tea.Model, tea.Cmd) {
	f := forms.SignupForm{
		Name:     m.loginValue(0),
		Email:    m.loginValue(1),
		Password: m.loginValue(2),
		Confirm:  m.loginValue(3),
		Privacy:  m.Login.Privacy,
	}
	if m.deps.Auth == nil {
		m.fail(errNoAccounts)
		return m, nil
	}
	if errs := f.Validate(m.deps.Cache.Users()); len(errs) > 0 {
		m.Login.Errors = errs
		return m, nil
	}
	m.Login.Errors = nil
	ctx, svc := m.deps.Context, m.deps.Auth
	cmd := m.track(func() tea.Msg {
		u, err := svc.Signup(ctx, f)
		return SignedUpMsg{Email: u.Email, Err: err}
	})
	return m, cmd
}

func (m Model) loginAsGuest() (tea.Model, tea.Cmd) {
	s := model.Session{Guest: true}
	if m.deps.Auth != nil {
		s = m.deps.Auth.Guest()
	}
	return m.onSession(SessionMsg{Session: s})
}

func (m Model) onSignedUp(msg SignedUpMsg) Model {
	if msg.Err != nil {
		if fields, ok := fieldErrors(msg.Err); ok {
			m.Login.Errors = fields
			return m
		}
		m.fail(fmt.Errorf("sign up: %w", msg.Err))
		return m
	}
	m.resetLogin(false)
	m.loginInputs[0].SetValue(msg.Email)
	m.focusLogin(1)
	m.Status = StatusBar{Text: "You Signed Up successfully"}
	m.notify("Account", "You Signed Up successfully", "info")
	return m
}

func (m Model) onSession(msg SessionMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if fields, ok := fieldErrors(msg.Err); ok {
			m.Login.Errors = fields
			return m, nil
		}
		m.fail(fmt.Errorf("log in: %w", msg.Err))
		return m, nil
	}
	m.Session = msg.Session
	m.resetLogin(false)
	m.CurrentView = ViewSummary
	m.Status = StatusBar{Text: "welcome"}
	cmd := m.reloadCmd()
	return m, cmd
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if m.deps.Auth != nil {
		if err := m.deps.Auth.Logout(); err != nil {
			m.deps.Logger.WithError(err).Warn("clear session failed")
		}
	}
	m.Session = model.Session{}
	m.CurrentView = ViewLogin
	m.Form = nil
	m.Detail = DetailState{}
	m.Drag.End()
	m.MoveMenu.OutsideClick()
	m.resetLogin(false)
	m.Status = StatusBar{Text: "logged out"}
	return m, nil
}

func (m Model) renderLoginView() string {
	title := "Log in"
	labels := []string{"Email", "Password"}
	keys := []string{forms.FieldEmail, forms.FieldPassword}
	if m.Login.Signup {
		title = "Sign up"
		labels = []string{"Name", "Email", "Password", "Confirm"}
		keys = []string{forms.FieldName, forms.FieldEmail, forms.FieldPassword, forms.FieldConfirm}
	}
	data := views.FormData{Title: title}
	for i, label := range labels {
		data.Fields = append(data.Fields, views.FormFieldData{
			Label:   label,
			View:    m.loginInputs[i].View(),
			Error:   m.Login.Errors[keys[i]],
			Focused: m.Login.Focus == i,
		})
	}
	if m.Login.Signup {
		data.Fields = append(data.Fields, views.FormFieldData{
			Label: "Privacy",
			View:  checkbox(m.Login.Privacy) + " I accept the Privacy policy (ctrl+p)",
			Error: m.Login.Errors[forms.FieldPrivacy],
		})
		data.Hint = "ctrl+n back to log in"
	} else {
		data.Fields = append(data.Fields, views.FormFieldData{
			Label: "Remember",
			View:  checkbox(m.Login.Remember) + " Remember me (ctrl+r)",
		})
		data.Hint = strings.Join([]string{"ctrl+g guest log in", "ctrl+n sign up"}, " | ")
	}
	data.Error = m.Login.Errors[forms.FieldLogin]
	return views.RenderForm(data)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
