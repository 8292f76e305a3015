package update

import (
	"strings"

	"github.com/sandeepkv93/joinboard/internal/views"
)

const maxNotifications = 40

// notify records a notification and forwards warnings and errors to the desktop
// when enabled.
func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
	if m.DesktopEnabled && m.notifier != nil && level != "info" {
		if err := m.notifier.Send(n); err != nil {
			m.deps.Logger.WithError(err).Debug("desktop notification failed")
		}
	}
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}
