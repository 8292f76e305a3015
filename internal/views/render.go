package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header       string
	Tabs         []string
	ActiveTab    string
	Body         string
	Side         string
	StatusLine   string
	StatusError  bool
	Overlay      string
	Footer       string
	Notification string
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activePanel    = panelStyle.BorderForeground(lipgloss.Color("12"))
	dropPanel      = panelStyle.BorderForeground(lipgloss.Color("11")).BorderStyle(lipgloss.DoubleBorder())
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8"))
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("#2A3647"))
)

func RenderApp(data AppData) string {
	header := headerStyle.Render(data.Header)
	if len(data.Tabs) > 0 {
		tabs := make([]string, 0, len(data.Tabs))
		for _, tab := range data.Tabs {
			if tab == data.ActiveTab {
				tabs = append(tabs, activeTabStyle.Render(tab))
				continue
			}
			tabs = append(tabs, tabStyle.Render(tab))
		}
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", strings.Join(tabs, " "))
	}

	body := data.Body
	if data.Side != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panelStyle.Width(44).Render(data.Side))
	}

	status := statusStyle.Render(data.StatusLine)
	if data.StatusError {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{header, body}
	if data.Overlay != "" {
		lines = append(lines, activePanel.Render(data.Overlay))
	}
	lines = append(lines, status)
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nglobal:\n%s\n%s view:\n%s",
		data.HelpView,
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
	)
}

// swatch renders text on a hex background; an empty color renders plain text.
func swatch(text, hex string) string {
	if strings.TrimSpace(hex) == "" {
		return "[" + text + "]"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Render(text)
}
