package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/projector"
)

const columnWidth = 30

type BoardData struct {
	Board projector.BoardView
	// Cursor is the focused column and card; Card is -1 for an empty column.
	CursorColumn int
	CursorCard   int
	// Dragging is the id of the picked up task, 0 when idle.
	Dragging  int64
	DropZone  model.Status
	SearchBar string
}

func RenderBoard(data BoardData) string {
	cols := make([]string, 0, len(data.Board.Columns))
	for i, col := range data.Board.Columns {
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Cards))))
		b.WriteString("\n")
		if col.Placeholder != "" {
			b.WriteString(mutedStyle.Render(col.Placeholder))
		}
		for j, card := range col.Cards {
			cursor := i == data.CursorColumn && j == data.CursorCard
			b.WriteString(RenderCard(card, cursor, card.TaskID == data.Dragging))
			b.WriteString("\n")
		}

		style := panelStyle
		switch {
		case data.Dragging != 0 && col.Status == data.DropZone:
			style = dropPanel
		case i == data.CursorColumn:
			style = activePanel
		}
		cols = append(cols, style.Width(columnWidth).Render(strings.TrimRight(b.String(), "\n")))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if data.Board.NoResults {
		out = errorStyle.Render(fmt.Sprintf("No results found for %q", data.Board.Query)) + "\n" + out
	}
	if data.SearchBar != "" {
		out = data.SearchBar + "\n" + out
	}
	return out
}

// RenderCard draws one board card. Cards without subtasks have no progress line.
func RenderCard(card projector.CardView, cursor, dragging bool) string {
	var lines []string
	head := " "
	if cursor {
		head = ">"
	}
	if dragging {
		head = "~"
	}
	if !card.Category.IsZero() {
		lines = append(lines, head+" "+swatch(card.Category.Label, card.Category.Color))
	} else {
		lines = append(lines, head)
	}
	lines = append(lines, "  "+titleStyle.Render(card.Title))
	if card.Description != "" {
		lines = append(lines, "  "+mutedStyle.Render(card.Description))
	}
	if card.Progress != nil {
		lines = append(lines, "  "+RenderProgress(*card.Progress, 12))
	}

	var foot []string
	for _, a := range card.Assignees {
		foot = append(foot, swatch(a.Initials, a.Color))
	}
	if card.Overflow > 0 {
		foot = append(foot, fmt.Sprintf("+%d", card.Overflow))
	}
	if !card.Priority.IsZero() {
		foot = append(foot, lipgloss.NewStyle().Foreground(lipgloss.Color(card.Priority.Color)).Render(card.Priority.Label))
	}
	if len(foot) > 0 {
		lines = append(lines, "  "+strings.Join(foot, " "))
	}
	return strings.Join(lines, "\n")
}

func RenderProgress(p projector.Progress, width int) string {
	bar := progress.New(progress.WithSolidFill("#4589FF"), progress.WithoutPercentage(), progress.WithWidth(width))
	return fmt.Sprintf("%s %d/%d Subtasks", bar.ViewAs(float64(p.Percent)/100), p.Done, p.Total)
}

type MoveOverlayData struct {
	TaskTitle string
	Options   []model.Status
	Cursor    int
}

func RenderMoveOverlay(data MoveOverlayData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Move "+data.TaskTitle+" to") + "\n")
	for i, status := range data.Options {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", cursor, status.Label()))
	}
	b.WriteString(footerStyle.Render("[enter] move  [esc] close"))
	return b.String()
}
