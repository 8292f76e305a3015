package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/board"
	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/projector"
	"github.com/sandeepkv93/joinboard/internal/views"
)

func (m Model) boardView() projector.BoardView {
	return projector.Board(m.deps.Cache.Tasks(), m.deps.Cache.Contacts(), m.Board.Query)
}

func (m Model) selectedCard() (projector.CardView, bool) {
	b := m.boardView()
	if m.Board.Column < 0 || m.Board.Column >= len(b.Columns) {
		return projector.CardView{}, false
	}
	cards := b.Columns[m.Board.Column].Cards
	if m.Board.Card < 0 || m.Board.Card >= len(cards) {
		return projector.CardView{}, false
	}
	return cards[m.Board.Card], true
}

func (m *Model) clampCursors() {
	b := m.boardView()
	if m.Board.Column >= len(b.Columns) {
		m.Board.Column = len(b.Columns) - 1
	}
	if m.Board.Column < 0 {
		m.Board.Column = 0
	}
	if len(b.Columns) > 0 {
		n := len(b.Columns[m.Board.Column].Cards)
		if m.Board.Card >= n {
			m.Board.Card = n - 1
		}
		if m.Board.Card < 0 && n > 0 {
			m.Board.Card = 0
		}
	}

	contacts := m.deps.Cache.Contacts()
	if m.Contacts.Cursor >= len(contacts) {
		m.Contacts.Cursor = len(contacts) - 1
	}
	if m.Contacts.Cursor < 0 {
		m.Contacts.Cursor = 0
	}
}

func (m *Model) moveColumn(delta int) {
	cols := len(model.Statuses())
	m.Board.Column = (m.Board.Column + delta + cols) % cols
	m.Board.Card = 0
	m.clampCursors()
	if m.Drag.State() == board.Dragging {
		if c, ok := board.ContainerFor(model.Statuses()[m.Board.Column]); ok {
			m.Drag.Over(c)
		}
	}
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dragging := m.Drag.State() == board.Dragging
	switch msg.String() {
	case "h", "left":
		m.moveColumn(-1)
	case "l", "right":
		m.moveColumn(1)
	case "j", "down":
		if !dragging {
			m.Board.Card++
			m.clampCursors()
		}
	case "k", "up":
		if !dragging && m.Board.Card > 0 {
			m.Board.Card--
		}
	case " ":
		if dragging {
			return m.drop()
		}
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.Drag.Start(card.TaskID)
		if c, ok := board.ContainerFor(card.Status); ok {
			m.Drag.Over(c)
		}
		m.Status = StatusBar{Text: fmt.Sprintf("dragging %q: h/l to choose a column, space to drop, esc to cancel", card.Title)}
	case "enter":
		if dragging {
			return m.drop()
		}
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.Detail = DetailState{Open: true, FirebaseID: card.FirebaseID}
		m.refreshDetail()
	case "esc":
		if dragging {
			m.Drag.End()
			m.Status = StatusBar{Text: "drag cancelled"}
		} else if m.Board.Query != "" {
			m.Board.Query = ""
			m.searchInput.SetValue("")
			m.clampCursors()
		}
	case "m":
		if card, ok := m.selectedCard(); ok && !dragging {
			m.openMoveMenu(card.TaskID, card.Status)
		}
	case "f":
		m.Board.Searching = true
		m.searchInput.SetValue(m.Board.Query)
		m.searchInput.Focus()
	case "n":
		// New task in the focused column.
		m.openTaskForm(forms.NewTaskForm(), model.Statuses()[m.Board.Column])
	case "a":
		m.openTaskForm(forms.NewTaskForm(), model.StatusToDo)
	}
	return m, nil
}

func (m Model) drop() (tea.Model, tea.Cmd) {
	container, _ := board.ContainerFor(model.Statuses()[m.Board.Column])
	mv, ok := m.Drag.Drop(container)
	if !ok {
		return m, nil
	}
	return m.applyMove(mv)
}

func (m Model) applyMove(mv board.Move) (tea.Model, tea.Cmd) {
	task, ok := m.deps.Cache.TaskByID(mv.TaskID)
	if !ok {
		m.fail(fmt.Errorf("move: task %d is no longer on the board", mv.TaskID))
		return m, nil
	}
	// A drop on the task's own column still writes, sending the card to the column end.
	fid, status := task.FirebaseID, mv.Status
	done := fmt.Sprintf("moved %q to %s", task.Title, status.Label())
	cmd := m.mutate("move task", done, false, func(ctx context.Context) error {
		return m.deps.Mutations.MoveTask(ctx, fid, status)
	})
	return m, cmd
}

func (m *Model) openMoveMenu(taskID int64, current model.Status) {
	m.MoveMenu.Open(taskID)
	m.MoveMenu.Options = board.Options(current)
	m.MoveMenu.Cursor = 0
}

func (m Model) handleMoveMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.MoveMenu.Cursor < len(m.MoveMenu.Options)-1 {
			m.MoveMenu.Cursor++
		}
	case "k", "up":
		if m.MoveMenu.Cursor > 0 {
			m.MoveMenu.Cursor--
		}
	case "enter":
		if m.MoveMenu.Cursor >= len(m.MoveMenu.Options) {
			m.MoveMenu.OutsideClick()
			return m, nil
		}
		mv, ok := m.MoveMenu.Choose(m.MoveMenu.Options[m.MoveMenu.Cursor])
		if !ok {
			return m, nil
		}
		return m.applyMove(mv)
	case "esc", "q":
		m.MoveMenu.OutsideClick()
	}
	return m, nil
}

func (m Model) renderMoveMenu() string {
	title := ""
	if t, ok := m.deps.Cache.TaskByID(m.MoveMenu.TaskID()); ok {
		title = t.Title
	}
	return views.RenderMoveOverlay(views.MoveOverlayData{
		TaskTitle: title,
		Options:   m.MoveMenu.Options,
		Cursor:    m.MoveMenu.Cursor,
	})
}

func (m Model) handleSearchKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Board.Searching = false
		m.searchInput.Blur()
		return m
	case "enter":
		m.Board.Searching = false
		m.searchInput.Blur()
	default:
		m.searchInput = typeInto(m.searchInput, msg)
	}
	m.Board.Query = m.searchInput.Value()
	m.Board.Card = 0
	m.clampCursors()
	return m
}

func (m Model) renderBoardView() string {
	data := views.BoardData{
		Board:        m.boardView(),
		CursorColumn: m.Board.Column,
		CursorCard:   m.Board.Card,
	}
	if m.Drag.State() == board.Dragging {
		data.Dragging = m.Drag.TaskID()
		if s, ok := board.StatusFor(m.Drag.Highlight()); ok {
			data.DropZone = s
		}
	}
	if m.Board.Searching || m.Board.Query != "" {
		data.SearchBar = m.searchInput.View()
	}
	return views.RenderBoard(data)
}

// refreshDetail re-renders the open detail pane from the cache and closes it when
// the task is gone.
func (m *Model) refreshDetail() {
	if !m.Detail.Open {
		return
	}
	task, ok := m.deps.Cache.TaskByFirebaseID(m.Detail.FirebaseID)
	if !ok {
		m.Detail = DetailState{}
		return
	}
	detail := projector.TaskDetail(task, m.deps.Cache.Contacts())
	if m.Detail.SubtaskCursor >= len(detail.Subtasks) {
		m.Detail.SubtaskCursor = len(detail.Subtasks) - 1
	}
	if m.Detail.SubtaskCursor < 0 {
		m.Detail.SubtaskCursor = 0
	}
	m.detailViewport.SetContent(views.RenderTaskDetail(views.TaskDetailData{
		Detail:        detail,
		SubtaskCursor: m.Detail.SubtaskCursor,
		Markdown:      true,
	}))
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := m.deps.Cache.TaskByFirebaseID(m.Detail.FirebaseID)
	if !ok {
		m.Detail = DetailState{}
		return m, nil
	}
	subtasks := projector.TaskDetail(task, nil).Subtasks
	switch msg.String() {
	case "esc":
		m.Detail = DetailState{}
	case "j", "down":
		if m.Detail.SubtaskCursor < len(subtasks)-1 {
			m.Detail.SubtaskCursor++
			m.refreshDetail()
		}
	case "k", "up":
		if m.Detail.SubtaskCursor > 0 {
			m.Detail.SubtaskCursor--
			m.refreshDetail()
		}
	case " ":
		if len(subtasks) == 0 {
			return m, nil
		}
		fid, sid := task.FirebaseID, subtasks[m.Detail.SubtaskCursor].Key
		cmd := m.mutate("toggle subtask", "subtask updated", false, func(ctx context.Context) error {
			return m.deps.Mutations.ToggleSubtask(ctx, fid, sid)
		})
		return m, cmd
	case "e":
		m.openTaskForm(forms.EditTaskForm(task), task.Status)
	case "m":
		m.openMoveMenu(task.ID, task.Status)
	case "x":
		fid, title := task.FirebaseID, task.Title
		m.Detail = DetailState{}
		cmd := m.mutate("delete task", fmt.Sprintf("deleted %q", title), false, func(ctx context.Context) error {
			return m.deps.Mutations.DeleteTask(ctx, fid)
		})
		return m, cmd
	default:
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}
