package update

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/joinboard/internal/deadline"
	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/mutation"
)

func (m *Model) reloadCmd() tea.Cmd {
	ctx, c := m.deps.Context, m.deps.Cache
	return m.track(func() tea.Msg {
		gen, err := c.Reload(ctx)
		return DataLoadedMsg{Generation: gen, Err: err}
	})
}

// mutate runs fn off the UI loop and reports back with a MutationDoneMsg.
func (m *Model) mutate(op, done string, closeForm bool, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.deps.Context
	return m.track(func() tea.Msg {
		err := fn(ctx)
		return MutationDoneMsg{Op: op, Message: done, Err: err, CloseForm: closeForm}
	})
}

// track counts cmd as pending and starts the spinner for the first one.
func (m *Model) track(cmd tea.Cmd) tea.Cmd {
	m.Pending++
	if m.Pending == 1 {
		return tea.Batch(cmd, m.syncSpinner.Tick)
	}
	return cmd
}

func waitForDeadlineCmd(ch <-chan deadline.Due) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return nil
		}
		return DeadlineDueMsg{Due: d}
	}
}

func (m *Model) scheduleDeadlines() {
	if m.deps.Deadlines == nil {
		return
	}
	if err := m.deps.Deadlines.Replace(deadline.EventsFor(m.deps.Cache.Tasks(), m.now())); err != nil {
		m.deps.Logger.WithError(err).Warn("replace deadline schedule failed")
	}
}

// fieldErrors extracts field messages from a validation failure.
func fieldErrors(err error) (forms.FieldErrors, bool) {
	var ve *mutation.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
