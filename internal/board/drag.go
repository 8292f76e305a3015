// Package board holds the two ways of moving a card between columns: drag and drop
// and the "move to" overlay. Both yield a Move for the mutation coordinator.
package board

import "github.com/sandeepkv93/joinboard/internal/model"

// Container names a drop zone on the board.
type Container string

const (
	ContainerToDo          Container = "toDo"
	ContainerInProgress    Container = "inProgress"
	ContainerAwaitFeedback Container = "awaitFeedback"
	ContainerDone          Container = "done"
)

var containerStatus = map[Container]model.Status{
	ContainerToDo:          model.StatusToDo,
	ContainerInProgress:    model.StatusInProgress,
	ContainerAwaitFeedback: model.StatusAwaitFeedback,
	ContainerDone:          model.StatusDone,
}

// StatusFor resolves a drop zone to the status it stands for.
func StatusFor(c Container) (model.Status, bool) {
	s, ok := containerStatus[c]
	return s, ok
}

// ContainerFor is the inverse of StatusFor.
func ContainerFor(s model.Status) (Container, bool) {
	for c, status := range containerStatus {
		if status == s {
			return c, true
		}
	}
	return "", false
}

// Containers lists the drop zones in column order.
func Containers() []Container {
	return []Container{ContainerToDo, ContainerInProgress, ContainerAwaitFeedback, ContainerDone}
}

type Move struct {
	TaskID int64
	Status model.Status
}

type DragState int

const (
	Idle DragState = iota
	Dragging
)

// Drag tracks one drag gesture. The zero value is Idle.
type Drag struct {
	state     DragState
	taskID    int64
	highlight Container
	rotated   bool
}

func (d *Drag) State() DragState     { return d.state }
func (d *Drag) TaskID() int64        { return d.taskID }
func (d *Drag) Highlight() Container { return d.highlight }
func (d *Drag) Rotated() bool        { return d.rotated }

// Start picks up a task. Starting while already dragging replaces the dragged task.
func (d *Drag) Start(taskID int64) {
	d.state = Dragging
	d.taskID = taskID
	d.highlight = ""
	d.rotated = true
}

// Over highlights the hovered drop zone while dragging.
func (d *Drag) Over(c Container) {
	if d.state != Dragging {
		return
	}
	d.highlight = c
}

// Leave clears the highlight when leaving the highlighted zone.
func (d *Drag) Leave(c Container) {
	if d.highlight == c {
		d.highlight = ""
	}
}

// Drop ends the gesture on c. An unknown container or an idle machine yields no move.
func (d *Drag) Drop(c Container) (Move, bool) {
	if d.state != Dragging {
		d.End()
		return Move{}, false
	}
	taskID := d.taskID
	d.End()
	status, ok := StatusFor(c)
	if !ok {
		return Move{}, false
	}
	return Move{TaskID: taskID, Status: status}, true
}

// End resets the machine to Idle. It is safe to call repeatedly.
func (d *Drag) End() {
	*d = Drag{}
}

// MoveOverlay is the "move to" menu opened from a card.
type MoveOverlay struct {
	open   bool
	taskID int64
}

func (o *MoveOverlay) IsOpen() bool  { return o.open }
func (o *MoveOverlay) TaskID() int64 { return o.taskID }

func (o *MoveOverlay) Open(taskID int64) {
	o.open = true
	o.taskID = taskID
}

// Choose closes the overlay and returns the move. A closed overlay or an invalid
// status yields no move.
func (o *MoveOverlay) Choose(status model.Status) (Move, bool) {
	if !o.open {
		return Move{}, false
	}
	taskID := o.taskID
	o.OutsideClick()
	if !status.IsValid() {
		return Move{}, false
	}
	return Move{TaskID: taskID, Status: status}, true
}

// OutsideClick closes the overlay without moving.
func (o *MoveOverlay) OutsideClick() {
	*o = MoveOverlay{}
}

// Options lists the statuses the overlay offers, excluding current.
func Options(current model.Status) []model.Status {
	out := make([]model.Status, 0, 3)
	for _, s := range model.Statuses() {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}
