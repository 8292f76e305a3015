// Package deadline fires an event when a task's due date arrives.
package deadline

import (
	"container/heap"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/joinboard/internal/model"
)

var (
	ErrInvalidDueTime = errors.New("deadline: invalid due time")
	ErrStopped        = errors.New("deadline: engine stopped")
)

const dateLayout = "2006-01-02"

type Due struct {
	TaskID int64
	Title  string
	DueAt  time.Time
}

type dueQueue []Due

func (q dueQueue) Len() int { return len(q) }

func (q dueQueue) Less(i, j int) bool {
	if q[i].DueAt.Equal(q[j].DueAt) {
		return q[i].TaskID < q[j].TaskID
	}
	return q[i].DueAt.Before(q[j].DueAt)
}

func (q dueQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *dueQueue) Push(x any) { *q = append(*q, x.(Due)) }

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Engine is a single timer goroutine over a min-heap of due times. Events are sent
// without blocking; when the buffer is full they are counted in Dropped.
type Engine struct {
	mu      sync.Mutex
	queue   dueQueue
	out     chan Due
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
	now     func() time.Time
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		out:    make(chan Due, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

// C is closed after Stop.
func (e *Engine) C() <-chan Due {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(d Due) error {
	if d.DueAt.IsZero() {
		return ErrInvalidDueTime
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	heap.Push(&e.queue, d)
	e.signalWakeup()
	return nil
}

// Replace swaps the whole schedule. Events with a zero due time are skipped.
func (e *Engine) Replace(events []Due) error {
	next := make(dueQueue, 0, len(events))
	for _, d := range events {
		if !d.DueAt.IsZero() {
			next = append(next, d)
		}
	}
	heap.Init(&next)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.queue = next
	e.signalWakeup()
	return nil
}

// Pending reports how many events are still scheduled.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, ok := e.peek()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.DueAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, d := range e.popDue(e.now()) {
				select {
				case e.out <- d:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Due, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Due{}, false
	}
	return e.queue[0], true
}

func (e *Engine) popDue(now time.Time) []Due {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Due
	for len(e.queue) > 0 && !e.queue[0].DueAt.After(now) {
		out = append(out, heap.Pop(&e.queue).(Due))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// EventsFor builds the schedule for tasks that are not done and fall due after now.
// A due date fires at the start of its day in now's location.
func EventsFor(tasks []model.Task, now time.Time) []Due {
	out := make([]Due, 0, len(tasks))
	for _, t := range tasks {
		if status, ok := model.ParseStatus(string(t.Status)); ok && status == model.StatusDone {
			continue
		}
		at, err := time.ParseInLocation(dateLayout, strings.TrimSpace(t.DueDate), now.Location())
		if err != nil || !at.After(now) {
			continue
		}
		out = append(out, Due{TaskID: t.ID, Title: t.Title, DueAt: at})
	}
	return out
}
