// Package mutation applies user edits to the remote store and refreshes the cache.
// Every operation validates, writes through, awaits a full reload and then notifies
// listeners. There is no rollback and no retry.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/cache"
	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
	"github.com/sandeepkv93/joinboard/internal/store"
)

var (
	ErrTaskNotFound    = errors.New("mutation: task not found")
	ErrContactNotFound = errors.New("mutation: contact not found")
	ErrSubtaskNotFound = errors.New("mutation: subtask not found")
	ErrNotEditing      = errors.New("mutation: form is not editing a stored task")
)

// ValidationError is returned before any I/O when a form is rejected.
type ValidationError struct {
	Fields forms.FieldErrors
}

func (e *ValidationError) Error() string {
	return "mutation: validation failed: " + e.Fields.Error()
}

// StoreError wraps a failed store call or reload.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("mutation: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("mutation: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithRand(r *rand.Rand) Option {
	return func(c *Coordinator) { c.rnd = r }
}

func WithIDs(next func() string) Option {
	return func(c *Coordinator) { c.newID = next }
}

type Coordinator struct {
	store store.Store
	cache *cache.Collections
	log   log.FieldLogger
	now   func() time.Time
	rnd   *rand.Rand
	newID func() string

	mu        sync.Mutex
	listeners []func(generation uint64)
}

func New(s store.Store, c *cache.Collections, logger log.FieldLogger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	co := &Coordinator{
		store: s,
		cache: c,
		log:   logger,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// OnChange registers fn to run after every successful write and reload.
func (c *Coordinator) OnChange(fn func(generation uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Coordinator) notify(gen uint64) {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(gen)
	}
}

func (c *Coordinator) fail(op, path string, err error) error {
	c.log.WithFields(log.Fields{"op": op, "path": path}).WithError(err).Error("store write failed")
	return &StoreError{Op: op, Path: path, Err: err}
}

// commit reloads every collection and notifies listeners.
func (c *Coordinator) commit(ctx context.Context, op string) error {
	gen, err := c.cache.Reload(ctx)
	if err != nil {
		return c.fail(op+": reload", "", err)
	}
	c.log.WithFields(log.Fields{"op": op, "generation": gen}).Debug("mutation applied")
	c.notify(gen)
	return nil
}

func taskPath(fid string) string {
	return store.Join(cache.PathTasks, fid)
}

func subtaskPath(fid, sid string) string {
	return store.Join(cache.PathTasks, fid, "Subtasks", sid)
}

func contactPath(id string) string {
	return store.Join(cache.PathContacts, id)
}

func (c *Coordinator) task(fid string) (model.Task, error) {
	task, ok := c.cache.TaskByFirebaseID(fid)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, fid)
	}
	return task, nil
}

// CreateTask posts a new task into the given column, "to do" when status is empty.
func (c *Coordinator) CreateTask(ctx context.Context, f *forms.TaskForm, status model.Status) (model.Task, error) {
	now := c.now()
	if errs := f.Validate(now); len(errs) > 0 {
		return model.Task{}, &ValidationError{Fields: errs}
	}
	task := f.Build(c.cache.Contacts(), status, now, c.rnd)
	key, err := c.store.Post(ctx, cache.PathTasks, task)
	if err != nil {
		return model.Task{}, c.fail("create task", cache.PathTasks, err)
	}
	task.FirebaseID = key
	c.log.WithFields(log.Fields{"op": "create task", "task_id": task.ID, "firebase_id": key}).Info("task created")
	return task, c.commit(ctx, "create task")
}

// EditTask writes the whole edited record, then deletes every subtask removed in the form.
func (c *Coordinator) EditTask(ctx context.Context, f *forms.TaskForm) error {
	if f.Mode != forms.ModeEdit || f.Initial == nil || f.Initial.FirebaseID == "" {
		return ErrNotEditing
	}
	now := c.now()
	if errs := f.Validate(now); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	task := f.Build(c.cache.Contacts(), f.Initial.Status, now, c.rnd)
	path := taskPath(task.FirebaseID)
	if _, err := c.store.Put(ctx, path, task); err != nil {
		return c.fail("edit task", path, err)
	}
	for _, sid := range f.Deleted {
		sp := subtaskPath(task.FirebaseID, sid)
		if err := c.store.Delete(ctx, sp); err != nil {
			return c.fail("edit task", sp, err)
		}
	}
	return c.commit(ctx, "edit task")
}

func (c *Coordinator) DeleteTask(ctx context.Context, fid string) error {
	if strings.TrimSpace(fid) == "" {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, fid)
	}
	path := taskPath(fid)
	if err := c.store.Delete(ctx, path); err != nil {
		return c.fail("delete task", path, err)
	}
	return c.commit(ctx, "delete task")
}

// MoveTask patches the status and refreshes the timestamp. Moving a task to its
// current column only refreshes the timestamp.
func (c *Coordinator) MoveTask(ctx context.Context, fid string, status model.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	if _, err := c.task(fid); err != nil {
		return err
	}
	path := taskPath(fid)
	patch := map[string]any{"Status": status, "timestamp": c.now().UnixMilli()}
	if _, err := c.store.Patch(ctx, path, patch); err != nil {
		return c.fail("move task", path, err)
	}
	return c.commit(ctx, "move task")
}

func (c *Coordinator) AddSubtask(ctx context.Context, fid, description string) (string, error) {
	task, err := c.task(fid)
	if err != nil {
		return "", err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return "", &ValidationError{Fields: forms.FieldErrors{forms.FieldSubtask: forms.MsgSubtaskEmpty}}
	}
	key := model.NewSubtaskID(c.now(), c.rnd)
	if task.Subtasks == nil {
		task.Subtasks = model.Subtasks{}
	}
	task.Subtasks[key] = model.Subtask{ID: key, Description: description}
	if err := c.putTask(ctx, "add subtask", task); err != nil {
		return "", err
	}
	return key, nil
}

func (c *Coordinator) EditSubtask(ctx context.Context, fid, sid, description string) error {
	task, err := c.task(fid)
	if err != nil {
		return err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return &ValidationError{Fields: forms.FieldErrors{forms.FieldSubtask: forms.MsgSubtaskEmpty}}
	}
	st, ok := task.Subtasks[sid]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSubtaskNotFound, sid)
	}
	st.Description = description
	task.Subtasks[sid] = st
	return c.putTask(ctx, "edit subtask", task)
}

func (c *Coordinator) DeleteSubtask(ctx context.Context, fid, sid string) error {
	if _, err := c.task(fid); err != nil {
		return err
	}
	path := subtaskPath(fid, sid)
	if err := c.store.Delete(ctx, path); err != nil {
		return c.fail("delete subtask", path, err)
	}
	return c.commit(ctx, "delete subtask")
}

// ToggleSubtask flips one subtask and writes the whole task.
func (c *Coordinator) ToggleSubtask(ctx context.Context, fid, sid string) error {
	task, err := c.task(fid)
	if err != nil {
		return err
	}
	st, ok := task.Subtasks[sid]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSubtaskNotFound, sid)
	}
	st.IsChecked = !st.IsChecked
	task.Subtasks[sid] = st
	return c.putTask(ctx, "toggle subtask", task)
}

func (c *Coordinator) putTask(ctx context.Context, op string, task model.Task) error {
	path := taskPath(task.FirebaseID)
	if _, err := c.store.Put(ctx, path, task); err != nil {
		return c.fail(op, path, err)
	}
	return c.commit(ctx, op)
}

// CreateContact stores a new contact under a fresh UUID with a random color.
func (c *Coordinator) CreateContact(ctx context.Context, f forms.ContactForm) (model.Contact, error) {
	if errs := f.Validate(c.cache.Contacts(), ""); len(errs) > 0 {
		return model.Contact{}, &ValidationError{Fields: errs}
	}
	n := f.Normalized()
	contact := model.Contact{
		ID:    c.newID(),
		Name:  n.Name,
		Email: n.Email,
		Phone: n.Phone,
		Color: model.RandomColor(c.rnd),
	}
	path := contactPath(contact.ID)
	if _, err := c.store.Put(ctx, path, contact); err != nil {
		return model.Contact{}, c.fail("create contact", path, err)
	}
	return contact, c.commit(ctx, "create contact")
}

// EditContact keeps the stored color and rewrites the contact's assignments in every task.
func (c *Coordinator) EditContact(ctx context.Context, id string, f forms.ContactForm) (model.Contact, error) {
	current, ok := c.cache.ContactByID(id)
	if !ok {
		return model.Contact{}, fmt.Errorf("%w: %q", ErrContactNotFound, id)
	}
	if errs := f.Validate(c.cache.Contacts(), id); len(errs) > 0 {
		return model.Contact{}, &ValidationError{Fields: errs}
	}
	n := f.Normalized()
	updated := current
	updated.Name, updated.Email, updated.Phone = n.Name, n.Email, n.Phone

	path := contactPath(id)
	if _, err := c.store.Put(ctx, path, updated); err != nil {
		return model.Contact{}, c.fail("edit contact", path, err)
	}
	err := c.rewriteAssignments(ctx, "edit contact", func(a model.Assignee) (model.Assignee, bool) {
		if a.ID != id {
			return a, true
		}
		return updated.Assignee(), true
	})
	if err != nil {
		return model.Contact{}, err
	}
	return updated, c.commit(ctx, "edit contact")
}

// DeleteContact removes the contact and strips it from every task's assignees.
func (c *Coordinator) DeleteContact(ctx context.Context, id string) error {
	if _, ok := c.cache.ContactByID(id); !ok {
		return fmt.Errorf("%w: %q", ErrContactNotFound, id)
	}
	path := contactPath(id)
	if err := c.store.Delete(ctx, path); err != nil {
		return c.fail("delete contact", path, err)
	}
	err := c.rewriteAssignments(ctx, "delete contact", func(a model.Assignee) (model.Assignee, bool) {
		return a, a.ID != id
	})
	if err != nil {
		return err
	}
	return c.commit(ctx, "delete contact")
}

// rewriteAssignments maps every assignee of every cached task through fn and, when
// anything changed, writes the whole tasks collection back with one PUT. fn returns
// false to drop the assignee.
func (c *Coordinator) rewriteAssignments(ctx context.Context, op string, fn func(model.Assignee) (model.Assignee, bool)) error {
	tasks := c.cache.Tasks()
	changed := false
	for i := range tasks {
		for k, before := range tasks[i].AssignedTo {
			after, keep := fn(before)
			switch {
			case !keep:
				delete(tasks[i].AssignedTo, k)
				changed = true
			case after != before:
				tasks[i].AssignedTo[k] = after
				changed = true
			}
		}
		if len(tasks[i].AssignedTo) == 0 {
			tasks[i].AssignedTo = nil
		}
	}
	if !changed {
		return nil
	}
	if _, err := c.store.Put(ctx, cache.PathTasks, normalize.TaskMap(tasks)); err != nil {
		return c.fail(op, cache.PathTasks, err)
	}
	return nil
}
