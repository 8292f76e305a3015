// Package cache holds the last fetched snapshot of the tasks, contacts and users
// collections.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
	"github.com/sandeepkv93/joinboard/internal/store"
)

const (
	PathTasks    = "tasks"
	PathContacts = "contacts"
	PathUsers    = "users"
)

// Collections is replaced wholesale by reloads and never patched in place. Every
// reload takes a sequence number when it starts; a collection is replaced only when
// no later-started reload has already replaced it.
type Collections struct {
	store store.Store

	mu       sync.RWMutex
	tasks    []model.Task
	contacts []model.Contact
	users    []normalize.StoredUser
	seen     [3]uint64
	applied  uint64
	next     uint64
	loaded   bool
}

const (
	slotTasks = iota
	slotContacts
	slotUsers
)

func New(s store.Store) *Collections {
	return &Collections{store: s}
}

type snapshot struct {
	tasks    []model.Task
	contacts []model.Contact
	users    []normalize.StoredUser
}

// Reload fetches all three collections and replaces the snapshot. It returns the
// generation that is current afterwards, which is the reload's own sequence unless a
// newer reload won.
func (c *Collections) Reload(ctx context.Context) (uint64, error) {
	seq := c.begin()
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.tasks, err = c.fetchTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.contacts, err = c.fetchContacts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.users, err = c.fetchUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return c.Generation(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(slotTasks, seq, func() { c.tasks = snap.tasks })
	c.setLocked(slotContacts, seq, func() { c.contacts = snap.contacts })
	c.setLocked(slotUsers, seq, func() { c.users = snap.users })
	c.loaded = true
	return c.applied, nil
}

func (c *Collections) ReloadTasks(ctx context.Context) (uint64, error) {
	seq := c.begin()
	tasks, err := c.fetchTasks(ctx)
	if err != nil {
		return c.Generation(), err
	}
	return c.apply(slotTasks, seq, func() { c.tasks = tasks }), nil
}

func (c *Collections) ReloadContacts(ctx context.Context) (uint64, error) {
	seq := c.begin()
	contacts, err := c.fetchContacts(ctx)
	if err != nil {
		return c.Generation(), err
	}
	return c.apply(slotContacts, seq, func() { c.contacts = contacts }), nil
}

func (c *Collections) ReloadUsers(ctx context.Context) (uint64, error) {
	seq := c.begin()
	users, err := c.fetchUsers(ctx)
	if err != nil {
		return c.Generation(), err
	}
	return c.apply(slotUsers, seq, func() { c.users = users }), nil
}

func (c *Collections) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

func (c *Collections) apply(slot int, seq uint64, set func()) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(slot, seq, set)
	return c.applied
}

func (c *Collections) setLocked(slot int, seq uint64, set func()) {
	if seq <= c.seen[slot] {
		return
	}
	set()
	c.seen[slot] = seq
	if seq > c.applied {
		c.applied = seq
	}
}

func (c *Collections) fetchTasks(ctx context.Context) ([]model.Task, error) {
	raw, err := c.store.Get(ctx, PathTasks)
	if err != nil {
		return nil, fmt.Errorf("cache: load tasks: %w", err)
	}
	return normalize.Tasks(raw)
}

func (c *Collections) fetchContacts(ctx context.Context) ([]model.Contact, error) {
	raw, err := c.store.Get(ctx, PathContacts)
	if err != nil {
		return nil, fmt.Errorf("cache: load contacts: %w", err)
	}
	return normalize.Contacts(raw)
}

func (c *Collections) fetchUsers(ctx context.Context) ([]normalize.StoredUser, error) {
	raw, err := c.store.Get(ctx, PathUsers)
	if err != nil {
		return nil, fmt.Errorf("cache: load users: %w", err)
	}
	return normalize.Users(raw)
}

// Generation is the newest applied reload sequence; 0 before the first reload.
func (c *Collections) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied
}

// Loaded reports whether a full reload has completed.
func (c *Collections) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Collections) Tasks() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (c *Collections) Contacts() []model.Contact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Contact(nil), c.contacts...)
}

func (c *Collections) Users() []normalize.StoredUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]normalize.StoredUser(nil), c.users...)
}

// TaskByID scans for the client-side id and returns the task with its store key.
func (c *Collections) TaskByID(id int64) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

func (c *Collections) TaskByFirebaseID(fid string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.FirebaseID == fid {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

func (c *Collections) ContactByID(id string) (model.Contact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ct := range c.contacts {
		if ct.ID == id {
			return ct, true
		}
	}
	return model.Contact{}, false
}

func (c *Collections) UserByID(id string) (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.User.ID == id {
			return u.User, true
		}
	}
	return model.User{}, false
}

// UserByEmail matches case-insensitively after trimming.
func (c *Collections) UserByEmail(email string) (model.User, bool) {
	want := strings.ToLower(strings.TrimSpace(email))
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if strings.ToLower(strings.TrimSpace(u.User.Email)) == want {
			return u.User, true
		}
	}
	return model.User{}, false
}
