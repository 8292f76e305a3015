// Package auth signs users up and in against the users collection and keeps the
// session on disk.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/joinboard/internal/cache"
	"github.com/sandeepkv93/joinboard/internal/forms"
	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/store"
)

type Option func(*Service)

// WithCost sets the bcrypt cost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithIDs(next func() string) Option {
	return func(s *Service) { s.newID = next }
}

type Service struct {
	store    store.Store
	cache    *cache.Collections
	sessions *SessionFile
	log      log.FieldLogger
	cost     int
	newID    func() string
}

func NewService(s store.Store, c *cache.Collections, sessions *SessionFile, logger log.FieldLogger, opts ...Option) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	svc := &Service{
		store:    s,
		cache:    c,
		sessions: sessions,
		log:      logger,
		cost:     bcrypt.DefaultCost,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Signup stores a new user at users/{n}, n being the first free index at or after
// the current user count.
func (s *Service) Signup(ctx context.Context, f forms.SignupForm) (model.User, error) {
	if _, err := s.cache.ReloadUsers(ctx); err != nil {
		return model.User{}, fmt.Errorf("auth: load users: %w", err)
	}
	users := s.cache.Users()
	if err := f.Validate(users).Err(); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	name := model.FormatName(f.Name)
	user := model.User{
		ID:       s.newID(),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(f.Email)),
		Password: string(hash),
		Initials: model.Initials(name),
	}

	taken := make(map[string]bool, len(users))
	for _, u := range users {
		taken[u.Key] = true
	}
	n := len(users)
	for taken[strconv.Itoa(n)] {
		n++
	}
	path := store.Join(cache.PathUsers, strconv.Itoa(n))
	if _, err := s.store.Put(ctx, path, user); err != nil {
		s.log.WithFields(log.Fields{"op": "signup", "path": path}).WithError(err).Error("store write failed")
		return model.User{}, fmt.Errorf("auth: store user: %w", err)
	}
	if _, err := s.cache.ReloadUsers(ctx); err != nil {
		return model.User{}, fmt.Errorf("auth: reload users: %w", err)
	}
	s.log.WithFields(log.Fields{"op": "signup", "user_id": user.ID}).Info("user signed up")
	return user, nil
}

// Login matches the email case-insensitively and compares the bcrypt hash. Every
// mismatch reports the same field error.
func (s *Service) Login(ctx context.Context, f forms.LoginForm) (model.Session, error) {
	if err := f.Validate().Err(); err != nil {
		return model.Session{}, err
	}
	if _, err := s.cache.ReloadUsers(ctx); err != nil {
		return model.Session{}, fmt.Errorf("auth: load users: %w", err)
	}
	failed := forms.FieldErrors{forms.FieldLogin: forms.MsgLoginFailed}
	user, ok := s.cache.UserByEmail(f.Email)
	if !ok {
		return model.Session{}, failed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(f.Password)); err != nil {
		return model.Session{}, failed
	}

	session := model.Session{UserID: user.ID, RememberMe: f.RememberMe}
	if err := s.sessions.Save(session); err != nil {
		s.log.WithError(err).Warn("persist session failed")
	}
	return session, nil
}

func (s *Service) Guest() model.Session {
	session := model.Session{Guest: true}
	if err := s.sessions.Save(session); err != nil {
		s.log.WithError(err).Warn("persist session failed")
	}
	return session
}

// Restore returns the stored session when it may log in automatically: guest
// sessions always, user sessions only with remember me set and a known user.
func (s *Service) Restore(ctx context.Context) (model.Session, bool) {
	session, err := s.sessions.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			s.log.WithError(err).Warn("discarding stored session")
			_ = s.sessions.Clear()
		}
		return model.Session{}, false
	}
	if session.Guest {
		return session, true
	}
	if !session.RememberMe || session.UserID == "" {
		return model.Session{}, false
	}
	if _, err := s.cache.ReloadUsers(ctx); err != nil {
		s.log.WithError(err).Warn("load users for session restore failed")
		return model.Session{}, false
	}
	if _, ok := s.cache.UserByID(session.UserID); !ok {
		return model.Session{}, false
	}
	return session, true
}

func (s *Service) Logout() error {
	return s.sessions.Clear()
}
