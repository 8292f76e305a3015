package model

import (
	"errors"
	"regexp"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Color string `json:"color"`
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("model: contact id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("model: contact name is required")
	}
	if c.Email != strings.ToLower(c.Email) {
		return errors.New("model: contact email must be lowercase")
	}
	if !hexColor.MatchString(c.Color) {
		return errors.New("model: contact color must be #RRGGBB")
	}
	return nil
}

// Assignee copies the fields a task keeps about an assigned contact.
func (c Contact) Assignee() Assignee {
	return Assignee{ID: c.ID, Name: c.Name, Color: c.Color}
}

// User is an account record. Password holds a bcrypt hash.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Initials string `json:"initials"`
}

// Session identifies who is using the board. A guest session has no UserID.
type Session struct {
	UserID     string
	Guest      bool
	RememberMe bool
}

func (s Session) Active() bool {
	return s.Guest || s.UserID != ""
}
