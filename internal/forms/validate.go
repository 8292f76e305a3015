// Package forms holds editable form state for tasks, contacts and accounts together
// with the field-level messages shown to the user.
package forms

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sandeepkv93/joinboard/internal/model"
)

const (
	MsgRequired        = "This field is required"
	MsgDateFormat      = "Please enter a valid date in YYYY-MM-DD format."
	MsgFutureDate      = "Please enter a future date."
	MsgNameEmpty       = "Please enter a first and last name."
	MsgNameFormat      = "Enter a valid name. E.g. Max Muster"
	MsgEmailInvalid    = "Please enter a valid email address."
	MsgEmailTaken      = "This email address is already taken."
	MsgPhoneEmpty      = "Please enter a phone number."
	MsgPhoneChars      = "Please use only numbers, the plus sign (+), and spaces."
	MsgPhoneDigits     = "The phone number must be at least 9 digits long."
	MsgSubtaskEmpty    = "Subtask cannot be empty"
	MsgPasswordsDiffer = "Your passwords don't match. Please try again."
	MsgPrivacy         = "Please accept the privacy policy."
	MsgLoginFailed     = "Check your email and password. Please try again."
)

const (
	FieldTitle    = "title"
	FieldDueDate  = "due_date"
	FieldCategory = "category"
	FieldPriority = "priority"
	FieldSubtask  = "subtask"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldPassword = "password"
	FieldConfirm  = "confirm"
	FieldPrivacy  = "privacy"
	FieldLogin    = "login"
)

// FieldErrors maps a form field to the message shown under it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "forms: " + strings.Join(parts, "; ")
}

// Err returns nil for an empty set so callers can use it as an error.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e FieldErrors) set(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

var (
	namePattern  = regexp.MustCompile(`^[A-ZÄÖÜ][a-zäöü]+ [A-ZÄÖÜ][a-zäöü]+$`)
	emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,63}$`)
	phonePattern = regexp.MustCompile(`^[+\d\s]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	rules := map[string]validator.Func{
		"nonblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"personname": func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		},
		"mailaddr": func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		},
		"phonechars": func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		},
		"phonedigits": func(fl validator.FieldLevel) bool {
			return countDigits(fl.Field().String()) >= 9
		},
		"dateonly": func(fl validator.FieldLevel) bool {
			raw := fl.Field().String()
			if !datePattern.MatchString(raw) {
				return false
			}
			_, err := time.Parse(time.DateOnly, raw)
			return err == nil
		},
		"category": func(fl validator.FieldLevel) bool {
			return model.Category(fl.Field().String()).IsValid()
		},
		"priority": func(fl validator.FieldLevel) bool {
			return model.Priority(fl.Field().String()).IsValid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// check runs the struct rules and maps the first failing tag of every field to its
// message. A tag missing from messages falls back to MsgRequired.
func check(v any, messages map[string]map[string]string) FieldErrors {
	out := FieldErrors{}
	err := validate.Struct(v)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(err)
	}
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = MsgRequired
		}
		out.set(fe.Field(), msg)
	}
	return out
}
