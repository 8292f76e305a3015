package forms

import (
	"strings"

	"github.com/sandeepkv93/joinboard/internal/model"
	"github.com/sandeepkv93/joinboard/internal/normalize"
)

type ContactForm struct {
	Name  string
	Email string
	Phone string
}

func ContactFormFrom(c model.Contact) ContactForm {
	return ContactForm{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// Normalized trims every field and lowercases the email.
func (f ContactForm) Normalized() ContactForm {
	return ContactForm{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.ToLower(strings.TrimSpace(f.Email)),
		Phone: strings.TrimSpace(f.Phone),
	}
}

type contactRules struct {
	Name  string `form:"name" validate:"nonblank,personname"`
	Email string `form:"email" validate:"nonblank,mailaddr"`
	Phone string `form:"phone" validate:"nonblank,phonechars,phonedigits"`
}

var contactMessages = map[string]map[string]string{
	FieldName:  {"nonblank": MsgNameEmpty, "personname": MsgNameFormat},
	FieldEmail: {"nonblank": MsgEmailInvalid, "mailaddr": MsgEmailInvalid},
	FieldPhone: {"nonblank": MsgPhoneEmpty, "phonechars": MsgPhoneChars, "phonedigits": MsgPhoneDigits},
}

// Validate checks the fields and rejects an email already used by another contact.
// selfID is the contact being edited and "" for a new one.
func (f ContactForm) Validate(existing []model.Contact, selfID string) FieldErrors {
	n := f.Normalized()
	errs := check(contactRules(n), contactMessages)
	if _, bad := errs[FieldEmail]; bad {
		return errs
	}
	for _, c := range existing {
		if c.ID != selfID && strings.EqualFold(strings.TrimSpace(c.Email), n.Email) {
			errs.set(FieldEmail, MsgEmailTaken)
			break
		}
	}
	return errs
}

type SignupForm struct {
	Name     string
	Email    string
	Password string
	Confirm  string
	Privacy  bool
}

type signupRules struct {
	Name     string `form:"name" validate:"nonblank"`
	Email    string `form:"email" validate:"nonblank,mailaddr"`
	Password string `form:"password" validate:"nonblank"`
	Confirm  string `form:"confirm" validate:"nonblank,eqfield=Password"`
	Privacy  bool   `form:"privacy" validate:"required"`
}

var signupMessages = map[string]map[string]string{
	FieldName:     {"nonblank": MsgRequired},
	FieldEmail:    {"nonblank": MsgEmailInvalid, "mailaddr": MsgEmailInvalid},
	FieldPassword: {"nonblank": MsgRequired},
	FieldConfirm:  {"nonblank": MsgRequired, "eqfield": MsgPasswordsDiffer},
	FieldPrivacy:  {"required": MsgPrivacy},
}

func (f SignupForm) Validate(users []normalize.StoredUser) FieldErrors {
	email := strings.ToLower(strings.TrimSpace(f.Email))
	errs := check(signupRules{
		Name:     strings.TrimSpace(f.Name),
		Email:    email,
		Password: f.Password,
		Confirm:  f.Confirm,
		Privacy:  f.Privacy,
	}, signupMessages)
	if _, bad := errs[FieldEmail]; bad {
		return errs
	}
	for _, u := range users {
		if strings.EqualFold(strings.TrimSpace(u.User.Email), email) {
			errs.set(FieldEmail, MsgEmailTaken)
			break
		}
	}
	return errs
}

type LoginForm struct {
	Email      string
	Password   string
	RememberMe bool
}

type loginRules struct {
	Email    string `form:"email" validate:"nonblank"`
	Password string `form:"password" validate:"nonblank"`
}

// Validate reports blank input under FieldLogin with the same message a failed match
// gets, so the form never reveals which half was wrong.
func (f LoginForm) Validate() FieldErrors {
	errs := check(loginRules{Email: strings.TrimSpace(f.Email), Password: f.Password}, nil)
	if len(errs) > 0 {
		return FieldErrors{FieldLogin: MsgLoginFailed}
	}
	return errs
}
