// Package validate checks login and registration form input before it is
// sent to the backend.
package validate

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/authui/internal/locale"
	"golang.org/x/text/language"
)

// Field names reported by [Error].
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Reason identifies why a field was rejected.
type Reason int

const (
	ReasonInvalidEmail Reason = iota + 1
	ReasonTooShort
	ReasonTooLong
	ReasonMismatch
)

// Policy bounds password length. Lengths count characters, not bytes.
type Policy struct {
	MinPassword int
	MaxPassword int
}

// DefaultPolicy matches the registration form limits.
func DefaultPolicy() Policy {
	return Policy{MinPassword: 6, MaxPassword: 20}
}

// Error describes one rejected field.
type Error struct {
	Field  string
	Reason Reason
	Limit  int
}

// Localize renders the error for tag.
func (e Error) Localize(tag language.Tag) string {
	switch e.Reason {
	case ReasonInvalidEmail:
		return locale.Text(tag, locale.InvalidEmail)
	case ReasonTooShort:
		return locale.Text(tag, locale.PasswordTooShort, e.Limit)
	case ReasonTooLong:
		return locale.Text(tag, locale.PasswordTooLong, e.Limit)
	case ReasonMismatch:
		return locale.Text(tag, locale.PasswordMismatch)
	default:
		return e.Field
	}
}

func (e Error) Error() string {
	return e.Field + ": " + e.Localize(locale.Default())
}

// Errors collects every rejected field of one submission.
type Errors struct {
	Fields []Error
}

func (e *Errors) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}

// Localize joins all field messages for tag.
func (e *Errors) Localize(tag language.Tag) string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Localize(tag))
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field was rejected.
func (e *Errors) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *Errors) add(field string, reason Reason, limit int) {
	e.Fields = append(e.Fields, Error{Field: field, Reason: reason, Limit: limit})
}

func (e *Errors) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Login validates a login submission.
func (p Policy) Login(email, password string) error {
	errs := &Errors{}
	p.checkEmail(errs, email)
	p.checkPassword(errs, FieldPassword, password)
	return errs.orNil()
}

// Registration validates a registration submission. confirm must equal password.
func (p Policy) Registration(email, password, confirm string) error {
	errs := &Errors{}
	p.checkEmail(errs, email)
	p.checkPassword(errs, FieldPassword, password)
	p.checkPassword(errs, FieldConfirmPassword, confirm)
	if confirm != password && !errs.Has(FieldConfirmPassword) {
		errs.add(FieldConfirmPassword, ReasonMismatch, 0)
	}
	return errs.orNil()
}

func (p Policy) checkEmail(errs *Errors, email string) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		errs.add(FieldEmail, ReasonInvalidEmail, 0)
	}
}

func (p Policy) checkPassword(errs *Errors, field, password string) {
	n := utf8.RuneCountInString(password)
	switch {
	case p.MinPassword > 0 && n < p.MinPassword:
		errs.add(field, ReasonTooShort, p.MinPassword)
	case p.MaxPassword > 0 && n > p.MaxPassword:
		errs.add(field, ReasonTooLong, p.MaxPassword)
	}
}
