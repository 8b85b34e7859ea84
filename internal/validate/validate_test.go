package validate

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestLoginValidation(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		email     string
		password  string
		wantField []string
	}{
		{name: "valid", email: "a@b.com", password: "secret1"},
		{name: "min length ok", email: "a@b.com", password: "123456"},
		{name: "max length ok", email: "a@b.com", password: strings.Repeat("x", 20)},
		{name: "bad email", email: "not-an-email", password: "secret1", wantField: []string{FieldEmail}},
		{name: "display name rejected", email: "Alice <a@b.com>", password: "secret1", wantField: []string{FieldEmail}},
		{name: "short password", email: "a@b.com", password: "12345", wantField: []string{FieldPassword}},
		{name: "long password", email: "a@b.com", password: strings.Repeat("x", 21), wantField: []string{FieldPassword}},
		{name: "both bad", email: "", password: "", wantField: []string{FieldEmail, FieldPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Login(tt.email, tt.password)
			if len(tt.wantField) == 0 {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var verrs *Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected *Errors, got %T (%v)", err, err)
			}
			if len(verrs.Fields) != len(tt.wantField) {
				t.Fatalf("expected %d field errors, got %v", len(tt.wantField), verrs.Fields)
			}
			for _, f := range tt.wantField {
				if !verrs.Has(f) {
					t.Fatalf("expected field %s rejected, got %v", f, verrs.Fields)
				}
			}
		})
	}
}

func TestPasswordLengthCountsCharacters(t *testing.T) {
	p := DefaultPolicy()
	// six Cyrillic letters are twelve bytes
	if err := p.Login("a@b.com", "пароль"); err != nil {
		t.Fatalf("expected six-character password to pass, got %v", err)
	}
}

func TestRegistrationMismatch(t *testing.T) {
	p := DefaultPolicy()

	err := p.Registration("a@b.com", "secret1", "secret2")
	var verrs *Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *Errors, got %v", err)
	}
	if !verrs.Has(FieldConfirmPassword) || verrs.Fields[0].Reason != ReasonMismatch {
		t.Fatalf("expected mismatch on confirmation, got %v", verrs.Fields)
	}
	if got := verrs.Localize(language.Russian); got != "Пароли не совпадают" {
		t.Fatalf("unexpected localized message %q", got)
	}

	if err := p.Registration("a@b.com", "secret1", "secret1"); err != nil {
		t.Fatalf("expected matching registration to pass, got %v", err)
	}
}

func TestRegistrationShortConfirmationReportsLengthOnly(t *testing.T) {
	p := DefaultPolicy()

	err := p.Registration("a@b.com", "secret1", "abc")
	var verrs *Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *Errors, got %v", err)
	}
	if len(verrs.Fields) != 1 || verrs.Fields[0].Reason != ReasonTooShort {
		t.Fatalf("expected single too-short error, got %v", verrs.Fields)
	}
	if got := verrs.Error(); got != "confirmPassword: Password must be at least 6 characters" {
		t.Fatalf("unexpected message %q", got)
	}
}
