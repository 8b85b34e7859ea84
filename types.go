package authui

import (
	"github.com/MrEthical07/authui/api"
	"github.com/MrEthical07/authui/internal/validate"
)

type (
	// User is the account record returned by the backend.
	User = api.User
	// AuthResponse is the body of a successful login or registration.
	AuthResponse = api.AuthResponse
	// AuthError is the single failure kind reported for backend calls.
	AuthError = api.AuthError
	// ValidationErrors lists every field rejected before a submission is sent.
	ValidationErrors = validate.Errors
)

// State is the lifecycle position of a session.
type State int32

const (
	// StateUninitialized is the state before bootstrap starts.
	StateUninitialized State = iota
	// StateValidating means a persisted token is being checked against the backend.
	StateValidating
	// StateAuthenticated means a token is held and its user is known.
	StateAuthenticated
	// StateAnonymous means no token is held.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session is an immutable snapshot of the Session Store.
//
// User is non-nil only when HasToken is true. Loading is true only while
// bootstrap validation is in flight.
type Session struct {
	Token    string
	HasToken bool
	User     *User
	Loading  bool
	State    State
}

// Authenticated reports whether the snapshot holds both a token and a user.
func (s Session) Authenticated() bool {
	return s.HasToken && s.User != nil
}
