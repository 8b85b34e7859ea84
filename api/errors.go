package api

import (
	"errors"
	"net/http"
)

var (
	// ErrMalformedResponse is the cause recorded when a successful response
	// body cannot be decoded or lacks required fields.
	ErrMalformedResponse = errors.New("api: malformed response body")
	// ErrResponseTooLarge is the cause recorded when a body exceeds the read limit.
	ErrResponseTooLarge = errors.New("api: response body too large")
)

// AuthError is the single failure kind returned by [Client]. Error returns the
// user-facing Message unchanged: the backend's message when it supplied one,
// the localized operation fallback otherwise. Err holds the transport or
// decode cause, if any.
type AuthError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the backend rejected the credentials or token.
func (e *AuthError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// StatusOf returns the HTTP status recorded in err, or 0 when err is not an
// [AuthError] or carries no response.
func StatusOf(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	return 0
}
