package api

import "log/slog"

// User is the account record returned by the backend. Fields are opaque to
// the client and are not validated locally.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Credentials is the login and registration request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogValue omits the password when credentials are logged.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("email", c.Email))
}

// Operation names carried by [AuthError].
const (
	OpLogin    = "login"
	OpRegister = "register"
	OpProfile  = "profile"
)
