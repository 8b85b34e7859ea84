package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect when the token is not a decodable JWT.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims is the decoded, unverified subset of a token's claims.
type Claims struct {
	Subject   string
	UserID    string
	Email     string
	Issuer    string
	Audience  []string
	Algorithm string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry at or before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Remaining returns the time left before expiry, zero when expired, and
// false when the token has no expiry claim.
func (c Claims) Remaining(now time.Time) (time.Duration, bool) {
	if c.ExpiresAt.IsZero() {
		return 0, false
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}

type tokenClaims struct {
	UID       string `json:"uid,omitempty"`
	AccountID string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Inspect decodes token without verifying its signature.
func Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	var raw tokenClaims
	parsed, _, err := parser.ParseUnverified(token, &raw)
	if err != nil {
		return Claims{}, errors.Join(ErrNotJWT, err)
	}

	out := Claims{
		Subject:  raw.Subject,
		UserID:   raw.UID,
		Email:    raw.Email,
		Issuer:   raw.Issuer,
		Audience: []string(raw.Audience),
	}
	if out.UserID == "" {
		out.UserID = raw.AccountID
	}
	if parsed.Method != nil {
		out.Algorithm = parsed.Method.Alg()
	}
	if raw.IssuedAt != nil {
		out.IssuedAt = raw.IssuedAt.Time
	}
	if raw.ExpiresAt != nil {
		out.ExpiresAt = raw.ExpiresAt.Time
	}
	return out, nil
}
