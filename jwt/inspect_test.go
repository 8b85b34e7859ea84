package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestInspectDecodesClaims(t *testing.T) {
	iat := time.Unix(1_700_000_000, 0)
	exp := iat.Add(time.Hour)
	tok := signTestToken(t, jwt.MapClaims{
		"sub":   "1",
		"id":    "1",
		"email": "a@b.com",
		"iss":   "backend",
		"aud":   "authui",
		"iat":   iat.Unix(),
		"exp":   exp.Unix(),
	})

	claims, err := Inspect(tok)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if claims.Subject != "1" || claims.UserID != "1" || claims.Email != "a@b.com" || claims.Issuer != "backend" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "authui" {
		t.Fatalf("unexpected audience %v", claims.Audience)
	}
	if claims.Algorithm != "HS256" {
		t.Fatalf("expected HS256, got %s", claims.Algorithm)
	}
	if !claims.IssuedAt.Equal(iat) || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected times iat=%v exp=%v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestInspectIgnoresSignatureAndExpiry(t *testing.T) {
	tok := signTestToken(t, jwt.MapClaims{
		"uid": "u-9",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	tampered := tok[:len(tok)-2] + "xx"

	claims, err := Inspect(tampered)
	if err != nil {
		t.Fatalf("expected unverified parse to succeed, got %v", err)
	}
	if claims.UserID != "u-9" {
		t.Fatalf("expected uid claim, got %+v", claims)
	}
	if !claims.Expired(time.Now()) {
		t.Fatal("expected token to report expired")
	}
	if d, ok := claims.Remaining(time.Now()); !ok || d != 0 {
		t.Fatalf("expected zero remaining, got %v %v", d, ok)
	}
}

func TestInspectRejectsOpaqueTokens(t *testing.T) {
	for _, in := range []string{"", "t1", "a.b", "a.b.c", "not.a.jwt.token"} {
		if _, err := Inspect(in); !errors.Is(err, ErrNotJWT) {
			t.Fatalf("Inspect(%q): expected ErrNotJWT, got %v", in, err)
		}
	}
}

func TestClaimsWithoutExpiry(t *testing.T) {
	var c Claims
	if c.Expired(time.Now()) {
		t.Fatal("claims without expiry never expire")
	}
	if _, ok := c.Remaining(time.Now()); ok {
		t.Fatal("expected no remaining duration without expiry")
	}

	c.ExpiresAt = time.Now().Add(time.Minute)
	if d, ok := c.Remaining(time.Now()); !ok || d <= 0 {
		t.Fatalf("expected positive remaining, got %v", d)
	}
}
