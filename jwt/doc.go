// Package jwt reads the claims of session tokens that happen to be JWTs.
//
// Tokens are opaque to the client and it holds no verification keys, so
// claims are decoded without checking the signature. They are informational
// only (expiry hints, status output); the backend remains the authority on
// whether a token is valid.
package jwt
