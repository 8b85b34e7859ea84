// Package api is the HTTP client for the remote authentication backend.
//
// Three operations are exposed: Login (POST /login), Register (POST /register)
// and Profile (GET /profile). Every failure, whether a non-2xx status, a
// transport error or an undecodable body, is reported as *AuthError.
//
// # Architecture boundaries
//
// The client is stateless apart from its configuration. It does not persist
// tokens, cache profiles, or retry.
//
// # What this package must NOT do
//
//   - Log or echo passwords.
//   - Retry login or registration requests.
//   - Import the root authui package.
package api
