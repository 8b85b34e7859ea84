// Package authui manages the lifecycle of a client-side authentication
// session: acquiring a token by login or registration, persisting it,
// validating it against the backend at start-up, and tearing it down.
//
// A [Manager] is assembled once through [New] and [Builder.Build]. It owns a
// [SessionStore], the single source of truth that callers read to decide
// what to render, a [Bootstrapper] that runs once per process, and a profile
// query cache. Manager methods are safe to call from multiple goroutines.
//
// # Architecture boundaries
//
// authui is the public surface. Backend I/O lives in api, durable token
// storage behind store.TokenStore, cached reads in query, and message
// catalogs, input validation, and token sealing under internal/. None of
// those packages import authui.
//
// # What this package must NOT do
//
//   - Keep session state in package-level variables. Every Manager is
//     independent.
//   - Log or persist credentials. Tokens appear in logs only as fingerprints.
//   - Retry login or registration. Only the profile read is retried.
//   - Perform I/O in the Builder other than opening the configured store.
package authui
