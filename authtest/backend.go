// Package authtest provides an in-process fake of the authentication backend
// for tests. It speaks the same JSON contract as the real service: POST
// /login, POST /register and GET /profile.
//
// Tokens are issued as "t1", "t2", ... and user IDs as "1", "2", ... in order,
// so tests can assert on exact values.
package authtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Request records what the backend received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	UserAgent     string
	Language      string
	ContentType   string
	Body          map[string]string
}

type response struct {
	status int
	body   string
}

type account struct {
	id       string
	email    string
	password string
}

// Backend is a fake authentication service backed by httptest.Server.
type Backend struct {
	server *httptest.Server

	mu        sync.Mutex
	accounts  map[string]account
	tokens    map[string]string
	nextUser  int
	nextToken int
	calls     map[string]int
	requests  []Request
	once      map[string][]response
	override  map[string]response
	holds     map[string]chan struct{}
}

// NewBackend starts a backend and closes it when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := Start()
	t.Cleanup(b.Close)
	return b
}

// Start runs a backend outside a test. The caller must Close it.
func Start() *Backend {
	b := &Backend{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		calls:    make(map[string]int),
		once:     make(map[string][]response),
		override: make(map[string]response),
		holds:    make(map[string]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", b.handleLogin)
	mux.HandleFunc("POST /register", b.handleRegister)
	mux.HandleFunc("GET /profile", b.handleProfile)

	b.server = httptest.NewServer(mux)
	return b
}

// Close stops the server.
func (b *Backend) Close() {
	b.server.Close()
}

// URL returns the backend base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// AddUser registers an account directly and returns its ID.
func (b *Backend) AddUser(email, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password).id
}

// IssueToken mints a token for an existing account, as a previous login would.
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(email)
}

// RevokeToken makes token unknown to /profile.
func (b *Backend) RevokeToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// RespondOnce queues a canned response for the next request to path.
// Queued responses are consumed before any override.
func (b *Backend) RespondOnce(path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.once[path] = append(b.once[path], response{status: status, body: body})
}

// Respond answers every request to path with status and body until Reset.
func (b *Backend) Respond(path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.override[path] = response{status: status, body: body}
}

// Reset removes canned responses for path.
func (b *Backend) Reset(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.override, path)
	delete(b.once, path)
}

// Hold blocks requests to path until the returned release func is called.
// Blocked requests are already counted by Calls.
func (b *Backend) Hold(path string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.holds[path] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.holds[path] == gate {
				delete(b.holds, path)
			}
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request to path.
func (b *Backend) LastRequest(path string) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if b.requests[i].Path == path {
			return b.requests[i], true
		}
	}
	return Request{}, false
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, canned, ok := b.enter(w, r)
	if !ok || canned {
		return
	}

	b.mu.Lock()
	acct, found := b.accounts[body["email"]]
	if !found || acct.password != body["password"] {
		b.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid credentials"})
		return
	}
	token := b.issueLocked(acct.email)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, authBody(token, acct))
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, canned, ok := b.enter(w, r)
	if !ok || canned {
		return
	}

	email, password := body["email"], body["password"]
	if email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email and password are required"})
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[email]; exists {
		b.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	acct := b.addUserLocked(email, password)
	token := b.issueLocked(email)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, authBody(token, acct))
}

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request) {
	_, canned, ok := b.enter(w, r)
	if !ok || canned {
		return
	}

	token := strings.TrimSpace(r.Header.Get("Authorization"))
	token = strings.TrimPrefix(token, "Bearer ")

	b.mu.Lock()
	email, found := b.tokens[token]
	acct := b.accounts[email]
	b.mu.Unlock()

	if token == "" || !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": acct.id, "email": acct.email})
}

// enter records the request, waits on any hold, and writes a canned response
// when one is configured. ok is false when the body could not be decoded.
func (b *Backend) enter(w http.ResponseWriter, r *http.Request) (body map[string]string, canned, ok bool) {
	rec := Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		UserAgent:     r.Header.Get("User-Agent"),
		Language:      r.Header.Get("Accept-Language"),
		ContentType:   r.Header.Get("Content-Type"),
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request"})
			return nil, false, false
		}
		rec.Body = body
	}

	b.mu.Lock()
	b.calls[rec.Path]++
	b.requests = append(b.requests, rec)
	gate := b.holds[rec.Path]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return nil, true, true
		}
	}

	b.mu.Lock()
	var resp response
	var have bool
	if queued := b.once[rec.Path]; len(queued) > 0 {
		resp, have = queued[0], true
		b.once[rec.Path] = queued[1:]
	} else {
		resp, have = b.override[rec.Path]
	}
	b.mu.Unlock()

	if have {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
		return body, true, true
	}
	return body, false, true
}

func (b *Backend) addUserLocked(email, password string) account {
	if acct, ok := b.accounts[email]; ok {
		return acct
	}
	b.nextUser++
	acct := account{id: strconv.Itoa(b.nextUser), email: email, password: password}
	b.accounts[email] = acct
	return acct
}

func (b *Backend) issueLocked(email string) string {
	b.nextToken++
	token := "t" + strconv.Itoa(b.nextToken)
	b.tokens[token] = email
	return token
}

func authBody(token string, acct account) map[string]any {
	return map[string]any{
		"token": token,
		"user":  map[string]string{"id": acct.id, "email": acct.email},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
