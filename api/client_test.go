package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authui/authtest"
	"golang.org/x/text/language"
)

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Options)) *Client {
	t.Helper()
	opts := Options{BaseURL: baseURL, Timeout: 2 * time.Second}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c
}

func TestLoginSuccessReturnsTokenAndUser(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.AddUser("a@b.com", "secret1")
	c := newTestClient(t, backend.URL())

	resp, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	want := AuthResponse{Token: "t1", User: User{ID: "1", Email: "a@b.com"}}
	if resp != want {
		t.Fatalf("expected %+v, got %+v", want, resp)
	}

	req, ok := backend.LastRequest("/login")
	if !ok {
		t.Fatal("backend saw no login request")
	}
	if req.Body["email"] != "a@b.com" || req.Body["password"] != "secret1" {
		t.Fatalf("unexpected request body %v", req.Body)
	}
	if req.ContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", req.ContentType)
	}
	if req.RequestID == "" {
		t.Fatal("expected generated X-Request-ID")
	}
	if req.UserAgent != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", req.UserAgent)
	}
}

func TestLoginBackendMessageIsVerbatim(t *testing.T) {
	backend := authtest.NewBackend(t)
	c := newTestClient(t, backend.URL())

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	if err == nil {
		t.Fatal("expected login failure")
	}
	if err.Error() != "Invalid credentials" {
		t.Fatalf("expected backend message, got %q", err.Error())
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Op != OpLogin || authErr.Status != http.StatusBadRequest || authErr.Err != nil {
		t.Fatalf("unexpected error fields %+v", authErr)
	}
}

func TestFallbackMessages(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		locale language.Tag
		want   string
	}{
		{name: "login non-json", path: "/login", body: "<html>oops</html>", want: "Login failed"},
		{name: "login empty message", path: "/login", body: `{"message":""}`, want: "Login failed"},
		{name: "register no message", path: "/register", body: `{}`, want: "Registration failed"},
		{name: "profile non-json", path: "/profile", body: "", want: "Failed to fetch profile"},
		{name: "login russian", path: "/login", body: "", locale: language.Russian, want: "Ошибка при входе"},
		{name: "register russian", path: "/register", body: "", locale: language.Russian, want: "Ошибка при регистрации"},
		{name: "profile russian", path: "/profile", body: "", locale: language.Russian, want: "Ошибка при получении профиля"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := authtest.NewBackend(t)
			backend.Respond(tt.path, http.StatusInternalServerError, tt.body)
			c := newTestClient(t, backend.URL(), func(o *Options) { o.Locale = tt.locale })

			var err error
			creds := Credentials{Email: "a@b.com", Password: "secret1"}
			switch tt.path {
			case "/login":
				_, err = c.Login(context.Background(), creds)
			case "/register":
				_, err = c.Register(context.Background(), creds)
			default:
				_, err = c.Profile(context.Background(), "t1")
			}
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
			if StatusOf(err) != http.StatusInternalServerError {
				t.Fatalf("expected status 500, got %d", StatusOf(err))
			}
		})
	}
}

func TestRegisterSuccess(t *testing.T) {
	backend := authtest.NewBackend(t)
	c := newTestClient(t, backend.URL())

	resp, err := c.Register(context.Background(), Credentials{Email: "new@b.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if resp.Token != "t1" || resp.User.Email != "new@b.com" || resp.User.ID != "1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	_, err = c.Register(context.Background(), Credentials{Email: "new@b.com", Password: "secret1"})
	if err == nil || err.Error() != "User already exists" {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
}

func TestProfileSendsRawAuthorization(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.AddUser("a@b.com", "secret1")
	token := backend.IssueToken("a@b.com")
	c := newTestClient(t, backend.URL())

	user, err := c.Profile(context.Background(), token)
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if user != (User{ID: "1", Email: "a@b.com"}) {
		t.Fatalf("unexpected user %+v", user)
	}
	req, _ := backend.LastRequest("/profile")
	if req.Authorization != token {
		t.Fatalf("expected raw token header %q, got %q", token, req.Authorization)
	}
}

func TestProfileAuthScheme(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.AddUser("a@b.com", "secret1")
	token := backend.IssueToken("a@b.com")
	c := newTestClient(t, backend.URL(), func(o *Options) { o.AuthScheme = "Bearer" })

	if _, err := c.Profile(context.Background(), token); err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	req, _ := backend.LastRequest("/profile")
	if req.Authorization != "Bearer "+token {
		t.Fatalf("expected bearer header, got %q", req.Authorization)
	}
}

func TestProfileUnauthorized(t *testing.T) {
	backend := authtest.NewBackend(t)
	c := newTestClient(t, backend.URL())

	_, err := c.Profile(context.Background(), "stale")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
	if !authErr.Unauthorized() || authErr.Message != "Unauthorized" {
		t.Fatalf("unexpected error %+v", authErr)
	}
}

func TestTransportFailureKeepsCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T %v", err, err)
	}
	if authErr.Message != "Login failed" || authErr.Err == nil || authErr.Status != 0 {
		t.Fatalf("unexpected transport error %+v", authErr)
	}
}

func TestCanceledContextIsReachable(t *testing.T) {
	backend := authtest.NewBackend(t)
	c := newTestClient(t, backend.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Profile(ctx, "t1")
	if !errors.Is(err, context.Canceled) || !IsCanceled(err) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.Respond("/login", http.StatusOK, "not json")
	backend.Respond("/register", http.StatusOK, `{"user":{"id":"1","email":"a@b.com"}}`)
	c := newTestClient(t, backend.URL())

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	if !errors.Is(err, ErrMalformedResponse) || err.Error() != "Login failed" {
		t.Fatalf("expected malformed response error, got %v", err)
	}
	_, err = c.Register(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected missing token to be malformed, got %v", err)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.Respond("/profile", http.StatusOK, `{"id":"`+strings.Repeat("x", maxBodyBytes)+`"}`)
	c := newTestClient(t, backend.URL())

	_, err := c.Profile(context.Background(), "t1")
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	backend := authtest.NewBackend(t)
	c := newTestClient(t, backend.URL(), func(o *Options) { o.Locale = language.Russian })

	ctx := WithRequestID(context.Background(), "req-42")
	_, _ = c.Profile(ctx, "t1")

	req, _ := backend.LastRequest("/profile")
	if req.RequestID != "req-42" {
		t.Fatalf("expected request id from context, got %q", req.RequestID)
	}
	if req.Language != "ru" {
		t.Fatalf("expected Accept-Language ru, got %q", req.Language)
	}
}

func TestObserveCalledPerRequest(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.AddUser("a@b.com", "secret1")

	var mu sync.Mutex
	seen := map[string]int{}
	failures := 0
	c := newTestClient(t, backend.URL(), func(o *Options) {
		o.Observe = func(op string, _ time.Duration, err error) {
			mu.Lock()
			defer mu.Unlock()
			seen[op]++
			if err != nil {
				failures++
			}
		}
	})

	_, _ = c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	_, _ = c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "wrong"})
	_, _ = c.Profile(context.Background(), "t1")

	mu.Lock()
	defer mu.Unlock()
	if seen[OpLogin] != 2 || seen[OpProfile] != 1 || failures != 1 {
		t.Fatalf("unexpected observations %v failures=%d", seen, failures)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://", "::bad"} {
		if _, err := New(Options{BaseURL: raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	backend := authtest.NewBackend(t)
	backend.AddUser("a@b.com", "secret1")
	c := newTestClient(t, backend.URL()+"/")

	if _, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if backend.Calls("/login") != 1 {
		t.Fatalf("expected request on /login, calls=%d", backend.Calls("/login"))
	}
}
