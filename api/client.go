package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authui/internal/locale"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

const (
	// DefaultTimeout bounds a single backend request when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is sent when Options.UserAgent is empty.
	DefaultUserAgent = "authui"

	maxBodyBytes = 1 << 20
)

// Options configures a [Client].
type Options struct {
	BaseURL string
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
	Timeout    time.Duration
	// AuthScheme, when non-empty, prefixes the token in the Authorization
	// header ("Bearer" yields "Bearer <token>"). Empty sends the raw token.
	AuthScheme string
	UserAgent  string
	Locale     language.Tag
	// Observe, when set, is called after every request with the operation,
	// its wall time, and the returned error.
	Observe func(op string, elapsed time.Duration, err error)
}

// Client talks to the authentication backend. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	http       *http.Client
	authScheme string
	userAgent  string
	locale     language.Tag
	observe    func(string, time.Duration, error)
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base url must be http or https, got %q", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("api: base url %q has no host", opts.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	tag := opts.Locale
	if tag == language.Und {
		tag = locale.Default()
	}

	return &Client{
		base:       base,
		http:       hc,
		authScheme: strings.TrimSpace(opts.AuthScheme),
		userAgent:  ua,
		locale:     tag,
		observe:    opts.Observe,
	}, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	return c.authenticate(ctx, OpLogin, "/login", creds)
}

// Register creates an account and returns its session token.
func (c *Client) Register(ctx context.Context, creds Credentials) (AuthResponse, error) {
	return c.authenticate(ctx, OpRegister, "/register", creds)
}

// Profile returns the user that token belongs to. A rejected token is
// reported as an *AuthError with the backend status.
func (c *Client) Profile(ctx context.Context, token string) (User, error) {
	start := time.Now()
	var user User

	req, err := c.newRequest(ctx, http.MethodGet, "/profile", nil)
	if err != nil {
		return User{}, c.finish(OpProfile, start, c.transportError(OpProfile, err))
	}
	req.Header.Set("Authorization", c.authorization(token))

	if err := c.do(req, OpProfile, &user); err != nil {
		return User{}, c.finish(OpProfile, start, err)
	}
	return user, c.finish(OpProfile, start, nil)
}

func (c *Client) authenticate(ctx context.Context, op, path string, creds Credentials) (AuthResponse, error) {
	start := time.Now()
	var out AuthResponse

	body, err := json.Marshal(creds)
	if err != nil {
		return AuthResponse{}, c.finish(op, start, c.transportError(op, err))
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return AuthResponse{}, c.finish(op, start, c.transportError(op, err))
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, op, &out); err != nil {
		return AuthResponse{}, c.finish(op, start, err)
	}
	if out.Token == "" {
		return AuthResponse{}, c.finish(op, start, &AuthError{
			Op:      op,
			Status:  http.StatusOK,
			Message: c.fallback(op),
			Err:     fmt.Errorf("%w: missing token", ErrMalformedResponse),
		})
	}
	return out, c.finish(op, start, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := *c.base
	endpoint.Path += path

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}

	id := requestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", id)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.locale.String())
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body)
	if err != nil {
		return &AuthError{Op: op, Status: resp.StatusCode, Message: c.fallback(op), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AuthError{Op: op, Status: resp.StatusCode, Message: c.failureMessage(op, raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &AuthError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: c.fallback(op),
			Err:     fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	return nil
}

// failureMessage returns the backend's message field, or the fallback when
// the body is not JSON or the message is empty.
func (c *Client) failureMessage(op string, raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return c.fallback(op)
	}
	return body.Message
}

func (c *Client) transportError(op string, err error) error {
	return &AuthError{Op: op, Message: c.fallback(op), Err: err}
}

func (c *Client) fallback(op string) string {
	switch op {
	case OpLogin:
		return locale.Text(c.locale, locale.LoginFailed)
	case OpRegister:
		return locale.Text(c.locale, locale.RegisterFailed)
	default:
		return locale.Text(c.locale, locale.ProfileFailed)
	}
}

func (c *Client) authorization(token string) string {
	if c.authScheme == "" {
		return token
	}
	return c.authScheme + " " + token
}

func (c *Client) finish(op string, start time.Time, err error) error {
	if c.observe != nil {
		c.observe(op, time.Since(start), err)
	}
	return err
}

func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxBodyBytes {
		return nil, ErrResponseTooLarge
	}
	return raw, nil
}

// IsCanceled reports whether err stems from context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
