// Package client is the Go consumer of the Storytail HTTP API. Besides
// plain request plumbing it implements the session resynchronization
// routine: right after login, or whenever a privileged call answers 401,
// the client re-runs session introspection so the server re-sets the
// canonical cookie, then retries the original call exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/storytail/storytail-server/internal/errors"
)

const (
	// SessionCookieName matches the cookie the server issues at login.
	SessionCookieName = "storytail_session"

	// RetryMarkerHeader marks a request as a resync retry. A 401 on a
	// request carrying it is surfaced as a genuine failure instead of
	// triggering another retry.
	RetryMarkerHeader = "X-Session-Retry"

	defaultSettleDelay = 150 * time.Millisecond
)

// SessionClient wraps an http.Client with a cookie jar and the session
// resync protocol. Safe for use from a single goroutine; the jar itself
// is concurrency safe but Login and Do interleave jar mutation with
// requests.
type SessionClient struct {
	httpClient  *http.Client
	baseURL     *url.URL
	jar         http.CookieJar
	settleDelay time.Duration
	logger      zerolog.Logger
}

type Option func(*SessionClient)

// WithSettleDelay overrides the post-login propagation delay. Tests set
// zero.
func WithSettleDelay(d time.Duration) Option {
	return func(c *SessionClient) { c.settleDelay = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *SessionClient) { c.logger = logger }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *SessionClient) { c.httpClient = hc }
}

func New(baseURL string, options ...Option) (*SessionClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[New] parse base URL")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[New] cookie jar")
	}
	c := &SessionClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     parsed,
		jar:         jar,
		settleDelay: defaultSettleDelay,
		logger:      zerolog.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	c.httpClient.Jar = jar
	return c, nil
}

// LoginResult is the account summary the login endpoint returns.
type LoginResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"emailVerified"`
}

// Login authenticates and then immediately re-syncs the session so the
// jar holds the canonical cookie before the caller's next request.
func (c *SessionClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors.Wrap(err, "[Login] marshal credentials")
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/login", body, false)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrapf(statusError(resp.StatusCode), "[Login] status %d", resp.StatusCode)
	}
	var decoded struct {
		Account LoginResult `json:"account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "[Login] decode response")
	}

	if err := c.syncSession(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("post-login session sync failed")
	}
	if c.settleDelay > 0 {
		select {
		case <-time.After(c.settleDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &decoded.Account, nil
}

// Logout revokes the current session. The server clears the cookie; the
// jar picks that up from the response.
func (c *SessionClient) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil, false)
	if err != nil {
		return errors.Wrap(err, "[Logout] request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrapf(statusError(resp.StatusCode), "[Logout] status %d", resp.StatusCode)
	}
	return nil
}

// Do issues a privileged API request. On a first 401 it cleans up
// duplicate session cookies, re-runs introspection, and retries the
// original request once with the retry marker set. A 401 on the retry
// is returned to the caller as-is.
func (c *SessionClient) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body, false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	c.logger.Debug().Str("path", path).Msg("401 on privileged call, resyncing session")
	c.dropDuplicateSessionCookies(c.baseURL.ResolveReference(&url.URL{Path: path}))
	if err := c.syncSession(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("session resync failed")
	}
	return c.send(ctx, method, path, body, true)
}

// send builds and issues one request. The body is a byte slice rather
// than a reader so a retry can replay it.
func (c *SessionClient) send(ctx context.Context, method, path string, body []byte, retry bool) (*http.Response, error) {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(&url.URL{Path: path}).String(), reader)
	if err != nil {
		return nil, errors.Wrap(err, "[send] build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if retry {
		req.Header.Set(RetryMarkerHeader, "1")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[send] do request")
	}
	return resp, nil
}

// syncSession hits the introspection endpoint, which re-sets the session
// cookie on an authenticated request and clears it on a stale one.
func (c *SessionClient) syncSession(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/api/auth/session", nil, false)
	if err != nil {
		return errors.Wrap(err, "[syncSession] request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrapf(statusError(resp.StatusCode), "[syncSession] status %d", resp.StatusCode)
	}
	return nil
}

// dropDuplicateSessionCookies removes every session cookie from the jar
// when more than one matches the request URL, so the following sync sets
// a single canonical one. Duplicates live under different paths, so the
// expired tombstones cover both the root and API paths.
func (c *SessionClient) dropDuplicateSessionCookies(u *url.URL) {
	var count int
	for _, cookie := range c.jar.Cookies(u) {
		if cookie.Name == SessionCookieName {
			count++
		}
	}
	if count <= 1 {
		return
	}
	c.logger.Warn().Int("count", count).Msg("duplicate session cookies, clearing all")
	for _, path := range []string{"/", "/api"} {
		c.jar.SetCookies(c.baseURL, []*http.Cookie{{
			Name:   SessionCookieName,
			Value:  "",
			Path:   path,
			MaxAge: -1,
		}})
	}
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusBadRequest:
		return apperrors.ErrValidation
	default:
		return apperrors.ErrInternal
	}
}
