package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/storytail/storytail-server/accounts"
	fakeaccountrepo "github.com/storytail/storytail-server/accounts/repofake"
	"github.com/storytail/storytail-server/auth"
	"github.com/storytail/storytail-server/client"
	fakesender "github.com/storytail/storytail-server/email/sendfake"
	"github.com/storytail/storytail-server/internal/config"
	"github.com/storytail/storytail-server/ratelimit"
	"github.com/storytail/storytail-server/server"
	"github.com/storytail/storytail-server/stories"
	fakegenerators "github.com/storytail/storytail-server/stories/genfake"
	fakestoryrepo "github.com/storytail/storytail-server/stories/repofake"
	"github.com/storytail/storytail-server/token"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct-horse-battery-staple-9"
)

// startRealServer boots the full HTTP stack on a test listener with a
// verified account already present.
func startRealServer(t *testing.T) *httptest.Server {
	t.Helper()

	accountRepo := fakeaccountrepo.NewFakeAccountRepo()
	issuer := token.NewIssuer([]byte("client-test-secret"))
	revocation := token.NewInMemoryRevocationStore()

	authService, err := auth.NewService(auth.Deps{
		Accounts:   accountRepo,
		Limiter:    ratelimit.NewInMemoryLimiter(),
		Issuer:     issuer,
		Revocation: revocation,
		Sender:     fakesender.NewFakeSender(),
	})
	require.NoError(t, err)

	storyService, err := stories.NewService(fakestoryrepo.NewFakeStoryRepo(), fakegenerators.NewFakeGenerator(), &fakegenerators.FakeIllustrator{}, &fakegenerators.FakeNarrator{})
	require.NoError(t, err)

	srv, err := server.New(config.New(), authService, storyService, accountRepo, token.NewValidator(issuer, revocation), zerolog.Nop())
	require.NoError(t, err)

	hash, err := accounts.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, accountRepo.Create(context.Background(), &accounts.Account{
		Email:         testEmail,
		Name:          "Alice",
		PasswordHash:  hash,
		EmailVerified: true,
	}))

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestLoginThenPrivilegedCall(t *testing.T) {
	ts := startRealServer(t)

	c, err := client.New(ts.URL, client.WithSettleDelay(0))
	require.NoError(t, err)

	result, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, testEmail, result.Email)

	resp, err := c.Do(context.Background(), http.MethodGet, "/api/stories", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutInvalidatesClientSession(t *testing.T) {
	ts := startRealServer(t)

	c, err := client.New(ts.URL, client.WithSettleDelay(0))
	require.NoError(t, err)

	_, err = c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, c.Logout(context.Background()))

	// The cookie is gone and resync cannot resurrect it, so the bounded
	// retry still ends in 401.
	resp, err := c.Do(context.Background(), http.MethodGet, "/api/stories", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := startRealServer(t)

	c, err := client.New(ts.URL, client.WithSettleDelay(0))
	require.NoError(t, err)

	_, err = c.Login(context.Background(), testEmail, "Not-the-password-1")
	require.Error(t, err)
}

// stubBackend simulates a server whose cookie propagation lags: the
// first privileged call fails 401, the marked retry succeeds.
type stubBackend struct {
	attempts    int
	markerSeen  bool
	alwaysDeny  bool
	cookieCount int
}

func (b *stubBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"authenticated":true}`))
	})
	mux.HandleFunc("/api/stories", func(w http.ResponseWriter, r *http.Request) {
		b.attempts++
		b.cookieCount = len(r.Cookies())
		retried := r.Header.Get(client.RetryMarkerHeader) != ""
		if retried {
			b.markerSeen = true
		}
		if b.alwaysDeny || !retried {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"error":"You must be signed in."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"stories":[]}`))
	})
	return mux
}

func TestDoRetriesExactlyOnceOn401(t *testing.T) {
	backend := &stubBackend{}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	c, err := client.New(ts.URL, client.WithSettleDelay(0))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodGet, "/api/stories", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, backend.attempts)
	require.True(t, backend.markerSeen)
}

func TestDoSurfacesGenuine401AfterRetry(t *testing.T) {
	backend := &stubBackend{alwaysDeny: true}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	c, err := client.New(ts.URL, client.WithSettleDelay(0))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodGet, "/api/stories", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 2, backend.attempts, "bounded to a single retry")
}

func TestDuplicateCookiesAreDroppedBeforeRetry(t *testing.T) {
	backend := &stubBackend{alwaysDeny: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/seed", func(w http.ResponseWriter, r *http.Request) {
		// Two session cookies under different paths, as a misbehaving
		// proxy or older server version could leave behind.
		http.SetCookie(w, &http.Cookie{Name: client.SessionCookieName, Value: "one", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: client.SessionCookieName, Value: "two", Path: "/api"})
	})
	mux.Handle("/", backend.handler())
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := client.New(ts.URL, client.WithSettleDelay(0))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodGet, "/seed", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = c.Do(context.Background(), http.MethodGet, "/api/stories", nil)
	require.NoError(t, err)
	resp.Body.Close()

	// The retried request carries at most the one cookie a fresh sync
	// set, never the stale duplicates.
	require.LessOrEqual(t, backend.cookieCount, 1)
}
