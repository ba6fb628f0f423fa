package auth_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/storytail/storytail-server/accounts"
	fakeaccountrepo "github.com/storytail/storytail-server/accounts/repofake"
	"github.com/storytail/storytail-server/auth"
	fakesender "github.com/storytail/storytail-server/email/sendfake"
	apperrors "github.com/storytail/storytail-server/internal/errors"
	"github.com/storytail/storytail-server/ratelimit"
	"github.com/storytail/storytail-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-session-secret"
	testEmail    = "alice@example.com"
	testPassword = "correct-horse-battery-staple-9"
	testName     = "Alice"
	testIP       = "10.0.0.1"
)

// testFixture holds all test dependencies
type testFixture struct {
	accountRepo *fakeaccountrepo.FakeAccountRepo
	limiter     *ratelimit.InMemoryLimiter
	issuer      *token.Issuer
	revocation  *token.InMemoryRevocationStore
	sender      *fakesender.FakeSender
	service     *auth.Service
	now         time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		accountRepo: fakeaccountrepo.NewFakeAccountRepo(),
		limiter:     ratelimit.NewInMemoryLimiter(),
		issuer:      token.NewIssuer([]byte(testSecret)),
		revocation:  token.NewInMemoryRevocationStore(),
		sender:      fakesender.NewFakeSender(),
		now:         time.Now(),
	}

	service, err := auth.NewService(auth.Deps{
		Accounts:   f.accountRepo,
		Limiter:    f.limiter,
		Issuer:     f.issuer,
		Revocation: f.revocation,
		Sender:     f.sender,
	}, auth.WithNowFunc(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.service = service
	return f
}

// registerVerified registers and verifies an account in one step.
func (f *testFixture) registerVerified(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	result, err := f.service.Register(ctx, testIP, testEmail, testPassword, testName)
	require.NoError(t, err)
	require.True(t, result.RequiresVerification)

	require.NoError(t, f.service.VerifyEmail(ctx, f.lastEmailedToken(t)))
	f.limiter.Sweep(0) // discard registration attempts from the counters
}

// lastEmailedToken pulls the raw token out of the most recent emailed link.
func (f *testFixture) lastEmailedToken(t *testing.T) string {
	t.Helper()
	mail := f.sender.Last()
	require.NotNil(t, mail)
	parsed, err := url.Parse(mail.Link)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	result, err := f.service.Register(ctx, testIP, "A@Example.com", testPassword, testName)
	require.NoError(t, err)
	require.True(t, result.RequiresVerification)

	mail := f.sender.Last()
	require.NotNil(t, mail)
	require.Equal(t, "a@example.com", mail.To)
	require.Equal(t, "verification", mail.Kind)

	// Login before verifying fails with the unverified message, not the
	// generic one.
	_, err = f.service.Authorize(ctx, testIP, "a@example.com", testPassword)
	require.ErrorIs(t, err, apperrors.ErrUnverifiedAccount)

	require.NoError(t, f.service.VerifyEmail(ctx, f.lastEmailedToken(t)))

	projection, err := f.service.Authorize(ctx, testIP, "a@example.com", testPassword)
	require.NoError(t, err)
	require.True(t, projection.EmailVerified)
	require.Equal(t, testName, projection.Name)
}

func TestAuthorizeMissingInput(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.Authorize(ctx, testIP, "", testPassword)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.Authorize(ctx, testIP, testEmail, "")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.Authorize(ctx, testIP, "not-an-email", testPassword)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthorizeEnumerationResistance(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	_, unknownErr := f.service.Authorize(ctx, testIP, "nobody@example.com", testPassword)
	require.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)

	_, wrongPassErr := f.service.Authorize(ctx, testIP, testEmail, "Wrong-password-123")
	require.ErrorIs(t, wrongPassErr, apperrors.ErrInvalidCredentials)

	// The client-facing message must be byte-identical for both branches.
	require.Equal(t, apperrors.UserMessage(unknownErr), apperrors.UserMessage(wrongPassErr))
}

func TestAuthorizeRateLimit(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.Authorize(ctx, testIP, testEmail, "Wrong-password-123")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "attempt %d", i+1)
	}
	_, err := f.service.Authorize(ctx, testIP, testEmail, "Wrong-password-123")
	require.ErrorIs(t, err, apperrors.ErrRateLimited, "6th attempt should be throttled")
}

func TestAuthorizeRateLimitSpansEmails(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	// One IP spraying different emails is still caught by the IP keyspace.
	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}
	for _, addr := range emails {
		_, err := f.service.Authorize(ctx, testIP, addr, "Wrong-password-123")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	_, err := f.service.Authorize(ctx, testIP, "f@example.com", "Wrong-password-123")
	require.ErrorIs(t, err, apperrors.ErrRateLimited)
}

func TestLoginMintsRevocableToken(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	_, signed, claims, err := f.service.Login(ctx, testIP, testEmail, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	validator := token.NewValidator(f.issuer, f.revocation)
	session := validator.ValidateSession(ctx, signed)
	require.True(t, session.Authenticated)

	require.NoError(t, f.service.Logout(ctx, session))
	require.Equal(t, token.Anonymous, validator.ValidateSession(ctx, signed))

	// Logging out again with the already revoked session must not error.
	require.NoError(t, f.service.Logout(ctx, session))

	revoked, err := f.revocation.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestConcurrentSessionsStayIndependent(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	_, first, _, err := f.service.Login(ctx, testIP, testEmail, testPassword)
	require.NoError(t, err)
	_, second, _, err := f.service.Login(ctx, testIP, testEmail, testPassword)
	require.NoError(t, err)

	validator := token.NewValidator(f.issuer, f.revocation)
	require.NoError(t, f.service.Logout(ctx, validator.ValidateSession(ctx, first)))

	// Revoking one device's session leaves the other logged in.
	require.Equal(t, token.Anonymous, validator.ValidateSession(ctx, first))
	require.True(t, validator.ValidateSession(ctx, second).Authenticated)
}

func TestRegisterDuplicateLooksIdentical(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	result, err := f.service.Register(ctx, "10.0.0.2", testEmail, testPassword, "Impostor")
	require.NoError(t, err)
	require.True(t, result.RequiresVerification)

	// No second account, no new mail for the impostor.
	account, err := f.accountRepo.GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, testName, account.Name)
}

func TestVerifyEmailRejectsBadTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, testIP, testEmail, testPassword, testName)
	require.NoError(t, err)
	rawToken := f.lastEmailedToken(t)

	require.Error(t, f.service.VerifyEmail(ctx, ""))
	require.Error(t, f.service.VerifyEmail(ctx, "wrong-token"))

	// Expired token fails, even though it matches.
	f.now = f.now.Add(25 * time.Hour)
	require.ErrorIs(t, f.service.VerifyEmail(ctx, rawToken), apperrors.ErrTokenExpired)

	// A resend issues a fresh token that works.
	f.limiter.Sweep(0)
	require.NoError(t, f.service.ResendVerification(ctx, testEmail))
	require.NoError(t, f.service.VerifyEmail(ctx, f.lastEmailedToken(t)))

	// Verifying twice fails: the token was cleared.
	require.Error(t, f.service.VerifyEmail(ctx, f.lastEmailedToken(t)))
}

func TestResendVerificationNoops(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	sent := len(f.sender.Sent)
	require.NoError(t, f.service.ResendVerification(ctx, testEmail), "already verified")
	require.NoError(t, f.service.ResendVerification(ctx, "nobody@example.com"), "unknown account")
	require.Len(t, f.sender.Sent, sent, "no mail for either case")
}

func TestPasswordResetFlow(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	// Unknown email gets the same silent success.
	require.NoError(t, f.service.RequestPasswordReset(ctx, testIP, "nobody@example.com"))
	sent := len(f.sender.Sent)

	require.NoError(t, f.service.RequestPasswordReset(ctx, testIP, testEmail))
	require.Len(t, f.sender.Sent, sent+1)
	require.Equal(t, "reset", f.sender.Last().Kind)

	const newPassword = "brand-new-passphrase-42"
	require.NoError(t, f.service.ResetPassword(ctx, f.lastEmailedToken(t), newPassword))

	f.limiter.Sweep(0)
	_, err := f.service.Authorize(ctx, testIP, testEmail, testPassword)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "old password no longer works")

	projection, err := f.service.Authorize(ctx, testIP, testEmail, newPassword)
	require.NoError(t, err)
	require.Equal(t, testEmail, projection.Email)
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)
	ctx := context.Background()

	require.NoError(t, f.service.RequestPasswordReset(ctx, testIP, testEmail))
	rawToken := f.lastEmailedToken(t)

	f.now = f.now.Add(2 * time.Hour)
	err := f.service.ResetPassword(ctx, rawToken, "brand-new-passphrase-42")
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Register(context.Background(), testIP, testEmail, "1234", testName)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.registerVerified(t)

	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.True(t, account.EmailVerified)
	require.Empty(t, account.VerificationTokenHash, "verification token cleared after use")
	require.NotEqual(t, testPassword, account.PasswordHash)
	require.True(t, accounts.CheckPasswordHash(testPassword, account.PasswordHash))
}
