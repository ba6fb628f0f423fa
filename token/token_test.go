package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/storytail/storytail-server/token"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret"

func TestMintAndParse(t *testing.T) {
	issuer := token.NewIssuer([]byte(testSecret))

	raw, claims, err := issuer.Mint("account-1", true)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "account-1", parsed.Subject)
	require.Equal(t, claims.ID, parsed.ID)
	require.True(t, parsed.Verified)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, _, err := token.NewIssuer([]byte(testSecret)).Mint("account-1", false)
	require.NoError(t, err)

	_, err = token.NewIssuer([]byte("other-secret")).Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	issuer := token.NewIssuer([]byte(testSecret),
		token.WithMaxAge(time.Minute),
		token.WithNowFunc(func() time.Time { return now }),
	)

	raw, _, err := issuer.Mint("account-1", false)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = issuer.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := token.NewIssuer([]byte(testSecret))
	_, err := issuer.Parse("not-a-token")
	require.Error(t, err)
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := token.NewInMemoryRevocationStore()

	first := time.Now().Add(time.Hour)
	require.NoError(t, store.Revoke(ctx, "jti-1", first))
	// Re-revoking with a different expiry must not reset the original.
	require.NoError(t, store.Revoke(ctx, "jti-1", first.Add(time.Hour)))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestSweepDeletesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := token.NewInMemoryRevocationStore(token.WithStoreNowFunc(func() time.Time { return now }))

	require.NoError(t, store.Revoke(ctx, "expired", now.Add(-time.Minute)))
	require.NoError(t, store.Revoke(ctx, "live", now.Add(time.Hour)))

	deleted, err := store.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	revoked, err := store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	require.True(t, revoked)

	// Sweeping again with nothing expired is a no-op.
	deleted, err = store.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)
}

func TestValidateSession(t *testing.T) {
	ctx := context.Background()
	issuer := token.NewIssuer([]byte(testSecret))
	store := token.NewInMemoryRevocationStore()
	validator := token.NewValidator(issuer, store)

	raw, claims, err := issuer.Mint("account-1", true)
	require.NoError(t, err)

	session := validator.ValidateSession(ctx, raw)
	require.True(t, session.Authenticated)
	require.Equal(t, "account-1", session.AccountID)
	require.True(t, session.Verified)
	require.Equal(t, claims.ID, session.JTI)

	// Revoked token collapses to Anonymous even though signature and expiry
	// are still valid.
	require.NoError(t, store.Revoke(ctx, claims.ID, claims.ExpiresAt.Time))
	require.Equal(t, token.Anonymous, validator.ValidateSession(ctx, raw))
}

func TestValidateSessionEmptyAndInvalid(t *testing.T) {
	validator := token.NewValidator(token.NewIssuer([]byte(testSecret)), token.NewInMemoryRevocationStore())

	require.Equal(t, token.Anonymous, validator.ValidateSession(context.Background(), ""))
	require.Equal(t, token.Anonymous, validator.ValidateSession(context.Background(), "garbage"))
}

// failingStore simulates a revocation-store outage.
type failingStore struct{}

func (failingStore) Revoke(context.Context, string, time.Time) error { return errors.New("db down") }
func (failingStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}
func (failingStore) Sweep(context.Context) (int64, error) { return 0, errors.New("db down") }

func TestValidateSessionFailsClosedOnStoreError(t *testing.T) {
	issuer := token.NewIssuer([]byte(testSecret))
	validator := token.NewValidator(issuer, failingStore{})

	raw, _, err := issuer.Mint("account-1", true)
	require.NoError(t, err)

	require.Equal(t, token.Anonymous, validator.ValidateSession(context.Background(), raw))
}
