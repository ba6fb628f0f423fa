package token

import (
	"context"
	"time"
)

// Session is the result of validating a session token: either Anonymous or
// Authenticated. Handlers branch on Authenticated rather than re-inspecting
// the token.
type Session struct {
	Authenticated bool
	AccountID     string
	Verified      bool
	JTI           string
	ExpiresAt     time.Time
}

// Anonymous is the session every invalid, missing, expired, or revoked token
// collapses to.
var Anonymous = Session{}

// Validator is the single entry point for turning a raw cookie value into a
// Session. Signature and shape are checked first, then the revocation store.
type Validator struct {
	issuer *Issuer
	store  RevocationStore
}

func NewValidator(issuer *Issuer, store RevocationStore) *Validator {
	return &Validator{issuer: issuer, store: store}
}

// ValidateSession never returns an error: any failure, including a
// revocation-store error, yields Anonymous. A store failure denying access is
// deliberate (fail closed).
func (v *Validator) ValidateSession(ctx context.Context, raw string) Session {
	if raw == "" {
		return Anonymous
	}

	claims, err := v.issuer.Parse(raw)
	if err != nil {
		return Anonymous
	}

	revoked, err := v.store.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		return Anonymous
	}

	return Session{
		Authenticated: true,
		AccountID:     claims.Subject,
		Verified:      claims.Verified,
		JTI:           claims.ID,
		ExpiresAt:     claims.ExpiresAt.Time,
	}
}
