// Package token mints and validates the signed session tokens carried in the
// session cookie, and tracks server-side revocation by jti.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/storytail/storytail-server/internal/errors"
)

const defaultMaxAge = 30 * 24 * time.Hour

// Claims are the session token claims. The verification flag is embedded at
// mint time and carried for the life of the token.
type Claims struct {
	Verified bool `json:"verified"`
	jwt.RegisteredClaims
}

// Issuer mints and parses HS256 session tokens.
type Issuer struct {
	secret  []byte
	maxAge  time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithMaxAge(maxAge time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.maxAge = maxAge
	}
}

func NewIssuer(secret []byte, options ...IssuerOption) *Issuer {
	issuer := &Issuer{
		secret:  secret,
		maxAge:  defaultMaxAge,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(issuer)
	}
	return issuer
}

// Mint creates a signed session token for the account. Every token gets a
// fresh jti so it can be individually revoked.
func (i *Issuer) Mint(accountID string, verified bool) (string, *Claims, error) {
	now := i.nowFunc()
	claims := &Claims{
		Verified: verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Issuer.Mint] SignedString")
	}
	return signed, claims, nil
}

// Parse verifies the signature and shape of a raw token and returns its
// claims. Expired or malformed tokens fail.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.nowFunc))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "parse: %s", err.Error())
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// MaxAge returns the configured token lifetime, also used as the session
// cookie max age.
func (i *Issuer) MaxAge() time.Duration {
	return i.maxAge
}
