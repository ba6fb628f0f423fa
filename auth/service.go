// Package auth implements credential verification and the account lifecycle:
// registration, email verification, password reset, login, and logout.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/storytail/storytail-server/accounts"
	"github.com/storytail/storytail-server/email"
	apperrors "github.com/storytail/storytail-server/internal/errors"
	"github.com/storytail/storytail-server/internal/utils"
	"github.com/storytail/storytail-server/ratelimit"
	"github.com/storytail/storytail-server/token"
)

const (
	defaultAttemptLimit  = 5
	defaultAttemptWindow = 60 * time.Second

	defaultVerificationTTL = 24 * time.Hour
	defaultResetTTL        = time.Hour
)

// Deps holds all collaborator dependencies for the Service.
type Deps struct {
	Accounts   accounts.Repo
	Limiter    ratelimit.Limiter
	Issuer     *token.Issuer
	Revocation token.RevocationStore
	Sender     email.Sender
}

// Service is the authentication core. All credential failures are logged with
// the attempted email for audit, while clients only ever see the generic
// message for the branch they hit.
type Service struct {
	deps            Deps
	logger          zerolog.Logger
	baseURL         string
	attemptLimit    int
	attemptWindow   time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
	nowFunc         func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func WithAttemptPolicy(limit int, window time.Duration) ServiceOption {
	return func(s *Service) {
		s.attemptLimit = limit
		s.attemptWindow = window
	}
}

func WithTokenTTLs(verification, reset time.Duration) ServiceOption {
	return func(s *Service) {
		s.verificationTTL = verification
		s.resetTTL = reset
	}
}

func WithBaseURL(baseURL string) ServiceOption {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Accounts == nil {
		return nil, errors.New("[auth.NewService] Accounts repo is required")
	}
	if deps.Limiter == nil {
		return nil, errors.New("[auth.NewService] Limiter is required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("[auth.NewService] Issuer is required")
	}
	if deps.Revocation == nil {
		return nil, errors.New("[auth.NewService] Revocation store is required")
	}
	if deps.Sender == nil {
		return nil, errors.New("[auth.NewService] email Sender is required")
	}

	s := &Service{
		deps:            deps,
		logger:          zerolog.Nop(),
		baseURL:         "http://localhost:8080",
		attemptLimit:    defaultAttemptLimit,
		attemptWindow:   defaultAttemptWindow,
		verificationTTL: defaultVerificationTTL,
		resetTTL:        defaultResetTTL,
		nowFunc:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Authorize checks credentials and returns the account projection on success.
// The failure branches are ordered so that rate limiting is consulted before
// any account lookup, and absent accounts are indistinguishable from wrong
// passwords.
func (s *Service) Authorize(ctx context.Context, ip, rawEmail, password string) (accounts.Projection, error) {
	if rawEmail == "" || password == "" {
		s.logger.Warn().Str("email", rawEmail).Msg("login rejected: missing credentials")
		return accounts.Projection{}, apperrors.ErrValidation
	}

	addr := accounts.NormalizeEmail(rawEmail)
	if !accounts.ValidEmail(addr) {
		s.logger.Warn().Str("email", addr).Msg("login rejected: malformed email")
		return accounts.Projection{}, apperrors.ErrValidation
	}

	if !s.allow(ip, addr) {
		s.logger.Warn().Str("email", addr).Str("ip", ip).Msg("login rejected: rate limited")
		return accounts.Projection{}, apperrors.ErrRateLimited
	}

	account, err := s.deps.Accounts.GetByEmail(ctx, addr)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrAccountNotFound) {
			s.logger.Error().Err(err).Str("email", addr).Msg("account lookup failed")
			return accounts.Projection{}, apperrors.ErrInternal
		}
		s.logger.Warn().Str("email", addr).Msg("login rejected: unknown account")
		return accounts.Projection{}, apperrors.ErrInvalidCredentials
	}

	if !accounts.CheckPasswordHash(password, account.PasswordHash) {
		s.logger.Warn().Str("email", addr).Msg("login rejected: wrong password")
		return accounts.Projection{}, apperrors.ErrInvalidCredentials
	}

	if !account.EmailVerified {
		s.logger.Warn().Str("email", addr).Msg("login rejected: email not verified")
		return accounts.Projection{}, apperrors.ErrUnverifiedAccount
	}

	account.LastLoginAt = utils.Ptr(s.nowFunc())
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		// Login timestamp bookkeeping must not fail an otherwise good login.
		s.logger.Error().Err(err).Str("email", addr).Msg("failed to record login time")
	}

	return account.Projection(), nil
}

// Login authorizes and, on success, mints a session token for the account.
func (s *Service) Login(ctx context.Context, ip, email, password string) (accounts.Projection, string, *token.Claims, error) {
	projection, err := s.Authorize(ctx, ip, email, password)
	if err != nil {
		return accounts.Projection{}, "", nil, err
	}

	signed, claims, err := s.deps.Issuer.Mint(projection.ID, projection.EmailVerified)
	if err != nil {
		s.logger.Error().Err(err).Str("email", projection.Email).Msg("token mint failed")
		return accounts.Projection{}, "", nil, apperrors.ErrInternal
	}
	return projection, signed, claims, nil
}

// ParseToken checks a raw session token's signature and shape without
// consulting the revocation store. Logout uses it so an already revoked
// token can still be logged out again without error.
func (s *Service) ParseToken(raw string) (*token.Claims, error) {
	return s.deps.Issuer.Parse(raw)
}

// RevokeToken invalidates the token's jti until its natural expiry.
func (s *Service) RevokeToken(ctx context.Context, claims *token.Claims) error {
	if err := s.deps.Revocation.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error().Err(err).Str("jti", claims.ID).Msg("revocation failed")
		return apperrors.ErrInternal
	}
	return nil
}

// Logout revokes the session's jti until the token's own expiry. Revoking an
// already revoked token is a no-op, so repeated logouts succeed.
func (s *Service) Logout(ctx context.Context, session token.Session) error {
	if !session.Authenticated {
		return apperrors.ErrUnauthorized
	}
	if err := s.deps.Revocation.Revoke(ctx, session.JTI, session.ExpiresAt); err != nil {
		s.logger.Error().Err(err).Str("jti", session.JTI).Msg("revocation failed")
		return apperrors.ErrInternal
	}
	return nil
}

func (s *Service) allow(ip, email string) bool {
	ipOK := s.deps.Limiter.Allow("ip:"+ip, s.attemptLimit, s.attemptWindow)
	emailOK := s.deps.Limiter.Allow("email:"+email, s.attemptLimit, s.attemptWindow)
	return ipOK && emailOK
}
