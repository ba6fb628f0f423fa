package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storytail/storytail-server/accounts"
	apperrors "github.com/storytail/storytail-server/internal/errors"
)

// RegisterResult is what the registration endpoint reports back. The shape is
// the same whether or not an account was actually created, so registration
// cannot be used to probe for existing emails.
type RegisterResult struct {
	RequiresVerification bool `json:"requiresVerification"`
}

// Register creates an unverified account and emails a verification link.
// Rate-limited by IP and by email independently.
func (s *Service) Register(ctx context.Context, ip, rawEmail, password, name string) (RegisterResult, error) {
	addr := accounts.NormalizeEmail(rawEmail)

	if !s.allow(ip, addr) {
		s.logger.Warn().Str("email", addr).Str("ip", ip).Msg("registration rejected: rate limited")
		return RegisterResult{}, apperrors.ErrRateLimited
	}

	if !accounts.ValidEmail(addr) || name == "" {
		return RegisterResult{}, apperrors.ErrValidation
	}
	if err := accounts.ValidatePasswordStrength(password); err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.deps.Accounts.GetByEmail(ctx, addr); err == nil {
		// Same outward result as a fresh registration; the duplicate is only
		// visible in the audit log.
		s.logger.Warn().Str("email", addr).Msg("registration for existing account")
		return RegisterResult{RequiresVerification: true}, nil
	} else if !apperrors.Is(err, apperrors.ErrAccountNotFound) {
		s.logger.Error().Err(err).Str("email", addr).Msg("account lookup failed")
		return RegisterResult{}, apperrors.ErrInternal
	}

	hash, err := accounts.HashPassword(password)
	if err != nil {
		s.logger.Error().Err(err).Msg("password hash failed")
		return RegisterResult{}, apperrors.ErrInternal
	}

	rawToken, tokenHash, err := generateLifecycleToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("verification token generation failed")
		return RegisterResult{}, apperrors.ErrInternal
	}

	expiry := s.nowFunc().Add(s.verificationTTL)
	account := &accounts.Account{
		ID:                         uuid.New().String(),
		Email:                      addr,
		Name:                       name,
		PasswordHash:               hash,
		VerificationTokenHash:      tokenHash,
		VerificationTokenExpiresAt: &expiry,
	}
	if err := s.deps.Accounts.Create(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("account create failed")
		return RegisterResult{}, apperrors.ErrInternal
	}

	if err := s.deps.Sender.SendVerificationEmail(addr, name, s.verificationLink(rawToken)); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("verification email failed")
	}

	return RegisterResult{RequiresVerification: true}, nil
}

// VerifyEmail flips the verification flag when the raw token hashes to a
// stored, unexpired verification token on a not-yet-verified account.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return apperrors.ErrInvalidToken
	}

	account, err := s.deps.Accounts.GetByVerificationTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		s.logger.Warn().Msg("email verification with unknown token")
		return apperrors.ErrInvalidToken
	}
	if !tokenMatches(rawToken, account.VerificationTokenHash) {
		return apperrors.ErrInvalidToken
	}
	if account.VerificationTokenExpiresAt == nil || s.nowFunc().After(*account.VerificationTokenExpiresAt) {
		s.logger.Warn().Str("email", account.Email).Msg("email verification with expired token")
		return apperrors.ErrTokenExpired
	}
	if account.EmailVerified {
		return apperrors.ErrInvalidToken
	}

	account.EmailVerified = true
	account.VerificationTokenHash = ""
	account.VerificationTokenExpiresAt = nil
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("email", account.Email).Msg("verification update failed")
		return apperrors.ErrInternal
	}
	return nil
}

// ResendVerification issues a fresh verification token. Missing or already
// verified accounts are a silent no-op.
func (s *Service) ResendVerification(ctx context.Context, rawEmail string) error {
	addr := accounts.NormalizeEmail(rawEmail)

	account, err := s.deps.Accounts.GetByEmail(ctx, addr)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAccountNotFound) {
			return nil
		}
		s.logger.Error().Err(err).Str("email", addr).Msg("account lookup failed")
		return apperrors.ErrInternal
	}
	if account.EmailVerified {
		return nil
	}

	rawToken, tokenHash, err := generateLifecycleToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("verification token generation failed")
		return apperrors.ErrInternal
	}
	expiry := s.nowFunc().Add(s.verificationTTL)
	account.VerificationTokenHash = tokenHash
	account.VerificationTokenExpiresAt = &expiry
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("verification token update failed")
		return apperrors.ErrInternal
	}

	if err := s.deps.Sender.SendVerificationEmail(addr, account.Name, s.verificationLink(rawToken)); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("verification email failed")
	}
	return nil
}

// RequestPasswordReset emails a reset link when the account exists. The
// outcome is identical either way.
func (s *Service) RequestPasswordReset(ctx context.Context, ip, rawEmail string) error {
	addr := accounts.NormalizeEmail(rawEmail)

	if !s.allow(ip, addr) {
		s.logger.Warn().Str("email", addr).Str("ip", ip).Msg("password reset rejected: rate limited")
		return apperrors.ErrRateLimited
	}

	account, err := s.deps.Accounts.GetByEmail(ctx, addr)
	if err != nil {
		// Absent account gets the same outward success as a real one.
		if !apperrors.Is(err, apperrors.ErrAccountNotFound) {
			s.logger.Error().Err(err).Str("email", addr).Msg("account lookup failed")
		}
		return nil
	}

	rawToken, tokenHash, err := generateLifecycleToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("reset token generation failed")
		return nil
	}
	expiry := s.nowFunc().Add(s.resetTTL)
	account.ResetTokenHash = tokenHash
	account.ResetTokenExpiresAt = &expiry
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("reset token update failed")
		return nil
	}

	if err := s.deps.Sender.SendPasswordResetEmail(addr, account.Name, s.resetLink(rawToken)); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("reset email failed")
	}
	return nil
}

// ResetPassword completes the reset flow using the emailed token.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return apperrors.ErrInvalidToken
	}
	if err := accounts.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	account, err := s.deps.Accounts.GetByResetTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		s.logger.Warn().Msg("password reset with unknown token")
		return apperrors.ErrInvalidToken
	}
	if !tokenMatches(rawToken, account.ResetTokenHash) {
		return apperrors.ErrInvalidToken
	}
	if account.ResetTokenExpiresAt == nil || s.nowFunc().After(*account.ResetTokenExpiresAt) {
		s.logger.Warn().Str("email", account.Email).Msg("password reset with expired token")
		return apperrors.ErrTokenExpired
	}

	hash, err := accounts.HashPassword(newPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("password hash failed")
		return apperrors.ErrInternal
	}
	account.PasswordHash = hash
	account.ResetTokenHash = ""
	account.ResetTokenExpiresAt = nil
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("email", account.Email).Msg("password update failed")
		return apperrors.ErrInternal
	}
	return nil
}

func (s *Service) verificationLink(rawToken string) string {
	return fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, rawToken)
}

func (s *Service) resetLink(rawToken string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, rawToken)
}
