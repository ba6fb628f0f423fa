package accounts

import (
	"regexp"
	"strings"
	"time"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/storytail/storytail-server/internal/errors"
)

// minPasswordEntropy is the go-password-validator threshold. 60 bits roughly
// corresponds to a 10+ character password with mixed classes.
const minPasswordEntropy = 60

type Account struct {
	ID           string `gorm:"primaryKey"`                 // Unique identifier for the account
	Email        string `gorm:"uniqueIndex;not null"`       // Lowercased email address
	Name         string `gorm:"not null"`                   // Display name shown in the app
	PasswordHash string `gorm:"not null" json:"-"`          // Hashed password - never serialize

	EmailVerified              bool       // Has the verification link been followed
	VerificationTokenHash      string     `json:"-"` // sha256 of the emailed verification token
	VerificationTokenExpiresAt *time.Time `json:"-"`
	ResetTokenHash             string     `json:"-"` // sha256 of the emailed password-reset token
	ResetTokenExpiresAt        *time.Time `json:"-"`

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Projection is the account view returned to callers after a successful
// authorization. It deliberately excludes the password hash and token fields.
type Projection struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

func (a *Account) Projection() Projection {
	return Projection{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
	}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lowercases and trims an email for use as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail checks the basic local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePasswordStrength rejects passwords below the entropy threshold.
func ValidatePasswordStrength(password string) error {
	if err := passwordvalidator.Validate(password, minPasswordEntropy); err != nil {
		return apperrors.Wrapf(apperrors.ErrValidation, "password too weak: %s", err.Error())
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
