package config

import "time"

type SecurityConfig interface {
	GetSessionSecret() []byte
	GetSessionMaxAge() time.Duration
	GetVerificationTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionSecret() []byte {
	return []byte(GetEnv(jwtSecretVar, "storytail-dev-secret"))
}

func (Security) GetSessionMaxAge() time.Duration {
	return 30 * 24 * time.Hour // Session cookies live for 30 days
}

func (Security) GetVerificationTokenTTL() time.Duration {
	return 24 * time.Hour
}

func (Security) GetResetTokenTTL() time.Duration {
	return time.Hour
}

// GetSecureCookies reports whether session cookies should carry the Secure
// attribute. Disabled outside production so local HTTP development works.
func (s Security) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() == "PROD"
}
