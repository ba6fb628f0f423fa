package config

type Config interface {
	EnvConfig
	SecurityConfig
	RateLimitConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetDatabaseDSN() string
	GetSmtpHost() string
	GetSmtpPort() int
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpFrom() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Security
	RateLimits
}

func New() Config {
	return mainConfig{}
}
