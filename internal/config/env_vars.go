package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	baseURLVar    = "BASE_URL"
	databaseVar   = "DATABASE_DSN"
	smtpHostVar   = "SMTP_HOST"
	smtpPortVar   = "SMTP_PORT"
	smtpUserVar   = "SMTP_ACCOUNT"
	smtpPassVar   = "SMTP_PASSWORD"
	smtpFromVar   = "SMTP_FROM"
	jwtSecretVar  = "SESSION_SECRET"
	environmentVar = "ENV"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Storytail")
}

// GetBaseURL returns the externally visible base URL, used when building
// verification and password-reset links.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetDatabaseDSN() string {
	return GetEnv(databaseVar, "host=localhost user=storytail password=storytail dbname=storytail port=5432 sslmode=disable TimeZone=UTC")
}

func (EnvVars) GetSmtpHost() string {
	return GetEnv(smtpHostVar, "smtp.gmail.com")
}

func (EnvVars) GetSmtpPort() int {
	port, err := strconv.Atoi(GetEnv(smtpPortVar, "587"))
	if err != nil {
		return 587
	}
	return port
}

func (EnvVars) GetSmtpAccount() string {
	return GetEnv(smtpUserVar, "")
}

func (EnvVars) GetSmtpPassword() string {
	return GetEnv(smtpPassVar, "")
}

func (EnvVars) GetSmtpFrom() string {
	return GetEnv(smtpFromVar, "Storytail <no-reply@storytail.app>")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(environmentVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
