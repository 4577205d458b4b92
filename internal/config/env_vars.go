package config

import "os"

const (
	appNameVar       = "APP_NAME"
	usernameVar      = "DOODLE_USERNAME"
	passwordVar      = "DOODLE_PASSWORD"
	baseURLVar       = "DOODLE_BASE_URL"
	localeVar        = "DOODLE_LOCALE"
	timeZoneVar      = "DOODLE_TIMEZONE"
	credentialDirVar = "DOODLE_CREDENTIAL_DIR"
	logLevelVar      = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Doodle")
}

func (EnvVars) GetUsername() string {
	return GetEnv(usernameVar, "")
}

func (EnvVars) GetPassword() string {
	return GetEnv(passwordVar, "")
}

func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "https://doodle.com")
}

func (EnvVars) GetLocale() string {
	return GetEnv(localeVar, "en_GB")
}

func (EnvVars) GetTimeZone() string {
	return GetEnv(timeZoneVar, "UTC")
}

// GetCredentialDir returns where session cookie files are stored. An empty
// default lets the client fall back to the system temp directory.
func (EnvVars) GetCredentialDir() string {
	return GetEnv(credentialDirVar, "")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
