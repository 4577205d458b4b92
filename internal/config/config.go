package config

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetAppName() string
	GetUsername() string
	GetPassword() string
	GetBaseURL() string
	GetLocale() string
	GetTimeZone() string
	GetCredentialDir() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
