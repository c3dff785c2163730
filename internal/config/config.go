package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	BackendConfig
	CorsConfig
	SecurityConfig
	LimitsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Backend
	Cors
	Security
	Limits
}

// New returns the environment backed configuration. A .env file in the working
// directory is loaded first when present; variables already set win.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
