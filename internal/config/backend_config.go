package config

import "time"

// BackendConfig describes how the portal reaches the platform REST API.
type BackendConfig interface {
	GetRestAPIURL() string
	GetRequestTimeout() time.Duration
	GetCoalesceRefresh() bool
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetRestAPIURL() string {
	return GetEnv("RESTAPI_URL", "http://localhost:8000")
}

func (Backend) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
}

// GetCoalesceRefresh reports whether concurrent token refreshes share one backend call.
func (Backend) GetCoalesceRefresh() bool {
	return GetEnvBool("COALESCE_REFRESH", false)
}
