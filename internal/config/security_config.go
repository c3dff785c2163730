package config

type SecurityConfig interface {
	GetCookieSecure() bool
	GetCookieHTTPOnly() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetCookieSecure forces the Secure flag on session cookies even behind plain HTTP proxies.
func (Security) GetCookieSecure() bool {
	return GetEnvBool("COOKIE_SECURE", false)
}

func (Security) GetCookieHTTPOnly() bool {
	return GetEnvBool("COOKIE_HTTP_ONLY", true)
}
