package config

type LimitsConfig interface {
	GetMonthlyAPILimit() int
	GetPlaygroundRateLimit() int
	GetRedisURL() string
}

type Limits struct{}

var _ LimitsConfig = Limits{}

// GetMonthlyAPILimit is the ceiling shown next to the monthly usage counter.
func (Limits) GetMonthlyAPILimit() int {
	return GetEnvInt("MONTHLY_API_LIMIT", 10000)
}

// GetPlaygroundRateLimit is the number of playground calls allowed per API key per minute.
func (Limits) GetPlaygroundRateLimit() int {
	return GetEnvInt("PLAYGROUND_RATE_LIMIT", 100)
}

// GetRedisURL enables the shared playground limiter when set.
func (Limits) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}
