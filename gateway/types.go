package gateway

// APIResponse is the envelope used by the account endpoints
type APIResponse[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// User is the account projection returned by /user/detail
type User struct {
	Name                string   `json:"name"`
	Nickname            string   `json:"nickname"`
	Email               string   `json:"email"`
	Activate            bool     `json:"activate"`
	APIKeys             []APIKey `json:"api_keys,omitempty"`
	TotalAPIUsage       int      `json:"total_api_usage"`
	AverageSuccessRate  float64  `json:"average_success_rate"`
	AverageErrorRate    float64  `json:"average_error_rate"`
	AverageResponseTime float64  `json:"average_response_time"`
}

// APIKey is a developer key as listed by the backend. It never carries the raw secret.
type APIKey struct {
	Identifier    string      `json:"identifier"`
	Title         string      `json:"title"`
	Detail        string      `json:"detail"`
	CreatedAt     string      `json:"created_at,omitempty"`
	Expired       *string     `json:"expired,omitempty"`
	TotalRequests int         `json:"total_requests,omitempty"`
	Logs          []APIKeyLog `json:"logs,omitempty"`
}

// UsageReport is the /api-key/usage payload: every key with its logs plus the overall count
type UsageReport struct {
	Status        string   `json:"status"`
	TotalRequests int      `json:"total_requests"`
	Data          []APIKey `json:"data"`
}

// APIKeyLog is one metered call made with a key
type APIKeyLog struct {
	Endpoint     string  `json:"endpoint"`
	Method       string  `json:"method"`
	StatusCode   int     `json:"status_code"`
	ResponseTime float64 `json:"response_time"`
	Timestamp    string  `json:"timestamp"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

// SignInRequest identifies the account by email or nickname
type SignInRequest struct {
	Identification string `json:"identification"`
	Password       string `json:"password"`
}

type VerifyEmailRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verification_code"`
}

type UserUpdateRequest struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

type APIKeyCreateRequest struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type NewsItem struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
}

type TTSCharacter struct {
	Character string `json:"character"`
	Style     string `json:"style"`
	SpeakerID int    `json:"speaker_id"`
}

type TTSResponse struct {
	Character    string `json:"character"`
	Mode         string `json:"mode"`
	Text         string `json:"text"`
	DownloadURL  string `json:"download_url"`
	StreamingURL string `json:"streaming_url"`
}

type TrainStation struct {
	Romaji     string  `json:"romaji"`
	City       string  `json:"city"`
	Prefecture string  `json:"prefecture"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

type DetailedRoute struct {
	Stations  []string `json:"stations"`
	Lines     []string `json:"lines"`
	Transfers []string `json:"transfers"`
	TotalFare string   `json:"total_fare"`
}

type TrainRoute struct {
	RouteNumber   int           `json:"route_number"`
	DepartureTime string        `json:"departure_time"`
	ArrivalTime   string        `json:"arrival_time"`
	Duration      string        `json:"duration"`
	Fare          string        `json:"fare"`
	Labels        []string      `json:"labels"`
	DetailedRoute DetailedRoute `json:"detailed_route"`
}

type WeatherForecast struct {
	Date           string  `json:"date"`
	TemperatureMin float64 `json:"temperature_min"`
	TemperatureMax float64 `json:"temperature_max"`
	WeatherCode    int     `json:"weather_code"`
}

// TimeOfDay is a departure time for train schedule lookups
type TimeOfDay struct {
	Hour   int
	Minute int
}
