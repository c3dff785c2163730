package server

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/gateway"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
)

const (
	headerAPIKey             = "X-Api-Key"
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
)

// playgroundService is one developer service the docs page can try out
type playgroundService struct {
	Name        string
	BackendPath string
	Description string
	Params      []string
	call        func(ctx context.Context, gw *gateway.Gateway, apiKey string, q url.Values) (any, error)
}

func playgroundServices() map[string]playgroundService {
	services := []playgroundService{
		{
			Name:        "news",
			BackendPath: "/news/list",
			Description: "Latest Japanese news headlines",
			call: func(ctx context.Context, gw *gateway.Gateway, key string, _ url.Values) (any, error) {
				return gw.ListNews(ctx, key)
			},
		},
		{
			Name:        "news-filter",
			BackendPath: "/news/filter",
			Description: "News whose title contains a phrase",
			Params:      []string{"title"},
			call: func(ctx context.Context, gw *gateway.Gateway, key string, q url.Values) (any, error) {
				return gw.FilterNews(ctx, key, q.Get("title"))
			},
		},
		{
			Name:        "tts-characters",
			BackendPath: "/tts/list_characters",
			Description: "Voices available for text to speech",
			call: func(ctx context.Context, gw *gateway.Gateway, key string, _ url.Values) (any, error) {
				return gw.ListCharacters(ctx, key)
			},
		},
		{
			Name:        "tts",
			BackendPath: "/tts/change",
			Description: "Synthesize Japanese text with a character voice",
			Params:      []string{"text", "char", "mode"},
			call: func(ctx context.Context, gw *gateway.Gateway, key string, q url.Values) (any, error) {
				return gw.ChangeTTS(ctx, key, q.Get("text"), q.Get("char"), q.Get("mode"))
			},
		},
		{
			Name:        "train",
			BackendPath: "/train/list",
			Description: "Stations filtered by city and prefecture",
			Params:      []string{"city", "prefecture"},
			call: func(ctx context.Context, gw *gateway.Gateway, key string, q url.Values) (any, error) {
				return gw.ListTrain(ctx, key, q.Get("city"), q.Get("prefecture"))
			},
		},
		{
			Name:        "train-schedule",
			BackendPath: "/train/schedule",
			Description: "Routes between two stations on a date (YYYY-MM-DD) at a time (HH:MM)",
			Params:      []string{"from_station", "to_station", "date", "time"},
			call: func(ctx context.Context, gw *gateway.Gateway, key string, q url.Values) (any, error) {
				date, at, err := parseSchedule(q.Get("date"), q.Get("time"))
				if err != nil {
					return nil, err
				}
				return gw.ScheduleTrain(ctx, key, q.Get("from_station"), q.Get("to_station"), date, at)
			},
		},
		{
			Name:        "weather",
			BackendPath: "/weather/forecast",
			Description: "Forecast for a city",
			Params:      []string{"city"},
			call: func(ctx context.Context, gw *gateway.Gateway, key string, q url.Values) (any, error) {
				return gw.ForecastWeather(ctx, key, q.Get("city"))
			},
		},
	}

	byName := make(map[string]playgroundService, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc
	}
	return byName
}

func parseSchedule(date, at string) (time.Time, gateway.TimeOfDay, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, gateway.TimeOfDay{}, apperrors.Wrapf(apperrors.ErrInvalidParameter, "date %q", date)
	}
	clock, err := time.Parse("15:04", at)
	if err != nil {
		return time.Time{}, gateway.TimeOfDay{}, apperrors.Wrapf(apperrors.ErrInvalidParameter, "time %q", at)
	}
	return day, gateway.TimeOfDay{Hour: clock.Hour(), Minute: clock.Minute()}, nil
}

// PlaygroundHandler proxies a docs page "try it" call to the backend using the caller's
// own API key. Calls are rate limited per key.
func (s *Server) PlaygroundHandler() http.HandlerFunc {
	services := playgroundServices()

	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := services[r.PathValue("service")]
		if !ok {
			writeJSONError(w, http.StatusNotFound, apperrors.ErrUnknownService.Error())
			return
		}

		apiKey := strings.TrimSpace(r.Header.Get(headerAPIKey))
		if apiKey == "" {
			writeJSONError(w, http.StatusUnauthorized, "API key is required")
			return
		}

		decision, err := s.limiter.Allow(r.Context(), apiKey)
		if err != nil {
			log.Warn().Err(err).Msg("Playground rate limiter unavailable")
		}
		w.Header().Set(headerRateLimitLimit, strconv.Itoa(decision.Limit))
		w.Header().Set(headerRateLimitRemaining, strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			log.Warn().Str("service", svc.Name).Msg("Rate limit exceeded")
			writeJSONError(w, http.StatusTooManyRequests, apperrors.ErrRateLimited.Error())
			return
		}

		result, err := svc.call(r.Context(), s.gatewayFor(nil), apiKey, r.URL.Query())
		if err != nil {
			writeJSONError(w, playgroundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func playgroundStatus(err error) int {
	if apperrors.Is(err, apperrors.ErrInvalidParameter) {
		return http.StatusBadRequest
	}
	var gwErr *gateway.Error
	if apperrors.As(err, &gwErr) && gwErr.StatusCode >= 400 {
		return gwErr.StatusCode
	}
	return http.StatusBadGateway
}

// PreflightHandler answers OPTIONS requests the CORS middleware passes through
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// DocsPageData is the documentation page model
type DocsPageData struct {
	PageData
	Services  []playgroundService
	RateLimit int
}

func (s *Server) DocsHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("docs.html")

	var services []playgroundService
	for _, svc := range playgroundServices() {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, http.StatusOK, DocsPageData{
			PageData:  s.pageData(w, r, "API documentation"),
			Services:  services,
			RateLimit: s.config.GetPlaygroundRateLimit(),
		})
	}
}
