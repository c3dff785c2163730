package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sekai-set-on/web-portal/apiclient"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
)

// The Japanese data services authenticate with a developer API key and are never refreshed.

func (g *Gateway) ListNews(ctx context.Context, apiKey string) ([]NewsItem, error) {
	var out []NewsItem
	_, err := g.do(ctx, call{
		op:       "news-list",
		fallback: "Failed to fetch news list.",
		path:     "/news/list",
		auth:     apiclient.APIKeyAuth(apiKey),
	}, &out)
	return out, err
}

func (g *Gateway) FilterNews(ctx context.Context, apiKey, title string) ([]NewsItem, error) {
	var out []NewsItem
	_, err := g.do(ctx, call{
		op:       "news-filter",
		fallback: "Failed to filter news.",
		path:     "/news/filter",
		query:    url.Values{"title": {title}},
		auth:     apiclient.APIKeyAuth(apiKey),
	}, &out)
	return out, err
}

func (g *Gateway) ListCharacters(ctx context.Context, apiKey string) ([]TTSCharacter, error) {
	var out []TTSCharacter
	_, err := g.do(ctx, call{
		op:       "tts-characters",
		fallback: "Failed to fetch character list.",
		path:     "/tts/list_characters",
		auth:     apiclient.APIKeyAuth(apiKey),
	}, &out)
	return out, err
}

func (g *Gateway) ChangeTTS(ctx context.Context, apiKey, text, char, mode string) (*TTSResponse, error) {
	var out TTSResponse
	_, err := g.do(ctx, call{
		op:       "tts-change",
		fallback: "Failed to change text to speech.",
		path:     "/tts/change",
		query:    url.Values{"text": {text}, "char": {char}, "mode": {mode}},
		auth:     apiclient.APIKeyAuth(apiKey),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTrain lists stations. Empty filters are left out of the query.
func (g *Gateway) ListTrain(ctx context.Context, apiKey, city, prefecture string) ([]TrainStation, error) {
	query := url.Values{}
	if city != "" {
		query.Set("city", city)
	}
	if prefecture != "" {
		// the backend spells this parameter "prefekture"
		query.Set("prefekture", prefecture)
	}

	var out []TrainStation
	_, err := g.do(ctx, call{
		op:       "train-list",
		fallback: "Failed to fetch train list.",
		path:     "/train/list",
		query:    query,
		auth:     apiclient.APIKeyAuth(apiKey),
	}, &out)
	return out, err
}

// ScheduleTrain looks up routes departing on date (its calendar day, YYYY-MM-DD) at the
// given time (HH:MM).
func (g *Gateway) ScheduleTrain(ctx context.Context, apiKey, fromStation, toStation string, date time.Time, at TimeOfDay) ([]TrainRoute, error) {
	const op, fallback = "train-schedule", "Failed to fetch train schedule."

	if at.Hour < 0 || at.Hour > 23 || at.Minute < 0 || at.Minute > 59 {
		return nil, &Error{
			Op:      op,
			Message: fallback,
			Err:     apperrors.Wrapf(apperrors.ErrInvalidParameter, "time %d:%d", at.Hour, at.Minute),
		}
	}

	var out []TrainRoute
	_, err := g.do(ctx, call{
		op:       op,
		fallback: fallback,
		path:     "/train/schedule",
		query: url.Values{
			"from_station": {fromStation},
			"to_station":   {toStation},
			"date":         {date.Format(time.DateOnly)},
			"time":         {fmt.Sprintf("%02d:%02d", at.Hour, at.Minute)},
		},
		auth: apiclient.APIKeyAuth(apiKey),
	}, &out)
	return out, err
}

func (g *Gateway) ForecastWeather(ctx context.Context, apiKey, city string) ([]WeatherForecast, error) {
	var out []WeatherForecast
	_, err := g.do(ctx, call{
		op:       "weather-forecast",
		fallback: "Failed to fetch forecast weather",
		path:     "/weather/forecast",
		query:    url.Values{"city": {city}},
		auth:     apiclient.APIKeyAuth(apiKey),
	}, &out)
	return out, err
}
