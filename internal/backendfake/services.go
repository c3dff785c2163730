package backendfake

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var errInvalidCode = errors.New("invalid verification code")

var newsFixtures = []map[string]string{
	{
		"title":        "Shinkansen timetable revised for spring",
		"summary":      "JR Central adds early departures on the Tokaido line.",
		"content":      "Additional Nozomi services will run from March.",
		"link":         "https://news.example.jp/shinkansen-spring",
		"published_at": "2025-02-14T09:00:00Z",
	},
	{
		"title":        "Cherry blossom forecast released",
		"summary":      "Tokyo blossoms are expected in late March.",
		"content":      "The Japan Meteorological Corporation published its first forecast.",
		"link":         "https://news.example.jp/sakura-forecast",
		"published_at": "2025-02-20T06:30:00Z",
	},
}

var characterFixtures = []map[string]any{
	{"character": "Zundamon", "style": "normal", "speaker_id": 3},
	{"character": "Shikoku Metan", "style": "sweet", "speaker_id": 0},
}

var stationFixtures = []map[string]any{
	{"romaji": "Tokyo", "city": "Chiyoda", "prefecture": "Tokyo", "lat": 35.6812, "lon": 139.7671},
	{"romaji": "Shinjuku", "city": "Shinjuku", "prefecture": "Tokyo", "lat": 35.6896, "lon": 139.7006},
	{"romaji": "Umeda", "city": "Osaka", "prefecture": "Osaka", "lat": 34.7055, "lon": 135.4983},
}

func (b *Backend) newsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newsFixtures)
}

func (b *Backend) newsFilter(w http.ResponseWriter, r *http.Request) {
	title := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("title")))
	out := make([]map[string]string, 0)
	for _, item := range newsFixtures {
		if strings.Contains(strings.ToLower(item["title"]), title) {
			out = append(out, item)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) ttsCharacters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, characterFixtures)
}

func (b *Backend) ttsChange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("text") == "" || q.Get("char") == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "text and char are required")
		return
	}
	id := fmt.Sprintf("%x", time.Now().UnixNano())
	writeJSON(w, http.StatusOK, map[string]string{
		"character":     q.Get("char"),
		"mode":          q.Get("mode"),
		"text":          q.Get("text"),
		"download_url":  "https://tts.example.jp/download/" + id,
		"streaming_url": "https://tts.example.jp/stream/" + id,
	})
}

func (b *Backend) trainList(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	prefecture := r.URL.Query().Get("prefekture")
	out := make([]map[string]any, 0)
	for _, s := range stationFixtures {
		if city != "" && !strings.EqualFold(s["city"].(string), city) {
			continue
		}
		if prefecture != "" && !strings.EqualFold(s["prefecture"].(string), prefecture) {
			continue
		}
		out = append(out, s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) trainSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := time.Parse(time.DateOnly, q.Get("date"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}
	departure, err := time.Parse("15:04", q.Get("time"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "time must be HH:MM")
		return
	}
	from, to := q.Get("from_station"), q.Get("to_station")
	if from == "" || to == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "from_station and to_station are required")
		return
	}

	arrival := departure.Add(95 * time.Minute)
	writeJSON(w, http.StatusOK, []map[string]any{{
		"route_number":   1,
		"departure_time": date.Format(time.DateOnly) + " " + departure.Format("15:04"),
		"arrival_time":   date.Format(time.DateOnly) + " " + arrival.Format("15:04"),
		"duration":       "1h35m",
		"fare":           "¥14,720",
		"labels":         []string{"fastest"},
		"detailed_route": map[string]any{
			"stations":   []string{from, to},
			"lines":      []string{"Tokaido Shinkansen"},
			"transfers":  []string{},
			"total_fare": "¥14,720",
		},
	}})
}

func (b *Backend) weatherForecast(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "city is required")
		return
	}
	start := time.Now().UTC()
	out := make([]map[string]any, 0, 3)
	for i := range 3 {
		out = append(out, map[string]any{
			"date":            start.AddDate(0, 0, i).Format(time.DateOnly),
			"temperature_min": 8.5 + float64(i),
			"temperature_max": 16.0 + float64(i),
			"weather_code":    1 + i,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
