package backendfake

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const refreshCookie = "refresh_token"

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/signup", b.signUp)
	mux.HandleFunc("POST /auth/signin", b.signIn)
	mux.HandleFunc("POST /auth/verification", b.verify)
	mux.HandleFunc("POST /auth/refresh", b.refresh)

	mux.HandleFunc("GET /user/detail", b.requireBearer(b.userDetail))
	mux.HandleFunc("PATCH /user/update", b.requireBearer(b.userUpdate))
	mux.HandleFunc("DELETE /user/delete", b.requireBearer(b.userDelete))

	mux.HandleFunc("POST /api-key/create", b.requireBearer(b.createKey))
	mux.HandleFunc("GET /api-key/list", b.requireBearer(b.listKeys(false)))
	mux.HandleFunc("GET /api-key/usage", b.requireBearer(b.listKeys(true)))
	mux.HandleFunc("DELETE /api-key/delete/{identifier}", b.requireBearer(b.deleteKey))

	mux.HandleFunc("GET /news/list", b.requireAPIKey(b.newsList))
	mux.HandleFunc("GET /news/filter", b.requireAPIKey(b.newsFilter))
	mux.HandleFunc("GET /tts/list_characters", b.requireAPIKey(b.ttsCharacters))
	mux.HandleFunc("GET /tts/change", b.requireAPIKey(b.ttsChange))
	mux.HandleFunc("GET /train/list", b.requireAPIKey(b.trainList))
	mux.HandleFunc("GET /train/schedule", b.requireAPIKey(b.trainSchedule))
	mux.HandleFunc("GET /weather/forecast", b.requireAPIKey(b.weatherForecast))

	return b.intercept(mux)
}

type accountHandler func(w http.ResponseWriter, r *http.Request, accountID string)

func (b *Backend) requireBearer(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		accountID, err := b.tokens.verifyAccess(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Token expired or invalid")
			return
		}
		if _, err := b.accounts.get(accountID); err != nil {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		next(w, r, accountID)
	}
}

func (b *Backend) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret, ok := strings.CutPrefix(r.Header.Get("Authorization"), "ApiKey ")
		if !ok || secret == "" {
			writeDetail(w, http.StatusUnauthorized, "API key required")
			return
		}
		a, key, err := b.accounts.byKey(secret)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		b.accounts.record(a.ID, key, keyLog{
			Endpoint:     r.URL.Path,
			Method:       r.Method,
			StatusCode:   rec.status,
			ResponseTime: float64(time.Since(start).Microseconds()) / 1000,
			Timestamp:    start.UTC(),
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (b *Backend) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid signup payload")
		return
	}
	if _, err := b.accounts.create(req.Email, req.Nickname, req.Name, req.Password); err != nil {
		writeDetail(w, http.StatusConflict, capitalize(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, envelope(nil, "Verification code sent to email"))
}

func (b *Backend) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identification string `json:"identification"`
		Password       string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid signin payload")
		return
	}

	a, err := b.accounts.byIdentification(req.Identification)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	var hash string
	var activated bool
	_ = b.accounts.read(a.ID, func(a *account) { hash, activated = a.PasswordHash, a.Activated })
	if !checkPasswordHash(req.Password, hash) {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !activated {
		writeDetail(w, http.StatusForbidden, "Email not verified")
		return
	}

	access, err := b.tokens.issueAccess(a.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	refresh, err := b.tokens.issueRefresh(a.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: refresh, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access, "token_type": "bearer"})
}

func (b *Backend) verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email"`
		VerificationCode string `json:"verification_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid verification payload")
		return
	}
	a, err := b.accounts.byIdentification(req.Email)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	err = b.accounts.update(a.ID, func(a *account) error {
		if !strings.EqualFold(a.VerificationCode, strings.TrimSpace(req.VerificationCode)) {
			return errInvalidCode
		}
		a.Activated = true
		return nil
	})
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid verification code")
		return
	}
	writeJSON(w, http.StatusOK, envelope(nil, "Email verified"))
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		writeDetail(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	accountID, err := b.tokens.verifyRefresh(cookie.Value)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Refresh token invalid")
		return
	}
	access, err := b.tokens.issueAccess(accountID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access, "token_type": "bearer"})
}

func (b *Backend) userDetail(w http.ResponseWriter, _ *http.Request, accountID string) {
	var view map[string]any
	_ = b.accounts.read(accountID, func(a *account) { view = userView(a) })
	writeJSON(w, http.StatusOK, envelope(view, ""))
}

func (b *Backend) userUpdate(w http.ResponseWriter, r *http.Request, accountID string) {
	var req struct {
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid update payload")
		return
	}
	var view map[string]any
	_ = b.accounts.update(accountID, func(a *account) error {
		a.Name, a.Nickname = req.Name, req.Nickname
		view = userView(a)
		return nil
	})
	writeJSON(w, http.StatusOK, envelope(view, "User updated"))
}

func (b *Backend) userDelete(w http.ResponseWriter, _ *http.Request, accountID string) {
	if err := b.accounts.delete(accountID); err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope(nil, "User deleted"))
}

func (b *Backend) createKey(w http.ResponseWriter, r *http.Request, accountID string) {
	var req struct {
		Title string `json:"title"`
		Desc  string `json:"desc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Title is required")
		return
	}
	key, err := b.accounts.addKey(accountID, req.Title, req.Desc)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not create API key")
		return
	}
	writeJSON(w, http.StatusCreated, envelope(map[string]string{"api_key": key.Secret}, "API key created"))
}

func (b *Backend) listKeys(withLogs bool) accountHandler {
	return func(w http.ResponseWriter, _ *http.Request, accountID string) {
		var keys []map[string]any
		total := 0
		_ = b.accounts.read(accountID, func(a *account) {
			keys = make([]map[string]any, 0, len(a.Keys))
			for _, k := range a.Keys {
				keys = append(keys, keyView(k, withLogs))
				total += len(k.Logs)
			}
		})
		body := envelope(keys, "")
		if withLogs {
			body["total_requests"] = total
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (b *Backend) deleteKey(w http.ResponseWriter, r *http.Request, accountID string) {
	if err := b.accounts.deleteKey(accountID, r.PathValue("identifier")); err != nil {
		writeDetail(w, http.StatusNotFound, "API key not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope(nil, "API key deleted"))
}

func userView(a *account) map[string]any {
	keys := make([]map[string]any, 0, len(a.Keys))
	for _, k := range a.Keys {
		keys = append(keys, keyView(k, false))
	}
	return map[string]any{
		"name":                  a.Name,
		"nickname":              a.Nickname,
		"email":                 a.Email,
		"activate":              a.Activated,
		"api_keys":              keys,
		"total_api_usage":       a.TotalAPIUsage,
		"average_success_rate":  a.AverageSuccessRate,
		"average_error_rate":    a.AverageErrorRate,
		"average_response_time": a.AverageResponseTime,
	}
}

func keyView(k *apiKey, withLogs bool) map[string]any {
	view := map[string]any{
		"identifier":     k.Identifier,
		"title":          k.Title,
		"detail":         k.Detail,
		"created_at":     k.CreatedAt.Format(time.RFC3339),
		"expired":        nil,
		"total_requests": len(k.Logs),
	}
	if withLogs {
		logs := make([]map[string]any, 0, len(k.Logs))
		for _, l := range k.Logs {
			logs = append(logs, map[string]any{
				"endpoint":      l.Endpoint,
				"method":        l.Method,
				"status_code":   l.StatusCode,
				"response_time": l.ResponseTime,
				"timestamp":     l.Timestamp.Format(time.RFC3339),
			})
		}
		view["logs"] = logs
	}
	return view
}

func envelope(data any, message string) map[string]any {
	out := map[string]any{"status": "success", "data": data}
	if message != "" {
		out["message"] = message
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
