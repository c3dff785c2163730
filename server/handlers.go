package server

import (
	"encoding/json"
	"net/http"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// PageData is the template model shared by every page
type PageData struct {
	AppName  string
	Title    string
	SignedIn bool
	Error    string
	Notice   string
	Form     map[string]string
}

func (s *Server) pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	return PageData{
		AppName:  s.config.GetAppName(),
		Title:    title,
		SignedIn: s.sessionFor(w, r).HasValidSession(),
		Error:    r.URL.Query().Get("error"),
		Notice:   r.URL.Query().Get("notice"),
		Form:     map[string]string{},
	}
}

// IndexHandler renders the landing page
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, http.StatusOK, s.pageData(w, r, "Japanese services for developers"))
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an error in the backend's {"detail": ...} shape
func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
