package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/dashboard"
	"github.com/sekai-set-on/web-portal/gateway"
	"github.com/sekai-set-on/web-portal/validation"
)

// DashboardPageData is the dashboard template model. NewKey is only set on the response to
// a key creation and is shown once.
type DashboardPageData struct {
	PageData
	View        dashboard.View
	NewKey      string
	NewKeyTitle string
}

type UsagePageData struct {
	PageData
	Report *gateway.UsageReport
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		agg, store := s.aggregatorFor(w, r)

		view, err := agg.Load(r.Context())
		if err != nil {
			if sessionExpired(w, r, store, err) {
				return
			}
			log.Err(err).Msg("Failed to load dashboard")
			data := DashboardPageData{PageData: s.pageData(w, r, "Dashboard"), View: view}
			data.Error = err.Error()
			render(w, tmpl, http.StatusBadGateway, data)
			return
		}

		render(w, tmpl, http.StatusOK, DashboardPageData{
			PageData: s.pageData(w, r, "Dashboard"),
			View:     view,
		})
	}
}

// CreateAPIKeyHandler issues a key and renders the dashboard directly so the secret is
// shown in this response and never travels in a redirect URL or cookie.
func (s *Server) CreateAPIKeyHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := validation.APIKeyForm{
			Title:       strings.TrimSpace(r.PostFormValue("title")),
			Description: strings.TrimSpace(r.PostFormValue("desc")),
		}
		if err := form.Validate(); err != nil {
			redirectWithError(w, r, RouteDashboard, validation.Message(err))
			return
		}

		agg, store := s.aggregatorFor(w, r)

		secret, err := agg.CreateAPIKey(r.Context(), form.Title, form.Description)
		if err != nil {
			if sessionExpired(w, r, store, err) {
				return
			}
			redirectWithError(w, r, RouteDashboard, err.Error())
			return
		}
		log.Info().Str("title", form.Title).Msg("API key created")

		snapshot := agg.Snapshot()
		data := DashboardPageData{
			PageData:    s.pageData(w, r, "Dashboard"),
			View:        snapshot.Dashboard.Value,
			NewKey:      secret.Reveal(),
			NewKeyTitle: form.Title,
		}
		if snapshot.Dashboard.Status != dashboard.StatusReady {
			data.Error = "The key was created but the dashboard could not be refreshed."
		}
		render(w, tmpl, http.StatusOK, data)
	}
}

func (s *Server) DeleteAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := r.PathValue("identifier")
		agg, store := s.aggregatorFor(w, r)

		if err := agg.DeleteAPIKey(r.Context(), identifier); err != nil {
			if sessionExpired(w, r, store, err) {
				return
			}
			redirectWithError(w, r, RouteDashboard, err.Error())
			return
		}
		redirectWithNotice(w, r, RouteDashboard, "API key deleted")
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := validation.ProfileForm{
			Name:     strings.TrimSpace(r.PostFormValue("name")),
			Nickname: strings.TrimSpace(r.PostFormValue("nickname")),
		}
		if err := form.Validate(); err != nil {
			redirectWithError(w, r, RouteDashboard, validation.Message(err))
			return
		}

		agg, store := s.aggregatorFor(w, r)

		if err := agg.UpdateUser(r.Context(), form.Name, form.Nickname); err != nil {
			if sessionExpired(w, r, store, err) {
				return
			}
			redirectWithError(w, r, RouteDashboard, err.Error())
			return
		}
		redirectWithNotice(w, r, RouteDashboard, "Profile updated")
	}
}

// DeleteAccountHandler removes the account; the aggregator clears the session cookies
func (s *Server) DeleteAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agg, store := s.aggregatorFor(w, r)

		if err := agg.DeleteUser(r.Context()); err != nil {
			if sessionExpired(w, r, store, err) {
				return
			}
			redirectWithError(w, r, RouteDashboard, err.Error())
			return
		}
		log.Info().Msg("Account deleted")
		redirectSuccess(w, r, RouteHome)
	}
}

func (s *Server) UsageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("usage.html")

	return func(w http.ResponseWriter, r *http.Request) {
		agg, store := s.aggregatorFor(w, r)

		report, err := agg.UsageLogs(r.Context())
		if err != nil {
			if sessionExpired(w, r, store, err) {
				return
			}
			data := UsagePageData{PageData: s.pageData(w, r, "Usage")}
			data.Error = err.Error()
			render(w, tmpl, http.StatusBadGateway, data)
			return
		}

		render(w, tmpl, http.StatusOK, UsagePageData{
			PageData: s.pageData(w, r, "Usage"),
			Report:   report,
		})
	}
}
