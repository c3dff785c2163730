package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/apiclient"
	"github.com/sekai-set-on/web-portal/dashboard"
	"github.com/sekai-set-on/web-portal/gateway"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
	"github.com/sekai-set-on/web-portal/session"
)

const msgSessionExpired = "Session expired"

// sessionFor binds a cookie backed session store to one request
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.CookieStore {
	return session.NewCookieStore(w, r, s.cookies)
}

func (s *Server) gatewayFor(store session.Store) *gateway.Gateway {
	return gateway.New(s.client, store)
}

// aggregatorFor builds the dashboard state for one request over its cookie session
func (s *Server) aggregatorFor(w http.ResponseWriter, r *http.Request) (*dashboard.Aggregator, *session.CookieStore) {
	store := s.sessionFor(w, r)
	return dashboard.New(s.gatewayFor(store), store, s.config.GetMonthlyAPILimit()), store
}

// sessionExpired handles errors that mean the browser session is no longer usable: the
// cookies are cleared and the user is sent back to sign in. It reports whether it wrote
// the response.
func sessionExpired(w http.ResponseWriter, r *http.Request, store session.Store, err error) bool {
	var refreshErr *apiclient.RefreshError
	if !apperrors.As(err, &refreshErr) && !apperrors.Is(err, apperrors.ErrMissingCredential) {
		return false
	}
	log.Info().Err(err).Msg("Session expired")
	store.Clear()
	redirectWithError(w, r, RouteSignIn, msgSessionExpired)
	return true
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withQuery(path, "error", errorMsg))
}

// redirectWithNotice carries a confirmation message to the next page
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	redirectSuccess(w, r, withQuery(path, "notice", notice))
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
