package server

import (
	"net/http"
)

// RequireSession is middleware for the dashboard pages. Only the presence of the
// access-token cookie is checked here; an expired token is renewed or rejected by the
// backend when the page loads.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !s.sessionFor(w, r).HasValidSession() {
				redirectSuccess(w, r, RouteSignIn)
				return
			}
			next(w, r)
		}
	}
}
