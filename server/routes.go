package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/server/ui"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// ACCOUNT
	s.RegisterRouteHandler("GET "+RouteSignIn, ChainMiddleware(s.SignInGetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSignIn, ChainMiddleware(s.SignInPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteSignUp, ChainMiddleware(s.SignUpGetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSignUp, ChainMiddleware(s.SignUpPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailGetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// DASHBOARD
	guarded := s.HTMLMiddleWare(s.NoStoreMiddleware, s.RequireSession())
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteDashboardAPIKeys, ChainMiddleware(s.CreateAPIKeyHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteDashboardAPIKeyDelete, ChainMiddleware(s.DeleteAPIKeyHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteDashboardProfile, ChainMiddleware(s.UpdateProfileHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteDashboardAccountDelete, ChainMiddleware(s.DeleteAccountHandler(), guarded...))
	s.RegisterRouteHandler("GET "+RouteUsage, ChainMiddleware(s.UsageHandler(), guarded...))

	// DOCS
	s.RegisterRouteHandler("GET "+RouteDocs, ChainMiddleware(s.DocsHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RoutePlayground, ChainMiddleware(s.PlaygroundHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RoutePlayground, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	errorString := ui.Red + error + ui.ResetColor
	log.Warn().Msg(fmt.Sprintf("[%-19s] %s %s", displayMethod(method), path, errorString))
}
