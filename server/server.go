package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/apiclient"
	"github.com/sekai-set-on/web-portal/internal/config"
	"github.com/sekai-set-on/web-portal/ratelimit"
	"github.com/sekai-set-on/web-portal/server/ui"
	"github.com/sekai-set-on/web-portal/session"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	client  *apiclient.Client
	limiter ratelimit.Limiter
	cors    *cors.Cors
	cookies session.CookieOptions
}

// New wires the portal routes. client is shared by every request; each request binds it to
// its own cookie backed session. A nil limiter falls back to an in-process one.
func New(c config.Config, client *apiclient.Client, limiter ratelimit.Limiter) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("[Server New] backend client is required")
	}
	if limiter == nil {
		limiter = ratelimit.NewLocalLimiter(c.GetPlaygroundRateLimit())
	}

	s := &Server{
		env:     c.GetEnv(),
		mux:     http.NewServeMux(),
		config:  c,
		client:  client,
		limiter: limiter,
		cookies: session.CookieOptions{
			Secure:   c.GetCookieSecure(),
			HTTPOnly: c.GetCookieHTTPOnly(),
		},
	}
	s.cors = cors.New(cors.Options{
		AllowedOrigins: c.GetAllowedOrigins().List(),
		AllowedMethods: c.GetAllowedMethods(),
		AllowedHeaders: c.GetAllowedHeaders(),
		ExposedHeaders: []string{"Retry-After", headerRateLimitLimit, headerRateLimitRemaining},
		MaxAge:         86400,
	})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := ui.MethodColors[method]; ok {
		return color + paddedMethod + ui.ResetColor
	}
	return ui.Gray + paddedMethod + ui.ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", displayMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
