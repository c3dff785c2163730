package session

import (
	"net/http"
	"sync"
)

var _ Store = (*CookieStore)(nil)

// CookieOptions controls the attributes written on session cookies
type CookieOptions struct {
	// Secure forces the Secure attribute; otherwise it follows the request scheme
	Secure   bool
	HTTPOnly bool
}

// CookieStore is a request-scoped Store. Reads come from the incoming request's cookies,
// writes become Set-Cookie headers on the response. Values written during the request are
// kept in an overlay so later reads in the same request observe them.
type CookieStore struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	mu      sync.Mutex
	overlay map[string]string
}

// NewCookieStore binds a store to one request/response pair
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	return &CookieStore{
		w:       w,
		r:       r,
		opts:    opts,
		overlay: make(map[string]string),
	}
}

func (s *CookieStore) Set(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write(AccessTokenCookie, accessToken, 0)
	if refreshToken != "" {
		s.write(RefreshTokenCookie, refreshToken, 0)
	}
}

func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write(AccessTokenCookie, "", -1)
	s.write(RefreshTokenCookie, "", -1)
}

func (s *CookieStore) AccessToken() string {
	return s.read(AccessTokenCookie)
}

func (s *CookieStore) RefreshToken() string {
	return s.read(RefreshTokenCookie)
}

func (s *CookieStore) HasValidSession() bool {
	return s.AccessToken() != ""
}

func (s *CookieStore) read(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.overlay[name]; ok {
		return value
	}
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// write must be called with mu held. maxAge < 0 deletes the cookie.
func (s *CookieStore) write(name, value string, maxAge int) {
	s.overlay[name] = value
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cookiePath,
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure || isSecureRequest(s.r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
