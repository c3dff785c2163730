package apiclient

import (
	"encoding/json"
	"net/http"
	"net/url"

	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
)

// AuthMode selects how a request is authenticated. The modes are disjoint.
type AuthMode int

const (
	// AuthNone sends no Authorization header
	AuthNone AuthMode = iota
	// AuthBearer sends the session access token and is eligible for transparent refresh
	AuthBearer
	// AuthAPIKey sends a caller-supplied developer key and is never refreshed
	AuthAPIKey
)

func (m AuthMode) String() string {
	switch m {
	case AuthBearer:
		return "bearer"
	case AuthAPIKey:
		return "apikey"
	default:
		return "none"
	}
}

// Auth is the tagged authentication variant of a request
type Auth struct {
	Mode   AuthMode
	APIKey string
}

func NoAuth() Auth { return Auth{Mode: AuthNone} }

func BearerAuth() Auth { return Auth{Mode: AuthBearer} }

func APIKeyAuth(key string) Auth { return Auth{Mode: AuthAPIKey, APIKey: key} }

// Request describes one backend call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Auth   Auth

	// retried is set once the request has been re-issued after a refresh
	retried bool
}

// Retried reports whether the request has already been replayed after a token refresh
func (r *Request) Retried() bool {
	return r.retried
}

// Response is a fully-read backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	cookies    []*http.Cookie
}

// Cookie returns a cookie set by the backend on this response, or nil
func (r *Response) Cookie(name string) *http.Cookie {
	for _, c := range r.cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return apperrors.ErrEmptyResponse
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.Wrapf(err, "decode response body")
	}
	return nil
}
