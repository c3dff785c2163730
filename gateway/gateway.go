// Package gateway wraps each backend endpoint in a typed call and normalizes failures
// into user-facing messages.
package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/apiclient"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
	"github.com/sekai-set-on/web-portal/session"
)

// Error is a normalized gateway failure. Message is the backend's detail when it sent
// one, otherwise the operation's fallback text.
type Error struct {
	Op         string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Gateway issues typed calls against the backend for one session
type Gateway struct {
	client *apiclient.Client
	store  session.Store
}

// New binds client to store. store may be nil for API key only use.
func New(client *apiclient.Client, store session.Store) *Gateway {
	return &Gateway{
		client: client.WithStore(store),
		store:  store,
	}
}

// Store returns the session store this gateway reads and writes
func (g *Gateway) Store() session.Store {
	return g.store
}

type call struct {
	op       string
	fallback string
	method   string
	path     string
	query    url.Values
	body     any
	auth     apiclient.Auth
}

func (g *Gateway) do(ctx context.Context, c call, out any) (*apiclient.Response, error) {
	if c.auth.Mode == apiclient.AuthBearer && (g.store == nil || g.store.AccessToken() == "") {
		return nil, normalize(c.op, c.fallback, apperrors.ErrMissingCredential)
	}

	method := c.method
	if method == "" {
		method = http.MethodGet
	}
	resp, err := g.client.Do(ctx, &apiclient.Request{
		Method: method,
		Path:   c.path,
		Query:  c.query,
		Body:   c.body,
		Auth:   c.auth,
	})
	if err != nil {
		return resp, normalize(c.op, c.fallback, err)
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return resp, normalize(c.op, c.fallback, err)
		}
	}
	return resp, nil
}

func normalize(op, fallback string, err error) *Error {
	gwErr := &Error{Op: op, Message: fallback, Err: err}

	if apperrors.Is(err, apperrors.ErrMissingCredential) {
		gwErr.Message = apperrors.ErrMissingCredential.Error()
		return gwErr
	}

	var httpErr *apiclient.HTTPError
	if apperrors.As(err, &httpErr) {
		gwErr.StatusCode = httpErr.StatusCode
		if detail := httpErr.Detail(); detail != "" {
			gwErr.Message = detail
		}
	}

	log.Debug().Err(err).Str("op", op).Int("status", gwErr.StatusCode).Msg("gateway call failed")
	return gwErr
}
