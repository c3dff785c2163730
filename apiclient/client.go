// Package apiclient is the single dispatch point for calls to the platform REST API. It
// attaches credentials and transparently renews an expired session once per request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
	"github.com/sekai-set-on/web-portal/session"
	"golang.org/x/sync/singleflight"
)

const (
	// RouteRefresh is the backend endpoint minting a new access token from the refresh cookie
	RouteRefresh = "/auth/refresh"

	maxResponseBytes = 2 * 1024 * 1024
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "sekai-set-on-web"
)

// Config configures a Client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// CoalesceRefresh lets concurrent 401s holding the same refresh token share one refresh call
	CoalesceRefresh bool
	// HTTPClient overrides the underlying client; Timeout is ignored when set
	HTTPClient *http.Client
}

// Client sends requests to the backend on behalf of one session store
type Client struct {
	baseURL         string
	userAgent       string
	httpClient      *http.Client
	store           session.Store
	coalesceRefresh bool
	refreshGroup    *singleflight.Group
}

// New creates a client bound to store. store may be nil for clients that only make
// unauthenticated or API key calls.
func New(cfg Config, store session.Store) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidBaseURL, "parse %q", baseURL)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidBaseURL, "validate %q", baseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		userAgent:       userAgent,
		httpClient:      httpClient,
		store:           store,
		coalesceRefresh: cfg.CoalesceRefresh,
		refreshGroup:    &singleflight.Group{},
	}, nil
}

// WithStore returns a client sharing this client's transport and refresh group but
// reading and writing tokens through store. Used to bind a long-lived client to a
// request-scoped cookie store.
func (c *Client) WithStore(store session.Store) *Client {
	clone := *c
	clone.store = store
	return &clone
}

// Store returns the session store the client reads tokens from
func (c *Client) Store() session.Store {
	return c.store
}

// Do sends req. A bearer request answered with 401 is retried exactly once after a
// successful refresh; if the refresh fails its *RefreshError is returned instead of the
// 401 and the session is left untouched. Non-2xx responses are returned together with an
// *HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	authorization, err := c.authorization(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, authorization, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && req.Auth.Mode == AuthBearer && !req.retried {
		req.retried = true

		accessToken, err := c.refresh(ctx)
		if err != nil {
			log.Warn().Err(err).Str("path", req.Path).Msg("Token refresh failed")
			return nil, err
		}
		c.store.Set(accessToken, "")

		resp, err = c.send(ctx, req, "Bearer "+accessToken, nil)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &HTTPError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}
	return resp, nil
}

// DoJSON sends req and decodes a successful body into out (when out is non-nil)
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (c *Client) authorization(req *Request) (string, error) {
	switch req.Auth.Mode {
	case AuthBearer:
		if c.store == nil {
			return "", apperrors.ErrMissingCredential
		}
		token := c.store.AccessToken()
		if token == "" {
			return "", apperrors.ErrMissingCredential
		}
		return "Bearer " + token, nil
	case AuthAPIKey:
		if strings.TrimSpace(req.Auth.APIKey) == "" {
			return "", apperrors.ErrMissingAPIKey
		}
		return "ApiKey " + req.Auth.APIKey, nil
	default:
		return "", nil
	}
}

// refresh obtains a new access token. It never goes through Do, so a 401 from the
// refresh endpoint cannot recurse.
func (c *Client) refresh(ctx context.Context) (string, error) {
	if c.store == nil {
		return "", &RefreshError{Err: apperrors.ErrNoRefreshToken}
	}
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return "", &RefreshError{Err: apperrors.ErrNoRefreshToken}
	}

	if !c.coalesceRefresh {
		return c.doRefresh(ctx, refreshToken)
	}

	ch := c.refreshGroup.DoChan(refreshToken, func() (any, error) {
		return c.doRefresh(context.WithoutCancel(ctx), refreshToken)
	})
	select {
	case <-ctx.Done():
		return "", &RefreshError{Err: ctx.Err()}
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	}
}

func (c *Client) doRefresh(ctx context.Context, refreshToken string) (string, error) {
	req := &Request{Method: http.MethodPost, Path: RouteRefresh, Body: struct{}{}}
	cookies := []*http.Cookie{{Name: session.RefreshTokenCookie, Value: refreshToken}}

	resp, err := c.send(ctx, req, "", cookies)
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RefreshError{Err: &HTTPError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}}
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.Decode(&body); err != nil {
		return "", &RefreshError{Err: err}
	}
	if body.AccessToken == "" {
		return "", &RefreshError{Err: apperrors.ErrEmptyResponse}
	}
	return body.AccessToken, nil
}

func (c *Client) send(ctx context.Context, req *Request, authorization string, cookies []*http.Cookie) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL := c.baseURL + ensureLeadingSlash(req.Path)
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrapf(err, "marshal %s %s body", method, req.Path)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, apperrors.Wrapf(err, "create %s %s request", method, req.Path)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		httpReq.Header.Set("Authorization", authorization)
	}
	for _, cookie := range cookies {
		httpReq.AddCookie(cookie)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrapf(err, "execute %s %s", method, req.Path)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Wrapf(err, "read %s %s response", method, req.Path)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", req.Path).
		Str("auth", req.Auth.Mode.String()).
		Bool("retried", req.retried).
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		cookies:    httpResp.Cookies(),
	}, nil
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
