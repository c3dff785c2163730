package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sekai-set-on/web-portal/apiclient"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
)

const (
	routeAPIKeyCreate = "/api-key/create"
	routeAPIKeyList   = "/api-key/list"
	routeAPIKeyUsage  = "/api-key/usage"
	routeAPIKeyDelete = "/api-key/delete/"
)

// CreateAPIKey issues a new key. The returned secret is the only time the raw key is
// available; callers display it once and drop it.
func (g *Gateway) CreateAPIKey(ctx context.Context, req APIKeyCreateRequest) (APIKeySecret, error) {
	const op, fallback = "api-key-create", "Failed to create API key."

	var out APIResponse[struct {
		APIKey string `json:"api_key"`
	}]
	resp, err := g.do(ctx, call{
		op:       op,
		fallback: fallback,
		method:   http.MethodPost,
		path:     routeAPIKeyCreate,
		body:     req,
		auth:     apiclient.BearerAuth(),
	}, &out)
	if err != nil {
		return APIKeySecret{}, err
	}
	if out.Data.APIKey == "" {
		return APIKeySecret{}, &Error{Op: op, Message: fallback, StatusCode: resp.StatusCode, Err: apperrors.ErrEmptyResponse}
	}
	return NewAPIKeySecret(out.Data.APIKey), nil
}

func (g *Gateway) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var out APIResponse[[]APIKey]
	_, err := g.do(ctx, call{
		op:       "api-key-list",
		fallback: "Failed to fetch API keys.",
		path:     routeAPIKeyList,
		auth:     apiclient.BearerAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// APIKeyUsage lists every key with its request logs
func (g *Gateway) APIKeyUsage(ctx context.Context) (*UsageReport, error) {
	var out UsageReport
	_, err := g.do(ctx, call{
		op:       "api-key-usage",
		fallback: "Failed to fetch API key usage logs.",
		path:     routeAPIKeyUsage,
		auth:     apiclient.BearerAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) DeleteAPIKey(ctx context.Context, identifier string) error {
	_, err := g.do(ctx, call{
		op:       "api-key-delete",
		fallback: "Failed to delete API key.",
		method:   http.MethodDelete,
		path:     routeAPIKeyDelete + url.PathEscape(identifier),
		auth:     apiclient.BearerAuth(),
	}, nil)
	return err
}
