package gateway

import (
	"context"
	"net/http"

	"github.com/sekai-set-on/web-portal/apiclient"
)

const (
	routeUserDetail = "/user/detail"
	routeUserUpdate = "/user/update"
	routeUserDelete = "/user/delete"
)

func (g *Gateway) UserDetail(ctx context.Context) (*APIResponse[User], error) {
	var out APIResponse[User]
	_, err := g.do(ctx, call{
		op:       "user-detail",
		fallback: "Failed to fetch user details.",
		path:     routeUserDetail,
		auth:     apiclient.BearerAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) UserUpdate(ctx context.Context, req UserUpdateRequest) (*APIResponse[User], error) {
	var out APIResponse[User]
	_, err := g.do(ctx, call{
		op:       "user-update",
		fallback: "Failed to update user.",
		method:   http.MethodPatch,
		path:     routeUserUpdate,
		body:     req,
		auth:     apiclient.BearerAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) UserDelete(ctx context.Context) error {
	_, err := g.do(ctx, call{
		op:       "user-delete",
		fallback: "Failed to delete user.",
		method:   http.MethodDelete,
		path:     routeUserDelete,
		auth:     apiclient.BearerAuth(),
	}, nil)
	return err
}
