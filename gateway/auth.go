package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/apiclient"
	"github.com/sekai-set-on/web-portal/session"
	"golang.org/x/oauth2"
)

const (
	routeSignUp      = "/auth/signup"
	routeSignIn      = "/auth/signin"
	routeVerifyEmail = "/auth/verification"
)

// SignUp registers a new account. The backend mails a verification code.
func (g *Gateway) SignUp(ctx context.Context, req SignUpRequest) (*APIResponse[any], error) {
	var out APIResponse[any]
	_, err := g.do(ctx, call{
		op:       "signup",
		fallback: "Signup failed.",
		method:   http.MethodPost,
		path:     routeSignUp,
		body:     req,
		auth:     apiclient.NoAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type signInResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SignIn exchanges credentials for a session and persists it in the store. The refresh
// token is taken from the body when present, otherwise from the backend's refresh cookie.
// On failure the store is left untouched.
func (g *Gateway) SignIn(ctx context.Context, req SignInRequest) (*oauth2.Token, error) {
	const op, fallback = "signin", "Signin failed."

	var out signInResponse
	resp, err := g.do(ctx, call{
		op:       op,
		fallback: fallback,
		method:   http.MethodPost,
		path:     routeSignIn,
		body:     req,
		auth:     apiclient.NoAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &Error{Op: op, Message: fallback, StatusCode: resp.StatusCode}
	}

	refreshToken := out.RefreshToken
	if refreshToken == "" {
		if cookie := resp.Cookie(session.RefreshTokenCookie); cookie != nil {
			refreshToken = cookie.Value
		}
	}

	token := &oauth2.Token{
		AccessToken:  out.AccessToken,
		TokenType:    out.TokenType,
		RefreshToken: refreshToken,
	}
	if g.store != nil {
		g.store.Set(token.AccessToken, token.RefreshToken)
	}

	log.Info().Bool("refresh_token", refreshToken != "").Msg("Signed in")
	return token, nil
}

// VerifyEmail confirms an account with the mailed code
func (g *Gateway) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*APIResponse[any], error) {
	var out APIResponse[any]
	_, err := g.do(ctx, call{
		op:       "verify-email",
		fallback: "Verification failed.",
		method:   http.MethodPost,
		path:     routeVerifyEmail,
		body:     req,
		auth:     apiclient.NoAuth(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
