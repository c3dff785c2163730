package gateway_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sekai-set-on/web-portal/apiclient"
	"github.com/sekai-set-on/web-portal/gateway"
	"github.com/sekai-set-on/web-portal/internal/backendfake"
	apperrors "github.com/sekai-set-on/web-portal/internal/errors"
	"github.com/sekai-set-on/web-portal/session"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "aiko@example.jp"
	testNickname = "aiko"
	testPassword = "password123"
)

type fixture struct {
	backend *backendfake.Backend
	client  *apiclient.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := backendfake.New()
	t.Cleanup(backend.Close)

	_, err := backend.SeedAccount(testEmail, testNickname, "Aiko", testPassword)
	require.NoError(t, err)

	client, err := apiclient.New(apiclient.Config{BaseURL: backend.URL(), Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return &fixture{backend: backend, client: client}
}

func (f *fixture) signedIn(t *testing.T) (*gateway.Gateway, *session.MemoryStore) {
	t.Helper()
	access, refresh, err := f.backend.SignIn(testNickname)
	require.NoError(t, err)
	store := session.NewMemoryStore(access, refresh)
	return gateway.New(f.client, store), store
}

func TestSignIn(t *testing.T) {
	t.Run("valid credentials persist both tokens", func(t *testing.T) {
		f := newFixture(t)
		store := session.NewMemoryStore("", "")
		gw := gateway.New(f.client, store)

		token, err := gw.SignIn(context.Background(), gateway.SignInRequest{Identification: testEmail, Password: testPassword})

		require.NoError(t, err)
		require.Equal(t, "bearer", token.TokenType)
		require.NotEmpty(t, token.AccessToken)
		require.NotEmpty(t, token.RefreshToken)
		require.Equal(t, token.AccessToken, store.AccessToken())
		require.Equal(t, token.RefreshToken, store.RefreshToken())
		require.True(t, store.HasValidSession())
	})

	t.Run("invalid credentials leave the store untouched", func(t *testing.T) {
		f := newFixture(t)
		store := session.NewMemoryStore("", "")
		gw := gateway.New(f.client, store)

		_, err := gw.SignIn(context.Background(), gateway.SignInRequest{Identification: testEmail, Password: "wrong-password"})

		require.EqualError(t, err, "Invalid credentials")
		var gwErr *gateway.Error
		require.ErrorAs(t, err, &gwErr)
		require.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
		require.False(t, store.HasValidSession())
		require.Empty(t, store.RefreshToken())
		require.Equal(t, 0, f.backend.Calls(http.MethodPost, apiclient.RouteRefresh))
	})

	t.Run("failure without detail uses the fallback message", func(t *testing.T) {
		f := newFixture(t)
		f.backend.FailNext(http.MethodPost, "/auth/signin", http.StatusInternalServerError, "")
		gw := gateway.New(f.client, session.NewMemoryStore("", ""))

		_, err := gw.SignIn(context.Background(), gateway.SignInRequest{Identification: testEmail, Password: testPassword})

		require.EqualError(t, err, "Signin failed.")
	})
}

func TestSignUpAndVerify(t *testing.T) {
	f := newFixture(t)
	gw := gateway.New(f.client, nil)
	ctx := context.Background()

	_, err := gw.SignUp(ctx, gateway.SignUpRequest{Email: "ren@example.jp", Password: testPassword, Name: "Ren", Nickname: "ren"})
	require.NoError(t, err)

	_, err = gw.SignUp(ctx, gateway.SignUpRequest{Email: "ren@example.jp", Password: testPassword, Name: "Ren", Nickname: "ren2"})
	require.EqualError(t, err, "Email already registered")

	_, err = gw.VerifyEmail(ctx, gateway.VerifyEmailRequest{Email: "ren@example.jp", VerificationCode: "nope"})
	require.EqualError(t, err, "Invalid verification code")

	code, err := f.backend.VerificationCode("ren@example.jp")
	require.NoError(t, err)
	resp, err := gw.VerifyEmail(ctx, gateway.VerifyEmailRequest{Email: "ren@example.jp", VerificationCode: code})
	require.NoError(t, err)
	require.Equal(t, "success", resp.Status)
}

func TestBearerCalls(t *testing.T) {
	t.Run("missing access token fails without a network call", func(t *testing.T) {
		f := newFixture(t)
		gw := gateway.New(f.client, session.NewMemoryStore("", "some-refresh"))

		_, err := gw.UserDetail(context.Background())

		require.EqualError(t, err, "Access token not found.")
		require.ErrorIs(t, err, apperrors.ErrMissingCredential)
		require.Equal(t, 0, f.backend.Calls(http.MethodGet, "/user/detail"))
	})

	t.Run("expired access token is renewed transparently", func(t *testing.T) {
		f := newFixture(t)
		gw, store := f.signedIn(t)
		before := store.AccessToken()
		f.backend.ExpireAccessTokens()

		resp, err := gw.UserDetail(context.Background())

		require.NoError(t, err)
		require.Equal(t, testEmail, resp.Data.Email)
		require.NotEqual(t, before, store.AccessToken())
		require.Equal(t, 1, f.backend.Calls(http.MethodPost, apiclient.RouteRefresh))
		require.Equal(t, 2, f.backend.Calls(http.MethodGet, "/user/detail"))
	})

	t.Run("revoked refresh token surfaces the refresh error", func(t *testing.T) {
		f := newFixture(t)
		gw, store := f.signedIn(t)
		access, refresh := store.AccessToken(), store.RefreshToken()
		f.backend.ExpireAccessTokens()
		f.backend.RevokeRefreshTokens()

		_, err := gw.UserDetail(context.Background())

		var refreshErr *apiclient.RefreshError
		require.ErrorAs(t, err, &refreshErr)
		require.EqualError(t, err, "Refresh token invalid")
		require.Equal(t, access, store.AccessToken())
		require.Equal(t, refresh, store.RefreshToken())
	})

	t.Run("update and delete user", func(t *testing.T) {
		f := newFixture(t)
		gw, _ := f.signedIn(t)
		ctx := context.Background()

		updated, err := gw.UserUpdate(ctx, gateway.UserUpdateRequest{Name: "Aiko Tanaka", Nickname: "aikot"})
		require.NoError(t, err)
		require.Equal(t, "Aiko Tanaka", updated.Data.Name)
		require.Equal(t, "aikot", updated.Data.Nickname)

		require.NoError(t, gw.UserDelete(ctx))
		_, err = gw.UserDetail(ctx)
		require.Error(t, err)
	})
}

func TestAPIKeys(t *testing.T) {
	f := newFixture(t)
	gw, _ := f.signedIn(t)
	ctx := context.Background()

	secret, err := gw.CreateAPIKey(ctx, gateway.APIKeyCreateRequest{Title: "CI", Desc: "pipeline"})
	require.NoError(t, err)
	require.NotEmpty(t, secret.Reveal())

	keys, err := gw.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, "CI", keys[0].Title)

	_, err = gw.ListNews(ctx, secret.Reveal())
	require.NoError(t, err)

	usage, err := gw.APIKeyUsage(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, usage.TotalRequests)
	require.Len(t, usage.Data, 1)
	require.Len(t, usage.Data[0].Logs, 1)
	require.Equal(t, "/news/list", usage.Data[0].Logs[0].Endpoint)

	require.NoError(t, gw.DeleteAPIKey(ctx, keys[0].Identifier))
	err = gw.DeleteAPIKey(ctx, keys[0].Identifier)
	require.EqualError(t, err, "API key not found")

	_, err = gw.CreateAPIKey(ctx, gateway.APIKeyCreateRequest{})
	require.EqualError(t, err, "Title is required")
}

func TestAPIKeySecretIsRedacted(t *testing.T) {
	secret := gateway.NewAPIKeySecret("sso_live_123")

	require.Equal(t, "sso_live_123", secret.Reveal())
	require.NotContains(t, fmt.Sprint(secret), "sso_live_123")
	require.NotContains(t, fmt.Sprintf("%+v %#v", secret, secret), "sso_live_123")

	encoded, err := json.Marshal(struct{ Key gateway.APIKeySecret }{secret})
	require.NoError(t, err)
	require.NotContains(t, string(encoded), "sso_live_123")
}

func TestServiceCalls(t *testing.T) {
	t.Run("backend fixtures", func(t *testing.T) {
		f := newFixture(t)
		key, err := f.backend.CreateAPIKey(testEmail, "docs")
		require.NoError(t, err)
		gw := gateway.New(f.client, nil)
		ctx := context.Background()

		news, err := gw.FilterNews(ctx, key, "blossom")
		require.NoError(t, err)
		require.Len(t, news, 1)

		chars, err := gw.ListCharacters(ctx, key)
		require.NoError(t, err)
		require.NotEmpty(t, chars)

		tts, err := gw.ChangeTTS(ctx, key, "こんにちは", "Zundamon", "normal")
		require.NoError(t, err)
		require.Equal(t, "Zundamon", tts.Character)
		require.NotEmpty(t, tts.DownloadURL)

		stations, err := gw.ListTrain(ctx, key, "", "Tokyo")
		require.NoError(t, err)
		require.Len(t, stations, 2)

		forecast, err := gw.ForecastWeather(ctx, key, "Tokyo")
		require.NoError(t, err)
		require.Len(t, forecast, 3)

		_, err = gw.ListNews(ctx, "not-a-key")
		require.EqualError(t, err, "Invalid API key")
		require.Equal(t, 0, f.backend.Calls(http.MethodPost, apiclient.RouteRefresh))
	})

	t.Run("query encoding", func(t *testing.T) {
		var queries []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.RawQuery)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)
		require.NoError(t, err)
		gw := gateway.New(client, nil)
		ctx := context.Background()

		_, err = gw.ListTrain(ctx, "k", "", "")
		require.NoError(t, err)
		_, err = gw.ListTrain(ctx, "k", "Osaka", "")
		require.NoError(t, err)
		date := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.Local)
		_, err = gw.ScheduleTrain(ctx, "k", "Tokyo", "Osaka", date, gateway.TimeOfDay{Hour: 8, Minute: 5})
		require.NoError(t, err)

		require.Equal(t, []string{
			"",
			"city=Osaka",
			"date=2025-03-07&from_station=Tokyo&time=08%3A05&to_station=Osaka",
		}, queries)

		_, err = gw.ScheduleTrain(ctx, "k", "Tokyo", "Osaka", date, gateway.TimeOfDay{Hour: 24})
		require.ErrorIs(t, err, apperrors.ErrInvalidParameter)
		require.Len(t, queries, 3)
	})

	t.Run("fallback message without detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)
		require.NoError(t, err)

		_, err = gateway.New(client, nil).ForecastWeather(context.Background(), "k", "Tokyo")
		require.EqualError(t, err, "Failed to fetch forecast weather")
	})
}
