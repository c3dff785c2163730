package backendfake_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/sekai-set-on/web-portal/internal/backendfake"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSignUpVerifySignIn(t *testing.T) {
	b := backendfake.New()
	defer b.Close()

	resp := post(t, b.URL()+"/auth/signup", `{"email":"aiko@example.jp","password":"password123","name":"Aiko","nickname":"aiko"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, b.URL()+"/auth/signin", `{"identification":"aiko","password":"password123"}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	code, err := b.VerificationCode("aiko@example.jp")
	require.NoError(t, err)
	resp = post(t, b.URL()+"/auth/verification", `{"email":"aiko@example.jp","verification_code":"`+code+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, b.URL()+"/auth/signin", `{"identification":"aiko@example.jp","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	require.NotEmpty(t, token.AccessToken)

	var refresh *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}
	require.NotNil(t, refresh)
	require.Equal(t, 2, b.Calls(http.MethodPost, "/auth/signin"))
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	b := backendfake.New()
	defer b.Close()

	_, err := b.SeedAccount("ren@example.jp", "ren", "Ren", "password123")
	require.NoError(t, err)
	access, _, err := b.SignIn("ren")
	require.NoError(t, err)

	get := func() int {
		req, err := http.NewRequest(http.MethodGet, b.URL()+"/user/detail", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	require.Equal(t, http.StatusOK, get())
	b.ExpireAccessTokens()
	require.Equal(t, http.StatusUnauthorized, get())
}

func TestFailNextIsConsumedOnce(t *testing.T) {
	b := backendfake.New()
	defer b.Close()

	b.FailNext(http.MethodPost, "/auth/signup", http.StatusBadGateway, "upstream down")

	resp := post(t, b.URL()+"/auth/signup", `{}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp = post(t, b.URL()+"/auth/signup", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
