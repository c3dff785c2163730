// Package backendfake runs an in-process stand-in for the platform REST API. It signs
// real JWT session tokens, hashes passwords with bcrypt, meters API key calls and lets
// tests expire sessions or inject failures.
package backendfake

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/pkg/errors"
)

// Backend is a running fake backend
type Backend struct {
	server   *httptest.Server
	accounts *accountRepo
	tokens   *tokenIssuer

	lock     sync.Mutex
	calls    map[string]int
	failures map[string]injectedFailure
}

type injectedFailure struct {
	status int
	detail string
}

// New starts a fake backend. Close it when done.
func New() *Backend {
	b := &Backend{
		accounts: newAccountRepo(),
		tokens:   newTokenIssuer("backendfake-signing-secret"),
		calls:    make(map[string]int),
		failures: make(map[string]injectedFailure),
	}
	b.server = httptest.NewServer(b.routes())
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) Close() {
	b.server.Close()
}

// SeedAccount creates an activated account and returns its email
func (b *Backend) SeedAccount(email, nickname, name, password string) (string, error) {
	a, err := b.accounts.create(email, nickname, name, password)
	if err != nil {
		return "", errors.Wrap(err, "SeedAccount")
	}
	_ = b.accounts.update(a.ID, func(a *account) error {
		a.Activated = true
		return nil
	})
	return a.Email, nil
}

// SignIn issues a session for an existing account without going through HTTP
func (b *Backend) SignIn(identification string) (accessToken, refreshToken string, err error) {
	a, err := b.accounts.byIdentification(identification)
	if err != nil {
		return "", "", errors.Wrap(err, "SignIn byIdentification")
	}
	if accessToken, err = b.tokens.issueAccess(a.ID); err != nil {
		return "", "", err
	}
	if refreshToken, err = b.tokens.issueRefresh(a.ID); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// VerificationCode returns the code mailed to email at sign-up
func (b *Backend) VerificationCode(email string) (string, error) {
	a, err := b.accounts.byIdentification(email)
	if err != nil {
		return "", errors.Wrap(err, "VerificationCode")
	}
	var code string
	_ = b.accounts.read(a.ID, func(a *account) { code = a.VerificationCode })
	return code, nil
}

// SetUsage overwrites the aggregate usage statistics of an account
func (b *Backend) SetUsage(email string, total int, successRate, errorRate, avgResponseTime float64) error {
	a, err := b.accounts.byIdentification(email)
	if err != nil {
		return errors.Wrap(err, "SetUsage")
	}
	return b.accounts.update(a.ID, func(a *account) error {
		a.TotalAPIUsage = total
		a.AverageSuccessRate = successRate
		a.AverageErrorRate = errorRate
		a.AverageResponseTime = avgResponseTime
		return nil
	})
}

// CreateAPIKey issues a key directly and returns its secret
func (b *Backend) CreateAPIKey(email, title string) (string, error) {
	a, err := b.accounts.byIdentification(email)
	if err != nil {
		return "", errors.Wrap(err, "CreateAPIKey")
	}
	key, err := b.accounts.addKey(a.ID, title, "")
	if err != nil {
		return "", err
	}
	return key.Secret, nil
}

// ExpireAccessTokens invalidates every access token issued so far
func (b *Backend) ExpireAccessTokens() {
	b.tokens.expireAccess()
}

// RevokeRefreshTokens invalidates every refresh token issued so far
func (b *Backend) RevokeRefreshTokens() {
	b.tokens.revokeRefresh()
}

// FailNext makes the next request to method and path answer with status and a detail
// message. An empty detail sends a body without one.
func (b *Backend) FailNext(method, path string, status int, detail string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.failures[callKey(method, path)] = injectedFailure{status: status, detail: detail}
}

// Calls returns how many requests reached method and path
func (b *Backend) Calls(method, path string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.calls[callKey(method, path)]
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callKey(r.Method, r.URL.Path)

		b.lock.Lock()
		b.calls[key]++
		failure, fail := b.failures[key]
		delete(b.failures, key)
		b.lock.Unlock()

		if fail {
			if failure.detail == "" {
				writeJSON(w, failure.status, map[string]string{"error": http.StatusText(failure.status)})
				return
			}
			writeDetail(w, failure.status, failure.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callKey(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}
