// Package session holds the two opaque tokens that make up a signed-in browser session.
package session

const (
	// AccessTokenCookie is the cookie carrying the short-lived bearer credential
	AccessTokenCookie = "access-token"
	// RefreshTokenCookie is the cookie carrying the credential used to mint new access tokens
	RefreshTokenCookie = "refresh_token"

	cookiePath = "/"
)

// Store is the capability handed to the HTTP client and gateways. Implementations never
// fail: an absent token is reported as the empty string.
type Store interface {
	// Set always replaces the access token. The refresh token is only written when non-empty.
	Set(accessToken, refreshToken string)
	// Clear removes both tokens. Calling it on an empty store is a no-op.
	Clear()
	AccessToken() string
	RefreshToken() string
	// HasValidSession is a presence check on the access token. Expiry is only ever
	// discovered through a 401 from the backend.
	HasValidSession() bool
}
