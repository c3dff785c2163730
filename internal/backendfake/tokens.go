package backendfake

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// tokenIssuer signs HS256 session tokens. Access tokens carry a generation that can be
// bumped to expire every outstanding token at once; refresh tokens must also be on the
// allow list.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	lock       sync.Mutex
	generation int
	refreshIDs map[string]string // jti to account id
}

func newTokenIssuer(secret string) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte(secret),
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		refreshIDs: make(map[string]string),
	}
}

func (ti *tokenIssuer) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, nil
}

func (ti *tokenIssuer) issueAccess(accountID string) (string, error) {
	ti.lock.Lock()
	gen := ti.generation
	ti.lock.Unlock()

	now := time.Now()
	return ti.sign(jwt.MapClaims{
		"sub": accountID,
		"typ": tokenTypeAccess,
		"gen": gen,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(ti.accessTTL).Unix(),
	})
}

func (ti *tokenIssuer) issueRefresh(accountID string) (string, error) {
	jti := uuid.New().String()
	now := time.Now()
	signed, err := ti.sign(jwt.MapClaims{
		"sub": accountID,
		"typ": tokenTypeRefresh,
		"jti": jti,
		"iat": now.Unix(),
		"exp": now.Add(ti.refreshTTL).Unix(),
	})
	if err != nil {
		return "", err
	}

	ti.lock.Lock()
	ti.refreshIDs[jti] = accountID
	ti.lock.Unlock()
	return signed, nil
}

func (ti *tokenIssuer) parse(raw, wantType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return nil, errors.Errorf("unexpected token type %q", typ)
	}
	return claims, nil
}

// verifyAccess returns the account id of a current access token
func (ti *tokenIssuer) verifyAccess(raw string) (string, error) {
	claims, err := ti.parse(raw, tokenTypeAccess)
	if err != nil {
		return "", err
	}

	gen, _ := claims["gen"].(float64)
	ti.lock.Lock()
	current := ti.generation
	ti.lock.Unlock()
	if int(gen) != current {
		return "", errors.New("token expired")
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}

func (ti *tokenIssuer) verifyRefresh(raw string) (string, error) {
	claims, err := ti.parse(raw, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	jti, _ := claims["jti"].(string)

	ti.lock.Lock()
	defer ti.lock.Unlock()
	accountID, ok := ti.refreshIDs[jti]
	if !ok {
		return "", errors.New("refresh token revoked")
	}
	return accountID, nil
}

func (ti *tokenIssuer) expireAccess() {
	ti.lock.Lock()
	ti.generation++
	ti.lock.Unlock()
}

func (ti *tokenIssuer) revokeRefresh() {
	ti.lock.Lock()
	ti.refreshIDs = make(map[string]string)
	ti.lock.Unlock()
}
