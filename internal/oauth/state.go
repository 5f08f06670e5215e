package oauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/pong-social/internal/utils"
)

// ErrBadState is returned when the OAuth state parameter is missing,
// expired, tampered with, or bound to a different callback URI.
var ErrBadState = errors.New("oauth: invalid state")

// stateSigner issues and verifies the OAuth state parameter as a short-lived
// HS256 JWT. Signing makes verification stateless: no replica has to
// remember which states it handed out, which matters because the sign-in
// request and the provider callback can land on different replicas.
type stateSigner struct {
	secret []byte
	ttl    time.Duration
}

func newStateSigner(secret []byte, ttl time.Duration) *stateSigner {
	return &stateSigner{secret: secret, ttl: ttl}
}

// issue creates a state token carrying a random nonce and the callback URI
// it was issued for.
func (s *stateSigner) issue(callbackURI string) (string, error) {
	nonce, err := utils.RandomHex(16)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"nonce": nonce,
		"cb":    callbackURI,
		"exp":   now.Add(s.ttl).Unix(),
		"iat":   now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verify checks signature, expiry, and callback binding.
func (s *stateSigner) verify(state, callbackURI string) error {
	tok, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadState
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return ErrBadState
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return ErrBadState
	}
	if cb, _ := claims["cb"].(string); cb != callbackURI {
		return ErrBadState
	}
	return nil
}
