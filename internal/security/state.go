package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OAuth state round-trips through the external provider, so it is a signed,
// short-lived JWT rather than a bare random value: the callback can verify
// it stateless, and a replayed state expires on its own.

var ErrInvalidState = errors.New("invalid oauth state")

type stateClaims struct {
	Provider string `json:"prv"`
	jwt.RegisteredClaims
}

func SignState(provider, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := stateClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyState checks the signature and expiry and that the state was issued
// for the provider handling the callback.
func VerifyState(token, provider, secret string) error {
	var claims stateClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidState
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidState
	}
	if claims.Provider != provider {
		return ErrInvalidState
	}
	return nil
}
