package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every verification failure: bad signature, expiry, malformed input.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "fintrack"

// Claims defines JWT payload. The user id is carried as "id".
type Claims struct {
	UserID string `json:"id"`
	jwtlib.RegisteredClaims
}

// GenerateToken issues a signed JWT with provided secret and ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	return generateAt(userID, secret, ttl, time.Now())
}

func generateAt(userID, secret string, ttl time.Duration, now time.Time) (string, error) {
	if userID == "" {
		return "", errors.New("jwt: empty user id")
	}
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates and extracts claims from token.
func Parse(token string, secret string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwtlib.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// ExpiresAt reads the expiry claim without verifying the signature. Clients use it to
// know when a stored token lapses; it must never be used for authorization.
func ExpiresAt(token string) (time.Time, error) {
	var claims Claims
	if _, _, err := jwtlib.NewParser().ParseUnverified(strings.TrimSpace(token), &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: no expiry", ErrInvalidToken)
	}
	return claims.ExpiresAt.Time.UTC(), nil
}
