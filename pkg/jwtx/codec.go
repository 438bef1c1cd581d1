// Package jwtx is the stateless identity-token codec. Tokens are HS256 JWTs
// carrying a subject plus issued-at and expiry timestamps, signed with a
// single process-wide key. Verification is a pure function of the key and
// the token string; no server-side session state exists.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the default lifetime for identity tokens.
const DefaultTokenTTL = 1 * time.Hour

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")
	ErrExpired          = errors.New("jwtx: token expired")

	ErrMissingKey = errors.New("jwtx: signing key must not be empty")
)

// Claims are the identity-token claims. Only the registered subject,
// issued-at and expiry fields are used; the permission set is resolved
// fresh on every request, never baked into the token.
type Claims struct {
	jwt.RegisteredClaims
}

// Codec issues and verifies identity tokens. Safe for concurrent use: the
// key is read-only after construction.
type Codec struct {
	key []byte
	ttl time.Duration

	// Clock returns the current time. Overridable in tests to simulate
	// expiry without sleeping.
	Clock func() time.Time
}

// NewCodec builds a codec from the signing key and validity window.
// An empty key is a configuration error and the only way construction
// fails; per-request operations never touch configuration.
func NewCodec(key []byte, ttl time.Duration) (*Codec, error) {
	if len(key) == 0 {
		return nil, ErrMissingKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{key: key, ttl: ttl, Clock: time.Now}, nil
}

// Issue signs a token for subject expiring after the configured window.
func (c *Codec) Issue(subject string) (string, error) {
	now := c.Clock().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Verify validates a token and returns its subject. Expected failures come
// back as one of the package sentinels so callers can tell a tampered token
// from an expired one; nothing is thrown or panicked.
func (c *Codec) Verify(tokenStr string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.Clock),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return "", mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// mapParseError collapses golang-jwt's error chain into the codec's
// discriminated sentinels. Expiry is checked before signature problems so
// an expired-but-genuine token reports ErrExpired.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}
