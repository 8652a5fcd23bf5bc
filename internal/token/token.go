// Package token signs and verifies the compact bearer tokens handed out by
// the API login endpoint. A token is an HS256 JWT whose payload carries the
// principal id under "data" and an absolute expiry under "exp".
//
// The codec is pure: it never consults the user store. Checking that the
// subject still exists is the API guard's job.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a token issued without an explicit TTL.
const DefaultTTL = 24 * time.Hour

var (
	// ErrMissingSecret is returned by New when no signing secret is
	// configured. Treat it as fatal at startup.
	ErrMissingSecret = errors.New("token signing secret is not configured")

	// ErrMalformed means the token could not be decoded or its signature
	// does not match.
	ErrMalformed = errors.New("malformed token")

	// ErrExpired means the token decoded and verified but is past its expiry.
	ErrExpired = errors.New("token expired")
)

// Claims is the token payload.
type Claims struct {
	// Data is the subject (principal id).
	Data string `json:"data"`
	jwt.RegisteredClaims
}

// Codec issues and verifies tokens with a single shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source. Tests use it to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// New creates a codec. The secret is required; there is no built-in default.
func New(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subjectID that expires ttl from now. A ttl of zero
// or less uses DefaultTTL.
func (c *Codec) Issue(subjectID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.now()
	claims := Claims{
		Data: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify decodes the token, checks its signature and expiry, and returns the
// subject id. Errors are always ErrMalformed or ErrExpired.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !tok.Valid || claims.Data == "" {
		return "", ErrMalformed
	}

	return claims.Data, nil
}
