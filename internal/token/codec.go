// Package token signs and verifies the compact HS256 session tokens used for
// both access and refresh credentials.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SubjectField names the claim a user identifier was resolved from.
type SubjectField string

const (
	SubjectFromID  SubjectField = "id"
	SubjectFromSub SubjectField = "sub"
)

var errEmptySecret = errors.New("token secret is required")

// Payload is the caller-controlled part of a token.
type Payload struct {
	Subject string
	Email   string
}

// Claims is the decoded body of a verified token. Older clients minted tokens
// carrying the user identifier under "id" instead of "sub", so both are kept.
type Claims struct {
	LegacyID string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID resolves the subject: "id" wins when present, then "sub".
func (c Claims) UserID() (string, SubjectField, bool) {
	if c.LegacyID != "" {
		return c.LegacyID, SubjectFromID, true
	}
	if c.Subject != "" {
		return c.Subject, SubjectFromSub, true
	}
	return "", "", false
}

type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and verification.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Codec) Sign(payload Payload, ttl time.Duration) (string, error) {
	now := c.now().UTC()
	claims := Claims{
		Email: payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify reports ok only for a well-formed token signed with this codec's
// secret whose expiry is still in the future. Expired, malformed and tampered
// tokens are indistinguishable to the caller.
func (c *Codec) Verify(tokenString string) (Claims, bool) {
	if tokenString == "" {
		return Claims{}, false
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, false
	}

	return claims, true
}
