package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// SessionClaims is the JWT form of a SessionDescriptor.
type SessionClaims struct {
	jwt.RegisteredClaims
	LastActivity int64 `json:"lat,omitempty"`
	Active       bool  `json:"act"`
}

// SessionCodec signs SessionDescriptors into HS256 JWTs so they can travel
// in cookies or headers, and decodes them back fail-closed.
type SessionCodec struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// SessionCodecOption customizes a SessionCodec.
type SessionCodecOption func(*SessionCodec)

// WithSessionCodecClock injects the clock used for expiry checks.
func WithSessionCodecClock(clock func() time.Time) SessionCodecOption {
	return func(c *SessionCodec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewSessionCodec returns a codec using signingKey and issuer.
func NewSessionCodec(signingKey []byte, issuer string, opts ...SessionCodecOption) *SessionCodec {
	c := &SessionCodec{
		signingKey: signingKey,
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Encode signs the descriptor.
func (c *SessionCodec) Encode(s SessionDescriptor) (string, error) {
	if len(c.signingKey) == 0 {
		return "", goerrors.New("session signing key is required", goerrors.CategoryInternal)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.SessionID,
			Subject:   s.OwnerID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		Active: s.Active,
	}
	if !s.LastActivity.IsZero() {
		claims.LastActivity = s.LastActivity.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session")
	}
	return signed, nil
}

// Decode parses and verifies a token. Any failure, including an expired or
// revoked session, yields false.
func (c *SessionCodec) Decode(raw string) (SessionDescriptor, bool) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return SessionDescriptor{}, false
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return SessionDescriptor{}, false
	}

	s := SessionDescriptor{
		SessionID: claims.ID,
		OwnerID:   claims.Subject,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Active:    claims.Active,
	}
	if claims.LastActivity > 0 {
		s.LastActivity = time.Unix(claims.LastActivity, 0)
	}

	if !IsValidSession(s, c.now()) {
		return SessionDescriptor{}, false
	}
	return s, true
}
