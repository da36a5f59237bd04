package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the fallback access token lifetime when no TTL is
// configured. Short-lived on purpose; callers refresh instead.
const DefaultTokenTTL = 30 * time.Minute

// Claims are the access-token claims issued by this service. The authority
// list is a snapshot taken at issuance time and is never re-derived from the
// principal store during validation.
type Claims struct {
	jwt.RegisteredClaims

	// SessionIndex correlates the token back to the upstream SSO session
	// that produced the identity assertion. Empty for non-SSO issuance.
	SessionIndex string `json:"sid,omitempty"`

	// Authorities granted to the subject at issuance,
	// e.g. "ROLE_ADMIN" or "portfolio:write".
	Authorities []string `json:"authorities,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
func NewAccessClaims(
	subject, sessionIndex string,
	authorities []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SessionIndex: sessionIndex,
		Authorities:  authorities,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer claim against the expected value.
// An empty expected issuer enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ExpiredAt reports whether the token is expired relative to the given
// instant. Tokens without an exp claim are treated as expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return now.After(c.ExpiresAt.Time)
}
