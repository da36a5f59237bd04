package jwtx

import (
	"crypto/ed25519"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
)

// Verifier checks a token's signature and structure and gives you back the
// claims if it's legit. Expiry is deliberately NOT enforced here: callers
// need the decoded identity of an expired-but-genuine token to distinguish
// "was valid, now stale" from "never valid".
type Verifier interface {
	Verify(token string) (Claims, error)
}

// NewVerifierHS256 returns a Verifier for HS256 tokens signed with secret.
// If issuer is non-empty the iss claim must match.
func NewVerifierHS256(secret []byte, issuer string) Verifier {
	return &keyVerifier{
		alg:    jwt.SigningMethodHS256.Alg(),
		key:    secret,
		issuer: issuer,
	}
}

// NewVerifierEdDSA returns a Verifier for EdDSA tokens using pub.
func NewVerifierEdDSA(pub ed25519.PublicKey, issuer string) Verifier {
	return &keyVerifier{
		alg:    jwt.SigningMethodEdDSA.Alg(),
		key:    pub,
		issuer: issuer,
	}
}

type keyVerifier struct {
	alg    string
	key    any
	issuer string
}

func (v *keyVerifier) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		// Expiry is evaluated by the caller against its own clock.
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != v.alg {
			return nil, ErrAlgMismatch
		}
		return v.key, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	default:
		return ErrInvalidSig
	}
}
