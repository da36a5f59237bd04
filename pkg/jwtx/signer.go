package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign access-token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(secret []byte) (Signer, error) {
	s := &hs256Signer{secret: secret}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(pemKey []byte) (Signer, error) {
	return newEdDSASigner(pemKey)
}

// MinHS256SecretSize is the smallest secret we accept for HS256. Anything
// shorter than the hash output weakens the HMAC.
const MinHS256SecretSize = 32

type hs256Signer struct {
	secret []byte
}

func (s *hs256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *hs256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *hs256Signer) Validate() error {
	if len(s.secret) < MinHS256SecretSize {
		return errors.New("jwtx: HS256 secret shorter than 32 bytes")
	}
	return nil
}
