package jwtx

import "github.com/golang-jwt/jwt/v5"

// DecodeUnverified decodes a token's claims without checking the signature
// or expiry. Intended for best-effort peeks (refresh pre-checks, logging),
// never for authorization decisions.
func DecodeUnverified(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}
