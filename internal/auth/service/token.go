package service

import (
	"errors"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/pkg/jwtx"
)

var ErrInvalidTokenConfig = errors.New("invalid token service configuration")

// TokenService manages the signed-token lifecycle independent of how the
// underlying principal was authenticated. A token moves from issued to
// expired purely by the clock; refresh produces a new token value, it never
// mutates the old one. There is no revoked state — revocation would be a
// denylist layered on top by an external concern.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration

	// MaxRefreshAge refuses refreshes of tokens whose original issuance is
	// older than this. Zero means no limit.
	MaxRefreshAge time.Duration

	// Now is the clock; nil means time.Now. Injectable for tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue creates a signed token for the subject with the authority snapshot
// and optional SSO session index. It only fails if the signer does.
func (s *TokenService) Issue(subject string, authorities []string, sessionIndex string) (domain.IssuedToken, error) {
	now := s.now()
	claims := jwtx.NewAccessClaims(subject, sessionIndex, authorities, s.TTL, s.Issuer, now)

	value, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	return domain.IssuedToken{
		Value:     value,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate verifies signature and structure and decodes the claims. All
// failure paths are represented in the result; this method never errors.
// A structurally valid but expired token keeps its decoded identity with
// Expired=true so callers can tell "stale" apart from "never valid".
func (s *TokenService) Validate(raw string) domain.TokenValidation {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return domain.TokenValidation{
			Valid: false,
			Error: err.Error(),
		}
	}

	result := domain.TokenValidation{
		Username:     claims.Subject,
		Authorities:  claims.Authorities,
		SessionIndex: claims.SessionIndex,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	if claims.ExpiredAt(s.now()) {
		result.Expired = true
		result.Error = "token expired"
		return result
	}

	result.Valid = true
	return result
}

// Refresh issues a new token carrying the same subject, authorities and
// session index with a renewed validity window. It reports false when the
// identity cannot be extracted or the original issuance is beyond
// MaxRefreshAge.
func (s *TokenService) Refresh(raw string) (domain.IssuedToken, bool) {
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil || claims.Subject == "" {
		return domain.IssuedToken{}, false
	}

	if s.MaxRefreshAge > 0 {
		if claims.IssuedAt == nil {
			return domain.IssuedToken{}, false
		}
		if s.now().Sub(claims.IssuedAt.Time) > s.MaxRefreshAge {
			return domain.IssuedToken{}, false
		}
	}

	token, err := s.Issue(claims.Subject, claims.Authorities, claims.SessionIndex)
	if err != nil {
		return domain.IssuedToken{}, false
	}
	return token, true
}

// ExtractSubject is a best-effort decode without signature or expiry
// validation, used for refresh pre-checks and logging.
func (s *TokenService) ExtractSubject(raw string) (string, bool) {
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// ExtractAuthorities is the authority-list counterpart of ExtractSubject.
func (s *TokenService) ExtractAuthorities(raw string) ([]string, bool) {
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil {
		return nil, false
	}
	return claims.Authorities, true
}

// ExtractSessionIndex returns the decoded SSO session index, if any.
func (s *TokenService) ExtractSessionIndex(raw string) (string, bool) {
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil {
		return "", false
	}
	return claims.SessionIndex, true
}

// IsExpired is a cheap expiry pre-check using only the decoded expiry
// claim. No signature verification happens here, so it must never back an
// authorization decision. Undecodable tokens report expired.
func (s *TokenService) IsExpired(raw string) bool {
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil {
		return true
	}
	return claims.ExpiredAt(s.now())
}
