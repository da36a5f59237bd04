package service

import (
	"context"

	"github.com/techfolio/authd/internal/auth/audit"
	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/pkg/slogx"
)

// AuthService is the sole caller-facing facade. It composes the token
// service, the authorization resolver and the audit sink into the four
// primary use cases, and guarantees that every outcome is both returned to
// the caller and recorded — with the recording strictly best-effort. All
// four operations are exception-free at this boundary: every failure mode
// is a field on the result.
type AuthService struct {
	Tokens     *TokenService
	Authorizer *AuthorizeService
	Audit      audit.Sink
}

// AuthenticateUser exchanges an upstream identity assertion for a signed
// token. Extraction failures yield an unauthenticated result with subject
// "unknown"; the raw error never escapes.
func (s *AuthService) AuthenticateUser(ctx context.Context, assertion domain.Assertion) domain.AuthenticationResult {
	identity, err := extractIdentity(assertion)
	if err != nil {
		result := domain.AuthenticationResult{
			Username: domain.UnknownSubject,
			Error:    err.Error(),
		}
		s.emit(ctx, domain.AuditEvent{
			Type:    domain.EventLoginFailure,
			Subject: domain.UnknownSubject,
			Detail:  err.Error(),
		})
		return result
	}

	token, err := s.Tokens.Issue(identity.Subject, identity.Authorities, identity.SessionIndex)
	if err != nil {
		result := domain.AuthenticationResult{
			Username:     identity.Subject,
			SessionIndex: identity.SessionIndex,
			Error:        "token issuance failed",
		}
		slogx.FromContext(ctx).Error("token issuance failed", "subject", identity.Subject, "error", err)
		s.emit(ctx, domain.AuditEvent{
			Type:         domain.EventLoginFailure,
			Subject:      identity.Subject,
			SessionIndex: identity.SessionIndex,
			Detail:       "token issuance failed",
		})
		return result
	}

	// Enrich with the resolved permission listing; an empty listing is not
	// an authentication failure.
	listing := s.Authorizer.GetUserPermissions(ctx, identity.Subject)

	result := domain.AuthenticationResult{
		Authenticated: true,
		Username:      identity.Subject,
		Authorities:   identity.Authorities,
		Token:         token.Value,
		SessionIndex:  identity.SessionIndex,
		ExpiresAt:     token.ExpiresAt,
		Permissions:   listing.Permissions,
	}

	s.emit(ctx, domain.AuditEvent{
		Type:         domain.EventLoginSuccess,
		Subject:      identity.Subject,
		SessionIndex: identity.SessionIndex,
		Success:      true,
	})
	return result
}

// ValidateToken verifies a raw token and records the outcome. When decoding
// fails the audit subject is "unknown".
func (s *AuthService) ValidateToken(ctx context.Context, raw string) domain.TokenValidation {
	result := s.Tokens.Validate(raw)

	subject := result.Username
	if subject == "" {
		subject = domain.UnknownSubject
	}

	eventType := domain.EventTokenValidated
	if !result.Valid {
		eventType = domain.EventTokenInvalid
	}

	s.emit(ctx, domain.AuditEvent{
		Type:         eventType,
		Subject:      subject,
		SessionIndex: result.SessionIndex,
		Success:      result.Valid,
		Detail:       result.Error,
	})
	return result
}

// RefreshToken produces a renewed token for the same identity. A token
// whose subject or authorities cannot be extracted reports ("", false) with
// no audit event; TOKEN_REFRESHED is emitted only when a new token was
// actually produced.
func (s *AuthService) RefreshToken(ctx context.Context, raw string) (string, bool) {
	subject, ok := s.Tokens.ExtractSubject(raw)
	if !ok {
		return "", false
	}
	if _, ok := s.Tokens.ExtractAuthorities(raw); !ok {
		return "", false
	}

	token, ok := s.Tokens.Refresh(raw)
	if !ok {
		return "", false
	}

	sessionIndex, _ := s.Tokens.ExtractSessionIndex(raw)
	s.emit(ctx, domain.AuditEvent{
		Type:         domain.EventTokenRefreshed,
		Subject:      subject,
		SessionIndex: sessionIndex,
		Success:      true,
	})
	return token.Value, true
}

// AuthorizeUser delegates to the resolver and records the final decision's
// own fields, granted or denied.
func (s *AuthService) AuthorizeUser(ctx context.Context, username, resource, action string) domain.AuthorizationDecision {
	decision := s.Authorizer.Authorize(ctx, username, resource, action)

	eventType := domain.EventAuthzGranted
	if !decision.Authorized {
		eventType = domain.EventAuthzDenied
	}

	s.emit(ctx, domain.AuditEvent{
		Type:     eventType,
		Subject:  username,
		Resource: resource,
		Action:   action,
		Success:  decision.Authorized,
		Detail:   decision.Error,
	})
	return decision
}

// extractIdentity shields the orchestrator from assertion implementations
// that panic instead of returning a typed extraction error.
func extractIdentity(assertion domain.Assertion) (identity domain.Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			identity = domain.Identity{}
			err = domain.ErrMalformedAssertion
		}
	}()

	if assertion == nil {
		return domain.Identity{}, domain.ErrMalformedAssertion
	}
	return assertion.Extract()
}

// emit records an audit event, swallowing sink errors and panics. The
// primary result has already been computed by the time this runs and is
// returned unchanged regardless of what the sink does.
func (s *AuthService) emit(ctx context.Context, ev domain.AuditEvent) {
	if s.Audit == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slogx.FromContext(ctx).Error("audit sink panicked", "event_type", ev.Type, "panic", r)
		}
	}()

	if err := s.Audit.Record(ctx, ev); err != nil {
		slogx.FromContext(ctx).Warn("audit record failed",
			"event_type", ev.Type,
			"subject", ev.Subject,
			"error", err,
		)
	}
}
