package domain

import "time"

// Audit event types. One constant per authentication/authorization fact.
const (
	EventLoginSuccess   = "LOGIN_SUCCESS"
	EventLoginFailure   = "LOGIN_FAILURE"
	EventTokenValidated = "TOKEN_VALIDATED"
	EventTokenInvalid   = "TOKEN_INVALID"
	EventTokenRefreshed = "TOKEN_REFRESHED"
	EventAuthzGranted   = "AUTHZ_GRANTED"
	EventAuthzDenied    = "AUTHZ_DENIED"
)

// UnknownSubject is recorded when the subject could not be resolved from
// the input, e.g. an undecodable token or malformed assertion.
const UnknownSubject = "unknown"

// AuditEvent is an immutable, append-only fact record. It is written after
// the decision is made, from the decision's own fields, and is never read
// back by this subsystem.
type AuditEvent struct {
	ID           string
	Type         string
	Subject      string
	SessionIndex string
	Resource     string
	Action       string
	Success      bool
	Detail       string
	CreatedAt    time.Time
}
