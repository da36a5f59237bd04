package domain

import "time"

// IssuedToken is a freshly signed token plus the metadata callers need to
// schedule refreshes. The old token is superseded on refresh, never mutated.
type IssuedToken struct {
	Value     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenValidation is the ephemeral outcome of validating a raw token.
// Produced fresh on every call; never persisted. An expired-but-genuine
// token keeps its decoded identity so callers can distinguish "was valid,
// now stale" from "never valid".
type TokenValidation struct {
	Valid        bool
	Username     string
	Authorities  []string
	SessionIndex string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Expired      bool
	Error        string
}

// AuthenticationResult is the outcome of exchanging an identity assertion
// for a signed token.
type AuthenticationResult struct {
	Authenticated bool
	Username      string
	Authorities   []string
	Token         string
	SessionIndex  string
	ExpiresAt     time.Time
	Permissions   []Permission
	Error         string
}

// AuthorizationDecision answers "can user U perform action A on resource R".
// Fail-closed: every ambiguous or erroring path yields Authorized=false
// with a reason.
type AuthorizationDecision struct {
	Authorized  bool
	Username    string
	Resource    string
	Action      string
	Permissions []Permission
	Error       string
}

// UserPermissions is the full resolved listing for a user, used by
// dashboards and batch authorization.
type UserPermissions struct {
	Username       string
	Permissions    []Permission
	Roles          []string
	OrganizationID string
	Active         bool
}
