package domain

import "time"

// User is a principal mirrored from the identity-management process. This
// subsystem treats it as read-only: activation and role assignment changes
// arrive through the sync surface, never through the decision path.
type User struct {
	Username       string
	Active         bool
	OrganizationID string // empty when the user has no organization affiliation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
