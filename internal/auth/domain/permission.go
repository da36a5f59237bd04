package domain

import "time"

// Permission is identified by the (resource, action) pair. Only active
// permissions are ever returned or checked as granted.
type Permission struct {
	ID          string
	Resource    string
	Action      string
	DisplayName string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the canonical "resource:action" form used for deduplication
// and for embedding permissions as authority strings.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// ResolvedGrants is the outcome of a user -> roles -> permissions traversal,
// cacheable as a unit.
type ResolvedGrants struct {
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}
