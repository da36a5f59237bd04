package domain

import "time"

// Role groups permissions under a human-meaningful name, e.g. "ADMIN".
// Only active roles contribute permissions to a resolution.
type Role struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
