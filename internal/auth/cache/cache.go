package cache

import (
	"context"

	"github.com/techfolio/authd/internal/auth/domain"
)

// PermissionCache is an optional time-bounded cache in front of the
// principal store's role/permission graph. Resolution correctness never
// depends on it: entries expire on their own and both Get misses and Set
// failures are silently absorbed by the resolver.
type PermissionCache interface {
	// Get returns the cached grants for a username, if present and fresh.
	Get(ctx context.Context, username string) (domain.ResolvedGrants, bool)

	// Set stores the grants for a username. Best-effort.
	Set(ctx context.Context, username string, grants domain.ResolvedGrants)

	// Invalidate drops a username's entry, e.g. after an identity sync.
	Invalidate(ctx context.Context, username string)
}
