package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/techfolio/authd/internal/auth/cache"
	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/store"
	"github.com/techfolio/authd/pkg/slogx"
)

const defaultLookupTimeout = 3 * time.Second

// AuthorizeService answers authorization questions against the principal
// store's user -> role -> permission graph. It is fail-closed by
// construction: every lookup failure, timeout or unknown principal resolves
// to deny (or an empty listing) and never raises past this boundary.
type AuthorizeService struct {
	Store store.Store

	// Cache is an optional time-bounded grants cache. Nil disables caching.
	Cache cache.PermissionCache

	// LookupTimeout bounds each resolution's principal store work.
	LookupTimeout time.Duration
}

// Authorize reports whether the user may perform action on resource. The
// returned decision carries the resolved permission set on grant and an
// explanatory message on deny.
func (s *AuthorizeService) Authorize(ctx context.Context, username, resource, action string) domain.AuthorizationDecision {
	decision := domain.AuthorizationDecision{
		Username: username,
		Resource: resource,
		Action:   action,
	}

	ctx, cancel := s.boundLookup(ctx)
	defer cancel()

	active, err := s.Store.Users().IsUserActive(ctx, username)
	if err != nil {
		decision.Error = lookupFailureReason(username, err)
		return decision
	}
	if !active {
		decision.Error = fmt.Sprintf("user %q is deactivated", username)
		return decision
	}

	grants, err := s.resolveGrants(ctx, username)
	if err != nil {
		decision.Error = lookupFailureReason(username, err)
		return decision
	}

	for _, perm := range grants.Permissions {
		if perm.Resource == resource && perm.Action == action {
			decision.Authorized = true
			decision.Permissions = grants.Permissions
			return decision
		}
	}

	decision.Error = fmt.Sprintf("insufficient permissions for %s:%s", resource, action)
	return decision
}

// GetUserPermissions returns the full resolved permission and role listing
// plus activation/organization metadata. Any failure degrades to an empty,
// inactive listing. A deactivated user keeps their metadata but lists no
// grants, so a caller that skips the Active check still cannot act on them.
func (s *AuthorizeService) GetUserPermissions(ctx context.Context, username string) domain.UserPermissions {
	result := domain.UserPermissions{Username: username}

	ctx, cancel := s.boundLookup(ctx)
	defer cancel()

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		s.logLookupFailure(ctx, username, err)
		return result
	}
	result.Active = user.Active
	result.OrganizationID = user.OrganizationID

	if !user.Active {
		return result
	}

	grants, err := s.resolveGrants(ctx, username)
	if err != nil {
		s.logLookupFailure(ctx, username, err)
		return result
	}

	result.Permissions = grants.Permissions
	for _, role := range grants.Roles {
		result.Roles = append(result.Roles, role.Name)
	}
	return result
}

// HasRole reports membership in the user's active assigned role set. It
// never errors: unresolvable users or roles read as false.
func (s *AuthorizeService) HasRole(ctx context.Context, username, roleName string) bool {
	ctx, cancel := s.boundLookup(ctx)
	defer cancel()

	roles, err := s.Store.Roles().ListActiveRolesForUser(ctx, username)
	if err != nil {
		s.logLookupFailure(ctx, username, err)
		return false
	}

	for _, role := range roles {
		if role.Name == roleName {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the roles.
func (s *AuthorizeService) HasAnyRole(ctx context.Context, username string, roleNames ...string) bool {
	ctx, cancel := s.boundLookup(ctx)
	defer cancel()

	roles, err := s.Store.Roles().ListActiveRolesForUser(ctx, username)
	if err != nil {
		s.logLookupFailure(ctx, username, err)
		return false
	}

	assigned := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		assigned[role.Name] = struct{}{}
	}
	for _, name := range roleNames {
		if _, ok := assigned[name]; ok {
			return true
		}
	}
	return false
}

// InvalidateUser drops the user's cached grants, e.g. after identity sync.
func (s *AuthorizeService) InvalidateUser(ctx context.Context, username string) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, username)
	}
}

// resolveGrants traverses user -> active roles -> active permissions and
// unions the permissions, deduplicated by (resource, action). The relation
// is an acyclic two-hop graph: roles never reference other roles.
func (s *AuthorizeService) resolveGrants(ctx context.Context, username string) (domain.ResolvedGrants, error) {
	if s.Cache != nil {
		if grants, ok := s.Cache.Get(ctx, username); ok {
			return grants, nil
		}
	}

	roles, err := s.Store.Roles().ListActiveRolesForUser(ctx, username)
	if err != nil {
		return domain.ResolvedGrants{}, err
	}

	grants := domain.ResolvedGrants{Roles: roles}
	seen := make(map[string]struct{})
	for _, role := range roles {
		perms, err := s.Store.Permissions().ListActivePermissionsForRole(ctx, role.ID)
		if err != nil {
			return domain.ResolvedGrants{}, err
		}
		for _, perm := range perms {
			if _, ok := seen[perm.Key()]; ok {
				continue
			}
			seen[perm.Key()] = struct{}{}
			grants.Permissions = append(grants.Permissions, perm)
		}
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, username, grants)
	}
	return grants, nil
}

func (s *AuthorizeService) boundLookup(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *AuthorizeService) logLookupFailure(ctx context.Context, username string, err error) {
	slogx.FromContext(ctx).Warn("principal lookup failed",
		"username", username,
		"error", err,
	)
}

func lookupFailureReason(username string, err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("user %q not found", username)
	}
	return fmt.Sprintf("principal store lookup failed: %v", err)
}
