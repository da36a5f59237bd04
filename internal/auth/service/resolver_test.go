package service

import (
	"context"
	"testing"
	"time"

	"github.com/techfolio/authd/internal/auth/cache"
	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/store/drivers/sqlite"
	"github.com/techfolio/authd/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *sqlite.Store, username string, active bool, org string) {
	t.Helper()
	require.NoError(t, st.Users().CreateUser(context.Background(), domain.User{
		Username:       username,
		Active:         active,
		OrganizationID: org,
	}))
}

func seedRole(t *testing.T, st *sqlite.Store, name string, active bool) domain.Role {
	t.Helper()
	role := domain.Role{ID: idx.New().String(), Name: name, Active: active}
	require.NoError(t, st.Roles().CreateRole(context.Background(), role))
	return role
}

func seedPermission(t *testing.T, st *sqlite.Store, resource, action string) domain.Permission {
	t.Helper()
	perm := domain.Permission{
		ID:          idx.New().String(),
		Resource:    resource,
		Action:      action,
		DisplayName: resource + " " + action,
		Active:      true,
	}
	require.NoError(t, st.Permissions().CreatePermission(context.Background(), perm))
	return perm
}

func assign(t *testing.T, st *sqlite.Store, username string, role domain.Role) {
	t.Helper()
	require.NoError(t, st.Users().AssignRole(context.Background(), username, role.ID))
}

func grant(t *testing.T, st *sqlite.Store, role domain.Role, perm domain.Permission) {
	t.Helper()
	require.NoError(t, st.Roles().GrantPermission(context.Background(), role.ID, perm.ID))
}

func TestAuthorizeGrantAndDeny(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	seedUser(t, st, "alice", true, "org-1")
	manager := seedRole(t, st, "MANAGER", true)
	write := seedPermission(t, st, "portfolio", "write")
	assign(t, st, "alice", manager)
	grant(t, st, manager, write)

	granted := svc.Authorize(ctx, "alice", "portfolio", "write")
	require.True(t, granted.Authorized)
	require.Empty(t, granted.Error)
	require.Len(t, granted.Permissions, 1)
	require.Equal(t, "portfolio:write", granted.Permissions[0].Key())

	denied := svc.Authorize(ctx, "alice", "portfolio", "delete")
	require.False(t, denied.Authorized)
	require.NotEmpty(t, denied.Error)
	require.Empty(t, denied.Permissions)
}

func TestAuthorizeFailsClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	t.Run("unknown user", func(t *testing.T) {
		decision := svc.Authorize(ctx, "nonexistent-user", "portfolio", "read")
		require.False(t, decision.Authorized)
		require.NotEmpty(t, decision.Error)
	})

	t.Run("deactivated user", func(t *testing.T) {
		seedUser(t, st, "mallory", false, "")
		decision := svc.Authorize(ctx, "mallory", "portfolio", "read")
		require.False(t, decision.Authorized)
		require.Contains(t, decision.Error, "deactivated")
	})
}

func TestResolutionFollowsActiveState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	seedUser(t, st, "alice", true, "")
	manager := seedRole(t, st, "MANAGER", true)
	read := seedPermission(t, st, "portfolio", "read")
	write := seedPermission(t, st, "portfolio", "write")
	assign(t, st, "alice", manager)
	grant(t, st, manager, read)
	grant(t, st, manager, write)

	require.True(t, svc.Authorize(ctx, "alice", "portfolio", "write").Authorized)

	t.Run("deactivated permission disappears", func(t *testing.T) {
		require.NoError(t, st.Permissions().SetPermissionActive(ctx, write.ID, false))
		require.False(t, svc.Authorize(ctx, "alice", "portfolio", "write").Authorized)
		require.True(t, svc.Authorize(ctx, "alice", "portfolio", "read").Authorized)
	})

	t.Run("deactivated role loses everything", func(t *testing.T) {
		require.NoError(t, st.Roles().SetRoleActive(ctx, manager.ID, false))
		require.False(t, svc.Authorize(ctx, "alice", "portfolio", "read").Authorized)
		require.Empty(t, svc.GetUserPermissions(ctx, "alice").Permissions)
	})
}

func TestGetUserPermissionsDeduplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	seedUser(t, st, "alice", true, "org-7")
	manager := seedRole(t, st, "MANAGER", true)
	admin := seedRole(t, st, "ADMIN", true)
	write := seedPermission(t, st, "portfolio", "write")
	assign(t, st, "alice", manager)
	assign(t, st, "alice", admin)
	grant(t, st, manager, write)
	grant(t, st, admin, write)

	listing := svc.GetUserPermissions(ctx, "alice")
	require.True(t, listing.Active)
	require.Equal(t, "org-7", listing.OrganizationID)
	require.ElementsMatch(t, []string{"ADMIN", "MANAGER"}, listing.Roles)
	require.Len(t, listing.Permissions, 1, "the same permission granted twice appears once")
	require.Equal(t, "portfolio:write", listing.Permissions[0].Key())
}

func TestGetUserPermissionsDeactivatedUserListsNoGrants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	seedUser(t, st, "mallory", true, "org-9")
	manager := seedRole(t, st, "MANAGER", true)
	write := seedPermission(t, st, "portfolio", "write")
	assign(t, st, "mallory", manager)
	grant(t, st, manager, write)

	require.Len(t, svc.GetUserPermissions(ctx, "mallory").Permissions, 1)

	require.NoError(t, st.Users().SetUserActive(ctx, "mallory", false))

	listing := svc.GetUserPermissions(ctx, "mallory")
	require.False(t, listing.Active)
	require.Equal(t, "org-9", listing.OrganizationID, "metadata survives deactivation")
	require.Empty(t, listing.Permissions, "a deactivated user lists no grants")
	require.Empty(t, listing.Roles)
}

func TestGetUserPermissionsUnknownUser(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	listing := svc.GetUserPermissions(context.Background(), "ghost")
	require.Equal(t, "ghost", listing.Username)
	require.False(t, listing.Active)
	require.Empty(t, listing.Permissions)
	require.Empty(t, listing.Roles)
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st}

	seedUser(t, st, "alice", true, "")
	manager := seedRole(t, st, "MANAGER", true)
	retired := seedRole(t, st, "RETIRED", false)
	assign(t, st, "alice", manager)
	assign(t, st, "alice", retired)

	require.True(t, svc.HasRole(ctx, "alice", "MANAGER"))
	require.False(t, svc.HasRole(ctx, "alice", "ADMIN"))
	require.False(t, svc.HasRole(ctx, "alice", "RETIRED"), "inactive roles do not count")
	require.False(t, svc.HasRole(ctx, "ghost", "MANAGER"))

	require.True(t, svc.HasAnyRole(ctx, "alice", "ADMIN", "MANAGER"))
	require.False(t, svc.HasAnyRole(ctx, "alice", "ADMIN", "VIEWER"))
	require.False(t, svc.HasAnyRole(ctx, "alice"))
}

func TestResolverUsesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthorizeService{Store: st, Cache: cache.NewMemory(time.Minute)}

	seedUser(t, st, "alice", true, "")
	manager := seedRole(t, st, "MANAGER", true)
	read := seedPermission(t, st, "portfolio", "read")
	assign(t, st, "alice", manager)
	grant(t, st, manager, read)

	require.True(t, svc.Authorize(ctx, "alice", "portfolio", "read").Authorized)

	// A cached entry keeps serving until invalidated or expired.
	require.NoError(t, st.Roles().SetRoleActive(ctx, manager.ID, false))
	require.True(t, svc.Authorize(ctx, "alice", "portfolio", "read").Authorized)

	svc.InvalidateUser(ctx, "alice")
	require.False(t, svc.Authorize(ctx, "alice", "portfolio", "read").Authorized)
}
