package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/store"
	"github.com/techfolio/authd/pkg/idx"
)

// BootstrapService seeds the default portfolio role/permission graph into an
// empty principal store so a fresh deployment can authorize anything at all.
// Idempotent: a store that already has roles is left untouched.
type BootstrapService struct {
	Store  store.Store
	Logger *slog.Logger
}

type roleSeed struct {
	name        string
	permissions []permissionSeed
}

type permissionSeed struct {
	resource string
	action   string
	display  string
}

func defaultRoleSeeds() []roleSeed {
	read := func(resource string) permissionSeed {
		return permissionSeed{resource, "read", "Read " + resource}
	}
	write := func(resource string) permissionSeed {
		return permissionSeed{resource, "write", "Write " + resource}
	}
	del := func(resource string) permissionSeed {
		return permissionSeed{resource, "delete", "Delete " + resource}
	}

	return []roleSeed{
		{
			name: "ADMIN",
			permissions: []permissionSeed{
				read("portfolio"), write("portfolio"), del("portfolio"),
				read("technology"), write("technology"), del("technology"),
				read("user"), write("user"),
			},
		},
		{
			name: "MANAGER",
			permissions: []permissionSeed{
				read("portfolio"), write("portfolio"),
				read("technology"), write("technology"),
			},
		},
		{
			name: "VIEWER",
			permissions: []permissionSeed{
				read("portfolio"),
				read("technology"),
			},
		},
	}
}

// SeedDefaults creates the default roles and permissions when the role
// table is empty.
func (s *BootstrapService) SeedDefaults(ctx context.Context) error {
	empty, err := s.Store.Roles().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: check roles: %w", err)
	}
	if !empty {
		return nil
	}

	for _, seed := range defaultRoleSeeds() {
		role := domain.Role{
			ID:     idx.New().String(),
			Name:   seed.name,
			Active: true,
		}
		if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
			return fmt.Errorf("bootstrap: create role %s: %w", seed.name, err)
		}

		for _, ps := range seed.permissions {
			perm, err := s.ensurePermission(ctx, ps)
			if err != nil {
				return err
			}
			if err := s.Store.Roles().GrantPermission(ctx, role.ID, perm.ID); err != nil {
				return fmt.Errorf("bootstrap: grant %s to %s: %w", perm.Key(), seed.name, err)
			}
		}

		if s.Logger != nil {
			s.Logger.Info("seeded role", "role", seed.name, "permissions", len(seed.permissions))
		}
	}
	return nil
}

// ensurePermission fetches or creates the permission for a seed. Seeds
// overlap across roles, so the lookup-first order matters.
func (s *BootstrapService) ensurePermission(ctx context.Context, ps permissionSeed) (domain.Permission, error) {
	perm, err := s.Store.Permissions().GetPermission(ctx, ps.resource, ps.action)
	if err == nil {
		return perm, nil
	}

	perm = domain.Permission{
		ID:          idx.New().String(),
		Resource:    ps.resource,
		Action:      ps.action,
		DisplayName: ps.display,
		Active:      true,
	}
	if err := s.Store.Permissions().CreatePermission(ctx, perm); err != nil {
		return domain.Permission{}, fmt.Errorf("bootstrap: create permission %s: %w", perm.Key(), err)
	}
	return perm, nil
}
