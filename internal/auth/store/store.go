package store

import (
	"context"
	"errors"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the principal-store data access interface. Concrete drivers
// (sqlite for now) implement this. The authorization decision path only ever
// reads; the write methods exist for the identity-sync importer, bootstrap
// seeding and tests. Audit events are the single runtime write path.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByUsername returns the principal for a username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// IsUserActive reports the activation flag; ErrNotFound for unknown users.
	IsUserActive(ctx context.Context, username string) (bool, error)

	// GetOrganizationForUser returns the organization id, empty when the
	// user has no affiliation.
	GetOrganizationForUser(ctx context.Context, username string) (string, error)

	// CreateUser inserts a principal mirrored from identity management.
	CreateUser(ctx context.Context, u domain.User) error

	// SetUserActive flips the activation flag and bumps updated_at.
	SetUserActive(ctx context.Context, username string, active bool) error

	// AssignRole links a user to a role. Idempotent.
	AssignRole(ctx context.Context, username, roleID string) error

	// RemoveRole unlinks a user from a role.
	RemoveRole(ctx context.Context, username, roleID string) error
}

type Roles interface {
	// ListActiveRolesForUser returns the user's assigned roles filtered to
	// active ones. Empty slice, not an error, for unknown users.
	ListActiveRolesForUser(ctx context.Context, username string) ([]domain.Role, error)

	// GetRoleByName fetches a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// CreateRole inserts a new role (id is a ULID).
	CreateRole(ctx context.Context, r domain.Role) error

	// SetRoleActive flips the activation flag and bumps updated_at.
	SetRoleActive(ctx context.Context, roleID string, active bool) error

	// GrantPermission links a permission to a role. Idempotent.
	GrantPermission(ctx context.Context, roleID, permissionID string) error

	// IsEmpty reports whether any roles exist, used to decide seeding.
	IsEmpty(ctx context.Context) (bool, error)
}

type Permissions interface {
	// ListActivePermissionsForRole returns the role's permissions filtered
	// to active ones.
	ListActivePermissionsForRole(ctx context.Context, roleID string) ([]domain.Permission, error)

	// GetPermission fetches a permission by its (resource, action) pair.
	GetPermission(ctx context.Context, resource, action string) (domain.Permission, error)

	// CreatePermission inserts a new permission (id is a ULID).
	CreatePermission(ctx context.Context, p domain.Permission) error

	// SetPermissionActive flips the activation flag and bumps updated_at.
	SetPermissionActive(ctx context.Context, permissionID string, active bool) error
}

type AuditEvents interface {
	// InsertAuditEvent appends an event. Events are write-once; there is no
	// update or single-row read surface.
	InsertAuditEvent(ctx context.Context, ev domain.AuditEvent) error

	// DeleteAuditEventsBefore prunes events older than cutoff (housekeeping).
	DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error

	// CountAuditEvents returns the number of stored events. Used by tests
	// and the readiness probe, not by the decision path.
	CountAuditEvents(ctx context.Context) (int64, error)
}
