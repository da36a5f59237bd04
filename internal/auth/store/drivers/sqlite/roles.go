package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/store"
)

type rolesRepo struct {
	db *sql.DB
}

func (r *rolesRepo) ListActiveRolesForUser(ctx context.Context, username string) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.active, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.username = ? AND r.active = 1
		ORDER BY r.name`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM roles WHERE name = ?`, name)

	role, err := scanRole(row)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		role.ID, role.Name, boolToInt(role.Active), now, now)
	return err
}

func (r *rolesRepo) SetRoleActive(ctx context.Context, roleID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE roles SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), time.Now().UTC(), roleID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *rolesRepo) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
		roleID, permissionID)
	return err
}

func (r *rolesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (domain.Role, error) {
	var (
		role  domain.Role
		activ int
	)
	if err := row.Scan(&role.ID, &role.Name, &activ, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return domain.Role{}, err
	}
	role.Active = activ != 0
	return role, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRowAffected maps an update that matched nothing to ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
