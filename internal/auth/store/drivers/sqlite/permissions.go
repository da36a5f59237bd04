package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
)

type permissionsRepo struct {
	db *sql.DB
}

func (r *permissionsRepo) ListActivePermissionsForRole(ctx context.Context, roleID string) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.resource, p.action, p.display_name, p.active, p.created_at, p.updated_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ? AND p.active = 1
		ORDER BY p.resource, p.action`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *permissionsRepo) GetPermission(ctx context.Context, resource, action string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, resource, action, display_name, active, created_at, updated_at
		FROM permissions WHERE resource = ? AND action = ?`, resource, action)

	perm, err := scanPermission(row)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return perm, nil
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permissions (id, resource, action, display_name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Resource, p.Action, p.DisplayName, boolToInt(p.Active), now, now)
	return err
}

func (r *permissionsRepo) SetPermissionActive(ctx context.Context, permissionID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE permissions SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), time.Now().UTC(), permissionID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func scanPermission(row rowScanner) (domain.Permission, error) {
	var (
		p     domain.Permission
		activ int
	)
	err := row.Scan(&p.ID, &p.Resource, &p.Action, &p.DisplayName, &activ, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Permission{}, err
	}
	p.Active = activ != 0
	return p, nil
}
