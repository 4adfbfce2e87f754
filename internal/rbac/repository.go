package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// Repository defines data access for roles, permissions and grants.
type Repository interface {
	ListRoles(ctx context.Context) ([]RoleWithStats, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	RoleNames(ctx context.Context) ([]string, error)

	ListPermissions(ctx context.Context) ([]Permission, error)
	FindPermissionByName(ctx context.Context, name string) (Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	UpdatePermission(ctx context.Context, id int64, name, description string) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	PermissionNames(ctx context.Context) ([]string, error)

	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	GrantExists(ctx context.Context, roleID, permissionID int64) (bool, error)
	CreateGrant(ctx context.Context, roleID, permissionID int64) (Grant, error)
	DeleteGrant(ctx context.Context, roleID, permissionID int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const uniqueViolation = "23505"

// wrapUnique maps unique-constraint violations to the duplicate sentinel so
// callers can tell a lost creation race apart from other store failures.
func wrapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// ListRoles returns all roles newest first, with their granted permissions and
// grant and member counts.
func (r *PGRepository) ListRoles(ctx context.Context) ([]RoleWithStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at,
		       (SELECT COUNT(*) FROM role_permissions rp WHERE rp.role_id = r.id),
		       (SELECT COUNT(*) FROM user_roles ur WHERE ur.role_id = r.id)
		  FROM roles r
		 ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []RoleWithStats
	for rows.Next() {
		var role RoleWithStats
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt, &role.PermissionCount, &role.MemberCount); err != nil {
			return nil, err
		}
		role.Permissions = []Permission{}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return roles, nil
	}

	grantRows, err := r.pool.Query(ctx, `
		SELECT rp.role_id, p.id, p.name, p.description, p.created_at, p.updated_at
		  FROM role_permissions rp
		  JOIN permissions p ON p.id = rp.permission_id
		 ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer grantRows.Close()
	byRole := make(map[int64][]Permission)
	for grantRows.Next() {
		var roleID int64
		var perm Permission
		if err := grantRows.Scan(&roleID, &perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		byRole[roleID] = append(byRole[roleID], perm)
	}
	if err := grantRows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		if perms, ok := byRole[roles[i].ID]; ok {
			roles[i].Permissions = perms
		}
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, httpx.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// FindRoleByName fetches a role by its unique name.
func (r *PGRepository) FindRoleByName(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, httpx.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (r *PGRepository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2)
		 RETURNING id, name, description, created_at, updated_at`,
		name, description,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, wrapUnique(err)
	}
	return role, nil
}

// UpdateRole updates name and description of an existing role.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2, description = $3, updated_at = NOW()
		  WHERE id = $1
		 RETURNING id, name, description, created_at, updated_at`,
		id, name, description,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, httpx.ErrNotFound
		}
		return Role{}, wrapUnique(err)
	}
	return role, nil
}

// DeleteRole removes a role. Dependent grants and memberships cascade.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// RoleNames returns all role names ordered alphabetically.
func (r *PGRepository) RoleNames(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM roles ORDER BY name`)
}

// ListPermissions returns all permissions newest first.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM permissions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// FindPermissionByName fetches a permission by its unique name.
func (r *PGRepository) FindPermissionByName(ctx context.Context, name string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM permissions WHERE name = $1`, name,
	).Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, httpx.ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

// CreatePermission inserts a new permission.
func (r *PGRepository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, description) VALUES ($1, $2)
		 RETURNING id, name, description, created_at, updated_at`,
		name, description,
	).Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		return Permission{}, wrapUnique(err)
	}
	return perm, nil
}

// UpdatePermission updates name and description of an existing permission.
func (r *PGRepository) UpdatePermission(ctx context.Context, id int64, name, description string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx,
		`UPDATE permissions SET name = $2, description = $3, updated_at = NOW()
		  WHERE id = $1
		 RETURNING id, name, description, created_at, updated_at`,
		id, name, description,
	).Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, httpx.ErrNotFound
		}
		return Permission{}, wrapUnique(err)
	}
	return perm, nil
}

// DeletePermission removes a permission. Dependent grants cascade.
func (r *PGRepository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// PermissionNames returns all permission names ordered alphabetically.
func (r *PGRepository) PermissionNames(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM permissions ORDER BY name`)
}

// ListRolePermissions returns the permissions granted to a role.
func (r *PGRepository) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.created_at, p.updated_at
		  FROM role_permissions rp
		  JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// GrantExists reports whether the (role, permission) grant is present.
func (r *PGRepository) GrantExists(ctx context.Context, roleID, permissionID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_permissions WHERE role_id = $1 AND permission_id = $2)`,
		roleID, permissionID,
	).Scan(&exists)
	return exists, err
}

// CreateGrant attaches a permission to a role.
func (r *PGRepository) CreateGrant(ctx context.Context, roleID, permissionID int64) (Grant, error) {
	var grant Grant
	err := r.pool.QueryRow(ctx,
		`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
		 RETURNING role_id, permission_id, created_at`,
		roleID, permissionID,
	).Scan(&grant.RoleID, &grant.PermissionID, &grant.CreatedAt)
	if err != nil {
		return Grant{}, wrapUnique(err)
	}
	return grant, nil
}

// DeleteGrant detaches a permission from a role.
func (r *PGRepository) DeleteGrant(ctx context.Context, roleID, permissionID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) names(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
