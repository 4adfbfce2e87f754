package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/accesshub/accesshub/internal/auth"
	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/shared"
)

// DirectoryInvalidator drops a cached role/permission name directory after a
// mutation. The agent's snapshot cache implements it.
type DirectoryInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service orchestrates RBAC operations. Every mutation records a best-effort
// audit entry; audit failures are logged and never fail the request. Mutations
// that change the set of names also drop the cached directory so prompt
// snapshots never outlive a rename.
type Service struct {
	repo      Repository
	audit     *shared.AuditLogger
	directory DirectoryInvalidator
	logger    *slog.Logger
}

// NewService constructs a Service. directory may be nil.
func NewService(repo Repository, audit *shared.AuditLogger, directory DirectoryInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, directory: directory, logger: logger}
}

// ListRoles returns all roles with grant and member counts, newest first.
func (s *Service) ListRoles(ctx context.Context) ([]RoleWithStats, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role with its granted permissions.
func (s *Service) GetRole(ctx context.Context, id int64) (RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	perms, err := s.repo.ListRolePermissions(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	return RoleDetail{Role: role, Permissions: perms}, nil
}

// FindRoleByName fetches a role by its unique name.
func (s *Service) FindRoleByName(ctx context.Context, name string) (Role, error) {
	return s.repo.FindRoleByName(ctx, name)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role.create", "role", role.ID, map[string]any{"name": role.Name})
	s.dropDirectory(ctx)
	return role, nil
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role.update", "role", role.ID, map[string]any{"name": role.Name})
	s.dropDirectory(ctx)
	return role, nil
}

// DeleteRole removes a role by ID.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "role.delete", "role", id, nil)
	s.dropDirectory(ctx)
	return nil
}

// RoleNames returns all role names.
func (s *Service) RoleNames(ctx context.Context) ([]string, error) {
	return s.repo.RoleNames(ctx)
}

// ListPermissions returns all permissions, newest first.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// FindPermissionByName fetches a permission by its unique name.
func (s *Service) FindPermissionByName(ctx context.Context, name string) (Permission, error) {
	return s.repo.FindPermissionByName(ctx, name)
}

// CreatePermission inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name required", httpx.ErrValidation)
	}
	perm, err := s.repo.CreatePermission(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Permission{}, err
	}
	s.record(ctx, "permission.create", "permission", perm.ID, map[string]any{"name": perm.Name})
	s.dropDirectory(ctx)
	return perm, nil
}

// UpdatePermission updates an existing permission.
func (s *Service) UpdatePermission(ctx context.Context, id int64, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name required", httpx.ErrValidation)
	}
	perm, err := s.repo.UpdatePermission(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Permission{}, err
	}
	s.record(ctx, "permission.update", "permission", perm.ID, map[string]any{"name": perm.Name})
	s.dropDirectory(ctx)
	return perm, nil
}

// DeletePermission removes a permission by ID.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "permission.delete", "permission", id, nil)
	s.dropDirectory(ctx)
	return nil
}

// PermissionNames returns all permission names.
func (s *Service) PermissionNames(ctx context.Context) ([]string, error) {
	return s.repo.PermissionNames(ctx)
}

// GrantExists reports whether a (role, permission) grant is present.
func (s *Service) GrantExists(ctx context.Context, roleID, permissionID int64) (bool, error) {
	return s.repo.GrantExists(ctx, roleID, permissionID)
}

// GrantPermission attaches a permission to a role.
func (s *Service) GrantPermission(ctx context.Context, roleID, permissionID int64) (Grant, error) {
	grant, err := s.repo.CreateGrant(ctx, roleID, permissionID)
	if err != nil {
		return Grant{}, err
	}
	s.record(ctx, "role.grant", "role", roleID, map[string]any{"permission_id": permissionID})
	return grant, nil
}

// RevokePermission detaches a permission from a role.
func (s *Service) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	if err := s.repo.DeleteGrant(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.record(ctx, "role.revoke", "role", roleID, map[string]any{"permission_id": permissionID})
	return nil
}

// dropDirectory invalidates the cached name directory. Grants are not name
// changes and do not pass through here.
func (s *Service) dropDirectory(ctx context.Context) {
	if s.directory != nil {
		s.directory.Invalidate(ctx)
	}
}

func (s *Service) record(ctx context.Context, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if user := auth.UserFromContext(ctx); user != nil {
		actorID = user.ID
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.String("action", action), slog.Any("error", err))
	}
}
