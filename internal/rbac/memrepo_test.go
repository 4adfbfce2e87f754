package rbac_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/rbac"
)

// memRepo is an in-memory Repository with the same error contract as the
// PostgreSQL implementation.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	roles  map[int64]rbac.Role
	perms  map[int64]rbac.Permission
	grants map[[2]int64]rbac.Grant
	users  map[int64][]int64 // role id -> member user ids

	failWith error // when set, every call returns this error
}

func newMemRepo() *memRepo {
	return &memRepo{
		roles:  map[int64]rbac.Role{},
		perms:  map[int64]rbac.Permission{},
		grants: map[[2]int64]rbac.Grant{},
		users:  map[int64][]int64{},
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) ListRoles(ctx context.Context) ([]rbac.RoleWithStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []rbac.RoleWithStats
	for id, role := range m.roles {
		stats := rbac.RoleWithStats{Role: role, Permissions: []rbac.Permission{}}
		for key := range m.grants {
			if key[0] == id {
				stats.Permissions = append(stats.Permissions, m.perms[key[1]])
				stats.PermissionCount++
			}
		}
		sort.Slice(stats.Permissions, func(i, j int) bool {
			return stats.Permissions[i].Name < stats.Permissions[j].Name
		})
		stats.MemberCount = len(m.users[id])
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Role{}, m.failWith
	}
	role, ok := m.roles[id]
	if !ok {
		return rbac.Role{}, httpx.ErrNotFound
	}
	return role, nil
}

func (m *memRepo) FindRoleByName(ctx context.Context, name string) (rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Role{}, m.failWith
	}
	for _, role := range m.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return rbac.Role{}, httpx.ErrNotFound
}

func (m *memRepo) CreateRole(ctx context.Context, name, description string) (rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Role{}, m.failWith
	}
	for _, role := range m.roles {
		if role.Name == name {
			return rbac.Role{}, fmt.Errorf("%w: roles_name_key", httpx.ErrDuplicate)
		}
	}
	now := time.Now()
	role := rbac.Role{ID: m.id(), Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	m.roles[role.ID] = role
	return role, nil
}

func (m *memRepo) UpdateRole(ctx context.Context, id int64, name, description string) (rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Role{}, m.failWith
	}
	role, ok := m.roles[id]
	if !ok {
		return rbac.Role{}, httpx.ErrNotFound
	}
	for otherID, other := range m.roles {
		if otherID != id && other.Name == name {
			return rbac.Role{}, fmt.Errorf("%w: roles_name_key", httpx.ErrDuplicate)
		}
	}
	role.Name = name
	role.Description = description
	role.UpdatedAt = time.Now()
	m.roles[id] = role
	return role, nil
}

func (m *memRepo) DeleteRole(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.roles[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.roles, id)
	for key := range m.grants {
		if key[0] == id {
			delete(m.grants, key)
		}
	}
	return nil
}

func (m *memRepo) RoleNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var names []string
	for _, role := range m.roles {
		names = append(names, role.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memRepo) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []rbac.Permission
	for _, perm := range m.perms {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) FindPermissionByName(ctx context.Context, name string) (rbac.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Permission{}, m.failWith
	}
	for _, perm := range m.perms {
		if perm.Name == name {
			return perm, nil
		}
	}
	return rbac.Permission{}, httpx.ErrNotFound
}

func (m *memRepo) CreatePermission(ctx context.Context, name, description string) (rbac.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Permission{}, m.failWith
	}
	for _, perm := range m.perms {
		if perm.Name == name {
			return rbac.Permission{}, fmt.Errorf("%w: permissions_name_key", httpx.ErrDuplicate)
		}
	}
	now := time.Now()
	perm := rbac.Permission{ID: m.id(), Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	m.perms[perm.ID] = perm
	return perm, nil
}

func (m *memRepo) UpdatePermission(ctx context.Context, id int64, name, description string) (rbac.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Permission{}, m.failWith
	}
	perm, ok := m.perms[id]
	if !ok {
		return rbac.Permission{}, httpx.ErrNotFound
	}
	perm.Name = name
	perm.Description = description
	perm.UpdatedAt = time.Now()
	m.perms[id] = perm
	return perm, nil
}

func (m *memRepo) DeletePermission(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.perms[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.perms, id)
	for key := range m.grants {
		if key[1] == id {
			delete(m.grants, key)
		}
	}
	return nil
}

func (m *memRepo) PermissionNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var names []string
	for _, perm := range m.perms {
		names = append(names, perm.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []rbac.Permission
	for key := range m.grants {
		if key[0] == roleID {
			out = append(out, m.perms[key[1]])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) GrantExists(ctx context.Context, roleID, permissionID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.grants[[2]int64{roleID, permissionID}]
	return ok, nil
}

func (m *memRepo) CreateGrant(ctx context.Context, roleID, permissionID int64) (rbac.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return rbac.Grant{}, m.failWith
	}
	key := [2]int64{roleID, permissionID}
	if _, ok := m.grants[key]; ok {
		return rbac.Grant{}, fmt.Errorf("%w: role_permissions_pkey", httpx.ErrDuplicate)
	}
	grant := rbac.Grant{RoleID: roleID, PermissionID: permissionID, CreatedAt: time.Now()}
	m.grants[key] = grant
	return grant, nil
}

func (m *memRepo) DeleteGrant(ctx context.Context, roleID, permissionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	key := [2]int64{roleID, permissionID}
	if _, ok := m.grants[key]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.grants, key)
	return nil
}

var _ rbac.Repository = (*memRepo)(nil)
