package rbac

import "time"

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission represents an atomic capability, named resource:action.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Grant ties a permission to a role. At most one grant exists per pair.
type Grant struct {
	RoleID       int64     `json:"role_id"`
	PermissionID int64     `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleWithStats is the list view of a role: granted permissions plus grant and
// membership counts.
type RoleWithStats struct {
	Role
	Permissions     []Permission `json:"permissions"`
	PermissionCount int          `json:"permission_count"`
	MemberCount     int          `json:"member_count"`
}

// RoleDetail is the detail view of a role with its granted permissions.
type RoleDetail struct {
	Role
	Permissions []Permission `json:"permissions"`
}
