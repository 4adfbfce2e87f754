package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"-"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
	Roles        []HeldRole `json:"roles"`
}

// HeldRole is the role view attached to an authenticated user, carrying the
// names of the permissions the role grants.
type HeldRole struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}
