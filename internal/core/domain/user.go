package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleTablet     Role = "tablet"
)

var roleLabels = map[Role]string{
	RoleSuperAdmin: "Super Administrador",
	RoleAdmin:      "Administrador",
	RoleUser:       "Usuario",
	RoleTablet:     "Tablet",
}

// ParseRole accepts either the stored code or the display label, case-insensitively.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for role, label := range roleLabels {
		if strings.EqualFold(s, string(role)) || strings.EqualFold(s, label) {
			return role, true
		}
	}
	return "", false
}

func (r Role) Label() string {
	return roleLabels[r]
}

// IsAdmin reports whether the role may administer users and every reservation.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusPending  UserStatus = "pending"
	StatusInactive UserStatus = "inactive"
)

var statusLabels = map[UserStatus]string{
	StatusActive:   "Activo",
	StatusPending:  "Pendiente",
	StatusInactive: "Inactivo",
}

func ParseUserStatus(s string) (UserStatus, bool) {
	s = strings.TrimSpace(s)
	for status, label := range statusLabels {
		if strings.EqualFold(s, string(status)) || strings.EqualFold(s, label) {
			return status, true
		}
	}
	return "", false
}

func (s UserStatus) Label() string {
	return statusLabels[s]
}

type User struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	Email              string     `db:"email"`
	PasswordHash       string     `db:"password_hash"`
	Role               Role       `db:"role"`
	Status             UserStatus `db:"status"`
	TemporaryPassword  bool       `db:"temporary_password"`
	AssignedSpaceID    *string    `db:"assigned_space_id"`
	LastPasswordChange time.Time  `db:"last_password_change"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// NormalizeEmail is the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserFilter struct {
	Role   Role
	Status UserStatus
}
