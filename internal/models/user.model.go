package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"

	// DefaultRole applies to any principal without a row in user_roles.
	DefaultRole = RoleGuest
)

func ParseRole(value string) (Role, bool) {
	switch role := Role(value); role {
	case RoleAdmin, RoleUser, RoleGuest:
		return role, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// UserProfile is keyed by the caller's principal; only the display name is
// part of the public shape.
type UserProfile struct {
	Principal string `gorm:"type:varchar(128);primaryKey" json:"-"`
	Name      string `gorm:"type:varchar(100);not null"   json:"name"`
	Timestamps
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

type UserRole struct {
	Principal  string    `gorm:"type:varchar(128);primaryKey" json:"principal"`
	Role       Role      `gorm:"type:varchar(16);not null"    json:"role"`
	AssignedBy string    `gorm:"type:varchar(128)"            json:"assignedBy"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"               json:"updatedAt"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type SaveProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AssignRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=admin user guest"`
}

// CollectionVersion counts committed mutations per collection.
type CollectionVersion struct {
	Collection string `gorm:"type:varchar(64);primaryKey" json:"collection"`
	Version    int64  `gorm:"not null"                    json:"version"`
}

func (CollectionVersion) TableName() string {
	return "collection_versions"
}
