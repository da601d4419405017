package models

import "time"

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleStaff   UserRole = "staff"
)

// ParseUserRole validates a role string coming from a request or an invite.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case UserRoleAdmin, UserRoleManager, UserRoleStaff:
		return UserRole(s), true
	}
	return "", false
}

func (r UserRole) CanManageUsers() bool {
	return r == UserRoleAdmin || r == UserRoleManager
}

type User struct {
	ID             string
	Email          string
	PasswordHash   []byte
	FirstName      string
	LastName       string
	PhoneNumber    string
	Role           UserRole
	OrganizationID *string
	AvatarURL      *string
	IsActive       bool
	IsVerified     bool
	LastLoginIP    *string
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u User) InOrganization() bool {
	return u.OrganizationID != nil && *u.OrganizationID != ""
}
