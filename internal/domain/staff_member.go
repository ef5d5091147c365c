package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleFrontDesk StaffRole = "FRONT_DESK"
	StaffRoleITStaff   StaffRole = "IT_STAFF"
	StaffRoleAdmin     StaffRole = "ADMIN"
)

// StaffMember models a helpdesk operator or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
