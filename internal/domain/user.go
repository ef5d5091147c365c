package domain

import "time"

// UserRole is the campus role of a requester.
type UserRole string

const (
	RoleStudent       UserRole = "student"
	RoleFaculty       UserRole = "faculty"
	RoleStaff         UserRole = "staff"
	RoleLabInstructor UserRole = "lab_instructor"
)

// UserType refines a role; it feeds the priority rule table.
type UserType string

const (
	TypeDean                UserType = "dean"
	TypeDepartmentChair     UserType = "department_chair"
	TypeProfessor           UserType = "professor"
	TypeAssistantProfessor  UserType = "assistant_professor"
	TypeLecturer            UserType = "lecturer"
	TypeAdministrativeStaff UserType = "administrative_staff"
	TypeFresherStudent      UserType = "fresher_student"
)

// UserStatus represents lifecycle states for a requester account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for requesters who submit tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Type         UserType
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
