package dto

import (
	"time"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// StaffResponse is the public staff representation.
type StaffResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      domain.StaffRole `json:"role"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewStaffResponse maps a domain staff member.
func NewStaffResponse(member *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:        member.ID,
		Name:      member.Name,
		Email:     member.Email,
		Role:      member.Role,
		Active:    member.Active,
		CreatedAt: member.CreatedAt,
	}
}
