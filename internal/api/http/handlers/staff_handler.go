package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nsu-it/helpdesk-service/internal/api/dto"
	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	"github.com/nsu-it/helpdesk-service/internal/service"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

// StaffHandler manages staff login and directory endpoints.
type StaffHandler struct {
	authService *service.AuthService
	staffRepo   repository.StaffRepository
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, staffRepo repository.StaffRepository) *StaffHandler {
	return &StaffHandler{authService: authService, staffRepo: staffRepo}
}

// Login POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.authService.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"token": dto.TokenResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		"staff": dto.NewStaffResponse(result.Staff),
	}})
}

// Me GET /staff/me.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(principal.Staff)})
}

// ListActive GET /staff/members lists assignable staff.
func (h *StaffHandler) ListActive(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	members, err := h.staffRepo.ListActive(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.NewStaffResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
