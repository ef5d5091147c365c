package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nsu-it/helpdesk-service/internal/api/dto"
	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/service"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

// TicketsHandler manages requester ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Priority:        req.Priority,
		LabRelated:      req.IsLabRelated,
		AssetID:         req.AssetID,
		OSVersion:       req.OSVersion,
		LabName:         req.LabName,
		SoftwareName:    req.SoftwareName,
		RequisitionType: req.RequisitionType,
		ContactMethod:   req.ContactMethod,
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket, time.Now())})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter, err := parseUserTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListUserTickets(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	now := time.Now()
	items := make([]dto.TicketSummary, 0, len(tickets))
	for _, ticket := range tickets {
		items = append(items, dto.NewTicketSummary(ticket, now))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, notes, err := h.service.GetTicketForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(*ticket, notes, time.Now())})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.Context(), domain.SubjectTypeUser, principal.User.ID, c.Params("id"), req.Body, false)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketNoteResponse{
		ID:         note.ID,
		AuthorType: note.AuthorType,
		AuthorID:   note.AuthorID,
		Body:       note.Body,
		Internal:   note.Internal,
		CreatedAt:  note.CreatedAt,
	}})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.service.CloseTicketAsUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket, time.Now())})
}

func parseUserTicketQuery(c *fiber.Ctx) (service.TicketUserFilter, error) {
	filter := service.TicketUserFilter{}
	filter.Statuses = parseStatuses(c.Query("status"))
	filter.Priorities = parsePriorities(c.Query("priority"))
	filter.Categories = parseCategories(c.Query("category"))

	from, err := parseTime(c.Query("created_from"), "created_from")
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom = from
	to, err := parseTime(c.Query("created_to"), "created_to")
	if err != nil {
		return filter, err
	}
	filter.CreatedTo = to

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func parseStatuses(raw string) []domain.TicketStatus {
	if raw == "" {
		return nil
	}
	var out []domain.TicketStatus
	for _, part := range strings.Split(raw, ",") {
		out = append(out, domain.TicketStatus(strings.TrimSpace(part)))
	}
	return out
}

func parsePriorities(raw string) []domain.TicketPriority {
	if raw == "" {
		return nil
	}
	var out []domain.TicketPriority
	for _, part := range strings.Split(raw, ",") {
		out = append(out, domain.TicketPriority(strings.TrimSpace(part)))
	}
	return out
}

func parseCategories(raw string) []domain.TicketCategory {
	if raw == "" {
		return nil
	}
	var out []domain.TicketCategory
	for _, part := range strings.Split(raw, ",") {
		out = append(out, domain.TicketCategory(strings.TrimSpace(part)))
	}
	return out
}

// parseTime rejects malformed timestamps instead of silently dropping them.
func parseTime(val, field string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewInvalidDate(field)
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
