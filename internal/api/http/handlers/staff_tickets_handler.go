package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nsu-it/helpdesk-service/internal/api/dto"
	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/service"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

// StaffTicketsHandler manages staff triage endpoints.
type StaffTicketsHandler struct {
	service *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{service: ticketService}
}

// ListTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	filter, err := parseStaffTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListStaffTickets(c.Context(), filter)
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

// Board GET /staff/tickets/board groups open tickets by status.
func (h *StaffTicketsHandler) Board(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	columns, err := h.service.BoardColumns(c.Context())
	if err != nil {
		return err
	}
	now := time.Now()
	board := make(map[domain.TicketStatus][]dto.TicketSummary, len(columns))
	for status, tickets := range columns {
		items := make([]dto.TicketSummary, 0, len(tickets))
		for _, ticket := range tickets {
			items = append(items, dto.NewTicketSummary(ticket, now))
		}
		board[status] = items
	}
	return c.JSON(fiber.Map{"data": board})
}

// GetTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	ticket, notes, err := h.service.GetTicketForStaff(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(*ticket, notes, time.Now())})
}

// UpdateStatus PATCH /staff/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateStatus(c.Context(), staff, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket, time.Now())})
}

// Assign PUT /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	ticket, err := h.service.AssignTicket(c.Context(), staff, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket, time.Now())})
}

// UpdatePriority PATCH /staff/tickets/:id/priority.
func (h *StaffTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdatePriority(c.Context(), staff, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket, time.Now())})
}

// AddNote POST /staff/tickets/:id/notes.
func (h *StaffTicketsHandler) AddNote(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.Context(), domain.SubjectTypeStaff, staff.ID, c.Params("id"), req.Body, req.Internal)
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

// History GET /staff/tickets/:id/history.
func (h *StaffTicketsHandler) History(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), 50)
	offset := 0
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	entries, err := h.service.ListHistory(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewTicketHistoryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// BulkStatus POST /staff/tickets/bulk. Admin-only escape hatch that
// skips the transition gate.
func (h *StaffTicketsHandler) BulkStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.BulkStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	affected, err := h.service.BulkOverrideStatus(c.Context(), staff, req.TicketIDs, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkStatusResponse{Affected: affected}})
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	return principal.Staff, nil
}

func parseStaffTicketQuery(c *fiber.Ctx) (service.TicketStaffFilter, error) {
	filter := service.TicketStaffFilter{}
	filter.Statuses = parseStatuses(c.Query("status"))
	filter.Priorities = parsePriorities(c.Query("priority"))
	filter.Categories = parseCategories(c.Query("category"))
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := c.Query("q"); search != "" {
		filter.SearchTerm = &search
	}

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
