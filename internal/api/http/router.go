package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nsu-it/helpdesk-service/internal/api/http/handlers"
	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Get("/users/me", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Users.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Users.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	staffGroup := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(
		domain.StaffRoleFrontDesk,
		domain.StaffRoleITStaff,
		domain.StaffRoleAdmin,
	))
	staffGroup.Get("/me", cfg.Staff.Me)
	staffGroup.Get("/members", cfg.Staff.ListActive)
	staffGroup.Get("/stats", cfg.Stats.Dashboard)

	staffTickets := staffGroup.Group("/tickets")
	staffTickets.Get("", cfg.StaffTickets.ListTickets)
	staffTickets.Get("/board", cfg.StaffTickets.Board)
	staffTickets.Post("/bulk", cfg.StaffTickets.BulkStatus)
	staffTickets.Get("/:id", cfg.StaffTickets.GetTicket)
	staffTickets.Patch("/:id/status", cfg.StaffTickets.UpdateStatus)
	staffTickets.Put("/:id/assign", cfg.StaffTickets.Assign)
	staffTickets.Patch("/:id/priority", cfg.StaffTickets.UpdatePriority)
	staffTickets.Post("/:id/notes", cfg.StaffTickets.AddNote)
	staffTickets.Get("/:id/history", cfg.StaffTickets.History)
}
