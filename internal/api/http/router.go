package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/http/handlers"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Organizations  *handlers.OrganizationsHandler
	QueueFilters   *handlers.QueueFiltersHandler
	Handovers      *handlers.HandoversHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	users := api.Group("/users", auth.RequireStaff())
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/", auth.RequireAdmin(), cfg.Users.Create)
	users.Patch("/:id", auth.RequireAdmin(), cfg.Users.Update)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/urgent", cfg.Tickets.ListUrgent)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Get("/:id/sla", cfg.Tickets.SLAStatus)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/assign", auth.RequireStaff(), cfg.Tickets.Assign)
	tickets.Post("/:id/assign/self", auth.RequireStaff(), cfg.Tickets.SelfAssign)
	tickets.Post("/:id/assign/auto", auth.RequireStaff(), cfg.Tickets.AutoAssign)

	filters := api.Group("/queue-filters")
	filters.Get("/", cfg.QueueFilters.List)
	filters.Post("/", cfg.QueueFilters.Create)
	filters.Post("/preview", cfg.QueueFilters.Preview)
	filters.Get("/:id", cfg.QueueFilters.Get)
	filters.Put("/:id", cfg.QueueFilters.Update)
	filters.Delete("/:id", cfg.QueueFilters.Delete)
	filters.Post("/:id/default", cfg.QueueFilters.SetDefault)
	filters.Get("/:id/tickets", cfg.QueueFilters.Apply)

	orgs := api.Group("/organizations")
	orgs.Get("/", cfg.Organizations.List)
	orgs.Post("/", auth.RequireAdmin(), cfg.Organizations.Create)
	orgs.Get("/:id", cfg.Organizations.Get)
	orgs.Patch("/:id", cfg.Organizations.Update)
	orgs.Delete("/:id", auth.RequireAdmin(), cfg.Organizations.Delete)
	orgs.Get("/:id/members", cfg.Organizations.ListMembers)
	orgs.Post("/:id/members", cfg.Organizations.AddMember)
	orgs.Patch("/:id/members/:userId", cfg.Organizations.SetMemberAdmin)
	orgs.Delete("/:id/members/:userId", cfg.Organizations.RemoveMember)
	orgs.Get("/:id/logs", cfg.Organizations.ListLogs)

	handovers := api.Group("/handovers", auth.RequireStaff())
	handovers.Get("/", cfg.Handovers.List)
	handovers.Post("/", cfg.Handovers.Create)
	handovers.Get("/:id", cfg.Handovers.Get)
	handovers.Put("/:id", cfg.Handovers.Update)
	handovers.Delete("/:id", cfg.Handovers.Delete)
	handovers.Post("/:id/review", cfg.Handovers.Review)
	handovers.Post("/:id/action-items", cfg.Handovers.AddActionItem)
	handovers.Post("/:id/action-items/:itemId/complete", cfg.Handovers.CompleteActionItem)

	analytics := api.Group("/analytics", auth.RequireStaff())
	analytics.Get("/overview", cfg.Analytics.Overview)
	analytics.Get("/metrics", auth.RequireAdmin(), cfg.Analytics.Metrics)
}
