package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/appointment-service/internal/api/http/handlers"
	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Appointments      *handlers.AppointmentsHandler
	AdminAppointments *handlers.AdminAppointmentsHandler
	Staff             *handlers.StaffHandler
	AuthMiddleware    *auth.AuthMiddleware
	RateLimiter       *RateLimiter
	Metrics           *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/staff", cfg.Staff.List)
	api.Get("/staff/:id/availability", cfg.Staff.Availability)

	api.Post("/appointments", cfg.RateLimiter.Handle, cfg.Appointments.Create)
	api.Get("/appointments/:code", cfg.Appointments.GetByCode)
	api.Post("/appointments/:code/cancel", cfg.RateLimiter.Handle, cfg.Appointments.Cancel)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/appointments", cfg.AdminAppointments.List)
	admin.Get("/appointments/:id", cfg.AdminAppointments.Get)
	admin.Patch("/appointments/:id", cfg.AdminAppointments.Update)
	admin.Post("/appointments/:id/status", cfg.AdminAppointments.ChangeStatus)
	admin.Delete("/appointments/:id", cfg.AdminAppointments.Delete)
	admin.Get("/appointments/:id/history", cfg.AdminAppointments.History)

	admin.Post("/staff", cfg.Staff.Create)
	admin.Get("/staff/:id/schedules", cfg.Staff.Schedules)
	admin.Put("/staff/:id/schedules/:weekday", cfg.Staff.PutSchedule)
}
