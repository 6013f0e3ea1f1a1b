package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/http/handlers"
	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Staff          *handlers.StaffHandler
	Repairs        *handlers.RepairsHandler
	QR             *handlers.QRHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Staff.Login)

	staffGroup := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staffGroup.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Staff.CreateStaff)

	repairs := app.Group("/repairs", cfg.AuthMiddleware.Handle, auth.RequireRole())
	repairs.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleShopManager, domain.RoleSeller), cfg.Repairs.CreateRepair)
	repairs.Get("", cfg.Repairs.ListRepairs)
	repairs.Get("/:id", cfg.Repairs.GetRepair)
	repairs.Get("/:id/next-statuses", cfg.Repairs.NextStatuses)
	repairs.Post("/:id/transition", auth.RequireRole(domain.RoleAdmin, domain.RoleShopManager, domain.RoleTechnician), cfg.Repairs.Transition)
	repairs.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin, domain.RoleShopManager), cfg.Repairs.AssignTechnician)
	repairs.Get("/:id/audit", auth.RequireRole(domain.RoleAdmin, domain.RoleShopManager), cfg.Repairs.ListAudit)

	qr := app.Group("/qr", cfg.AuthMiddleware.Handle, auth.RequireRole())
	qr.Post("/generate", cfg.QR.Generate)
	qr.Post("/verify", cfg.QR.VerifyScan)
	qr.Post("/handoff", auth.RequireRole(domain.RoleAdmin, domain.RoleShopManager, domain.RoleSeller), cfg.QR.CompleteHandoff)
}
