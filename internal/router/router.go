package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edutrack-api/internal/config"
	"github.com/noah-isme/edutrack-api/internal/handler"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	SemesterHandler     *handler.SemesterHandler
	CourseHandler       *handler.CourseHandler
	AssignmentHandler   *handler.AssignmentHandler
	AnnouncementHandler *handler.AnnouncementHandler
	MaterialHandler     *handler.MaterialHandler
	TimetableHandler    *handler.TimetableHandler
	GradeHandler        *handler.GradeHandler
	ActivityHandler     *handler.ActivityHandler
	UserHandler         *handler.UserHandler
	HealthChecks        map[string]handler.Pinger

	// JWTMiddleware authenticates the bearer token; IdentityMiddleware
	// resolves the caller's relations and must run after it.
	JWTMiddleware      fiber.Handler
	IdentityMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	authenticate := []fiber.Handler{passThrough(deps.JWTMiddleware), passThrough(deps.IdentityMiddleware)}
	protected := func(prefix string, extra ...fiber.Handler) fiber.Router {
		return api.Group(prefix, append(append([]fiber.Handler{}, authenticate...), extra...)...)
	}

	if deps.AuthHandler != nil {
		limiter := middleware.RateLimit("auth", cfg.AuthRateLimit, rateWindow(cfg))
		deps.AuthHandler.Register(api.Group("/auth"), limiter, authenticate...)
	}
	if deps.SemesterHandler != nil {
		deps.SemesterHandler.Register(protected("/semesters"))
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(protected("/courses"))
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(protected("/assignments"))
	}
	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.Register(protected("/announcements"))
	}
	if deps.MaterialHandler != nil {
		deps.MaterialHandler.Register(protected("/materials"))
	}
	if deps.TimetableHandler != nil {
		deps.TimetableHandler.Register(protected("/timetable"))
	}
	if deps.GradeHandler != nil {
		deps.GradeHandler.Register(protected("/grades"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected("/admin/activities", middleware.RequireRole(policy.RoleAdmin)))
	}
	if deps.UserHandler != nil {
		deps.UserHandler.Register(protected("/admin/users", middleware.RequireRole(policy.RoleAdmin)))
	}
}

func passThrough(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}

func rateWindow(cfg config.Config) time.Duration {
	if cfg.AuthRateWindow <= 0 {
		return time.Minute
	}
	return cfg.AuthRateWindow
}
