package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/chairmanhq/chairman-server/internal/handler"
	"github.com/chairmanhq/chairman-server/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	// Logout accepts a refresh_token in the body so it does not need the
	// JWT middleware; with no body token it falls back to the bearer.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateProfile)
}

// RegisterSchedule registers the appointment book, the client book and the
// service catalog under /v1.  Everything here requires a valid access
// token; the extra middleware (cache, rate limit) is attached by the
// caller so tests can register routes without Redis.
func RegisterSchedule(e *echo.Echo, ah *handler.AppointmentHandler, ch *handler.ClientHandler, sh *handler.ServiceHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	for _, m := range extra {
		g.Use(m)
	}

	// ---- Appointments ----
	// Availability is registered before /:id so Echo does not swallow it
	// as a path parameter.
	g.GET("/appointments/availability", ah.Availability)
	g.POST("/appointments", ah.Book)
	g.GET("/appointments", ah.ListForDate)
	g.GET("/appointments/:id", ah.Get)
	g.POST("/appointments/:id/toggle-paid", ah.TogglePaid)
	g.DELETE("/appointments/:id", ah.Delete)

	// ---- Clients ----
	g.POST("/clients", ch.Create)
	g.GET("/clients", ch.List)
	g.GET("/clients/:id", ch.Get)
	g.PUT("/clients/:id", ch.Update)
	g.PATCH("/clients/:id", ch.Update)
	g.POST("/clients/:id/no-show", ch.NoShow)
	g.DELETE("/clients/:id", ch.Delete)

	// ---- Services ----
	g.POST("/services", sh.Create)
	g.GET("/services", sh.List)
	g.GET("/services/:id", sh.Get)
	g.PUT("/services/:id", sh.Update)
	g.PATCH("/services/:id", sh.Update)
	g.DELETE("/services/:id", sh.Delete)
}
