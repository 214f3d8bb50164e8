package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
)

// RegisterRoutes registers routes that need neither authentication nor a
// handler struct: the health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers login and self-service registration.  Both are
// public; everything they return is needed before a token exists.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.PersonHandler) {
	e.POST("/auth/login", a.Login)
	e.POST("/persons", p.Register)
}

// RegisterPublic exposes catalog reads to guests.  Responses pass through
// the Redis response cache.
func RegisterPublic(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	e.GET("/group", h.ListGroups, cache)
	e.GET("/group/:id", h.GetGroup, cache)
	e.GET("/accessory", h.ListAccessories, cache)
	e.GET("/accessory/:id", h.GetAccessory, cache)
}

// RegisterPersons registers account endpoints for authenticated persons.
// Handlers enforce self-or-MANAGER access; listing is MANAGER only.
func RegisterPersons(e *echo.Echo, p *handler.PersonHandler, jwtSecret string) {
	g := e.Group("/persons", middleware.JWTAuth(jwtSecret), middleware.RequireRole("USER", "MANAGER"))
	g.GET("", p.List, middleware.RequireRole("MANAGER"))
	g.POST("/email", p.FindByEmail)
	g.GET("/:id", p.Get)
	g.PUT("/:id", p.Update)
	g.DELETE("/:id", p.Delete)
}
