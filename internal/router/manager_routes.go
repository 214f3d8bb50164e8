package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
)

// RegisterManager registers MANAGER-scoped catalog writes and the vehicle
// inventory.  invalidate drops cached catalog reads after each
// successful write.
func RegisterManager(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, invalidate echo.MiddlewareFunc) {
	mgr := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MANAGER"),
	}
	w := []echo.MiddlewareFunc{mgr[0], mgr[1], invalidate}

	// ---- Groups ----
	e.POST("/group", h.CreateGroup, w...)
	e.PUT("/group/:id", h.UpdateGroup, w...)
	e.DELETE("/group/:id", h.DeleteGroup, w...)

	// ---- Accessories ----
	e.POST("/accessory", h.CreateAccessory, w...)
	e.PUT("/accessory/:id", h.UpdateAccessory, w...)
	e.DELETE("/accessory/:id", h.DeleteAccessory, w...)

	// ---- Vehicles ----
	v := e.Group("/vehicles", mgr...)
	v.POST("", h.CreateVehicle)
	v.GET("", h.ListVehicles)
	v.GET("/:id", h.GetVehicle)
	v.PUT("/:id", h.UpdateVehicle)
	v.DELETE("/:id", h.DeleteVehicle)
}
