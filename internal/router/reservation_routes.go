package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
)

// RegisterReservations registers the reservation endpoints (JWT, any role)
// and the payment provider's redirect targets (public, addressed by the
// unguessable payment id).
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/reservation",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("USER", "MANAGER"),
	)
	g.POST("/payment/online", h.CreateOnline)
	g.POST("/payment/store", h.CreateStore)
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	e.GET("/payment/success/:paymentId", h.PaymentSuccess)
	e.GET("/payment/cancel/:paymentId", h.PaymentCancel)
}
