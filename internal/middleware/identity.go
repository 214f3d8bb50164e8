package middleware

// identity.go holds helpers shared across middleware files.

import "github.com/labstack/echo/v4"

// currentUserID returns the authenticated person's id as set by JWTAuth,
// or "anon" when the request is unauthenticated.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
