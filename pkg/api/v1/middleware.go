package apiv1

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// NewTokenAuthMiddleware requires "Authorization: Bearer <token>". An empty
// token disables the check.
func NewTokenAuthMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			given, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || given == "" {
				return ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				return ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			}

			return next(c)
		}
	}
}
