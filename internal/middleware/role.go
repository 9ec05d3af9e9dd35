package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
)

// RequireRoles returns a middleware that admits only callers whose role is
// in roles. It must run after Authenticate: a request without an identity
// is UNAUTHORIZED, a request with any other role is FORBIDDEN.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return apperr.Unauthorized("Authentication required")
			}
			if !id.HasRole(roles...) {
				return apperr.Forbidden("Insufficient role")
			}
			return next(c)
		}
	}
}
