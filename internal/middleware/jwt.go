package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// TokenVerifier checks a raw token of the given type. The session manager
// satisfies it.
type TokenVerifier interface {
	Verify(raw string, typ utils.TokenType) (*utils.Claims, error)
}

// Authenticate returns an Echo middleware that requires a Bearer access
// token on every request. A missing or malformed Authorization header and
// any verification failure are rejected with UNAUTHORIZED; on success the
// decoded identity is attached to the context via SetIdentity.
func Authenticate(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.Unauthorized("Missing or malformed bearer token")
			}
			claims, err := v.Verify(raw, utils.TokenAccess)
			if err != nil {
				return err
			}
			role, err := model.ParseRole(claims.Role)
			if err != nil || claims.Subject == "" {
				return apperr.Unauthorized("Invalid or expired access token")
			}
			SetIdentity(c, model.Identity{UserID: claims.Subject, Email: claims.Email, Role: role})
			return next(c)
		}
	}
}

// bearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
