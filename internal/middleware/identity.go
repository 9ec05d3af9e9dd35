package middleware

// identity.go holds the helpers that move the authenticated caller through
// the Echo context. Authenticate writes it; handlers and the rate limiter read
// it.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/model"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
	roleKey     = "role"
)

// SetIdentity attaches id to the request. The user id and role are also
// stored under their own keys for code that only needs one of them.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
	c.Set(roleKey, string(id.Role))
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	if !ok || id.UserID == "" {
		return model.Identity{}, false
	}
	return id, true
}

// userID returns the authenticated user id, or "anon" for public requests.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.UserID
	}
	return "anon"
}
