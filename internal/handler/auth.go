package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/middleware"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/service"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// AuthHandler bundles dependencies for the /v1/auth endpoints.
type AuthHandler struct {
	Sessions *service.SessionManager
	Users    *service.UserService
}

func NewAuthHandler(s *service.SessionManager, u *service.UserService) *AuthHandler {
	return &AuthHandler{Sessions: s, Users: u}
}

// Register creates an account. It does not sign the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Region:   req.Region,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Registered", u)
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Sessions.Login(ctx, req.Email, req.Password, clientMeta(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Logged in", res)
}

// Refresh rotates a refresh token. The presented token cannot be used again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		return apperr.TokenExpired("Refresh token is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Sessions.Rotate(ctx, req.RefreshToken, clientMeta(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Token refreshed", pair)
}

// Logout revokes the presented refresh token. It succeeds for unknown or
// already revoked tokens.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	// Body values win over what the connection reports.
	meta := clientMeta(c)
	if req.UserAgent != "" {
		meta.UserAgent = utils.TruncateUserAgent(req.UserAgent)
	}
	if ip, ok := utils.NormalizeIP(req.IP); ok {
		meta.IP = ip
	}
	res, err := h.Sessions.Revoke(ctx, req.RefreshToken, meta)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Logged out", res)
}

// LogoutAll revokes every live session of the caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Sessions.RevokeAll(ctx, id.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Logged out from all devices", res)
}

// clientMeta reads the user agent and caller IP stored with a session.
func clientMeta(c echo.Context) service.ClientMeta {
	meta := service.ClientMeta{UserAgent: utils.TruncateUserAgent(c.Request().UserAgent())}
	if ip, ok := utils.NormalizeIP(c.RealIP()); ok {
		meta.IP = ip
	}
	return meta
}

func identity(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, apperr.Unauthorized("Authentication required")
	}
	return id, nil
}
