package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/apperr"
)

// errorEnvelope is the single shape of every error response.
type errorEnvelope struct {
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
	Status    int         `json:"status"`
	Code      apperr.Code `json:"code"`
	Message   string      `json:"message"`
	Details   any         `json:"details,omitempty"`
}

// ErrorHandler renders any error returned through the echo chain as an
// errorEnvelope. Typed errors keep their status and code; echo's own errors
// are mapped onto the same taxonomy; anything else is a 500. Server-side
// failures are logged with their cause, which is never sent to the client.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := toAppError(err)
		if ae.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"code", ae.Code,
				"error", err,
			)
		}
		body := errorEnvelope{
			Timestamp: time.Now().UTC(),
			Path:      c.Request().URL.Path,
			Status:    ae.Status,
			Code:      ae.Code,
			Message:   ae.Message,
			Details:   ae.Details,
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(ae.Status)
		} else {
			werr = c.JSON(ae.Status, body)
		}
		if werr != nil {
			log.Warn("write error response failed", "error", werr)
		}
	}
}

func toAppError(err error) *apperr.Error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		switch he.Code {
		case http.StatusNotFound:
			return apperr.NotFound("Resource not found")
		case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
			e := apperr.Validation(msg)
			e.Status = he.Code
			return e
		case http.StatusUnauthorized:
			return apperr.Unauthorized(msg)
		case http.StatusForbidden:
			return apperr.Forbidden(msg)
		case http.StatusTooManyRequests:
			return apperr.TooManyRequests(msg)
		case http.StatusMethodNotAllowed:
			return &apperr.Error{Status: he.Code, Code: "METHOD_NOT_ALLOWED", Message: msg}
		}
		if he.Code < http.StatusInternalServerError {
			return &apperr.Error{Status: he.Code, Code: apperr.Code(fmt.Sprintf("HTTP_%d", he.Code)), Message: msg}
		}
	}
	return apperr.Internal(err)
}
