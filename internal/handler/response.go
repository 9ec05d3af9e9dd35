package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// requestTimeout bounds the database work done by a single handler.
const requestTimeout = 5 * time.Second

// successEnvelope wraps every successful response body.
type successEnvelope struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	Payload   any    `json:"payload"`
}

func respond(c echo.Context, status int, message string, payload any) error {
	return c.JSON(status, successEnvelope{IsSuccess: true, Message: message, Payload: payload})
}

// reqCtx derives the context handed to services. A client that goes away
// does not abort work already started; only requestTimeout bounds it.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request().Context()), requestTimeout)
}
