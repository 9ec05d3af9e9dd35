package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/service"
)

// StatsHandler serves the /v1/stats dashboards.
type StatsHandler struct {
	Stats *service.StatsService
}

func NewStatsHandler(s *service.StatsService) *StatsHandler {
	return &StatsHandler{Stats: s}
}

func (h *StatsHandler) Overview(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ov, err := h.Stats.Overview(ctx)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", ov)
}

// TopBooks accepts ?limit (default 5, max 50).
func (h *StatsHandler) TopBooks(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Stats.TopBooks(ctx, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", rows)
}

// DailySales accepts ?days (default 14, max 90).
func (h *StatsHandler) DailySales(c echo.Context) error {
	days, err := intParam(c, "days")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	series, err := h.Stats.DailySales(ctx, days)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", series)
}
