package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness for load balancers and monitoring.
type HealthHandler struct {
	Version string
	Started time.Time
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{Version: version, Started: time.Now()}
}

type healthResp struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// Health always answers 200 while the process is serving.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResp{
		Status:        "ok",
		Version:       h.Version,
		UptimeSeconds: int64(time.Since(h.Started).Seconds()),
	})
}
