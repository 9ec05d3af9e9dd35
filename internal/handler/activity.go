package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// ActivityHandler serves the audit trail. It reads the repository directly;
// there is no business logic between the two.
type ActivityHandler struct {
	Repo *repository.ActivityRepo
}

func NewActivityHandler(r *repository.ActivityRepo) *ActivityHandler {
	return &ActivityHandler{Repo: r}
}

// List pages through activity rows, newest first. Filters: userId, action.
func (h *ActivityHandler) List(c echo.Context) error {
	f := repository.ActivityFilter{UserID: c.QueryParam("userId"), Action: c.QueryParam("action")}
	p := pageOf(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	logs, total, err := h.Repo.List(ctx, f, p)
	if err != nil {
		return apperr.Database(err)
	}
	return respond(c, http.StatusOK, "OK", utils.NewPaged(logs, p, total, "createdAt,desc"))
}
