package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/service"
)

// OrderHandler serves the /v1/orders endpoints.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(o *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: o}
}

type createdOrder struct {
	OrderID   string    `json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create places an order for the caller.
func (h *OrderHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req createOrderReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.PlaceInput{
		ShippingFee:   amount(req.ShippingFee),
		DiscountTotal: amount(req.DiscountTotal),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.PlaceItem{BookID: it.BookID, Quantity: it.Quantity})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.Place(ctx, id.UserID, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Order placed", createdOrder{OrderID: o.ID, CreatedAt: o.CreatedAt})
}

// Cancel cancels one of the caller's pending orders.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.Cancel(ctx, c.Param("id"), id.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order cancelled", o)
}

// UpdateStatus overwrites the status of an order.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req orderStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, c.Param("id"), req.Status, actor.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order status updated", o)
}

// List pages through all orders. Filters: status, userId, keyword,
// dateFrom, dateTo; sort=field,dir.
func (h *OrderHandler) List(c echo.Context) error {
	f := repository.OrderFilter{
		UserID:  c.QueryParam("userId"),
		Keyword: c.QueryParam("keyword"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseOrderStatus(raw)
		if err != nil {
			return apperr.Validation(err.Error())
		}
		f.Status = st
	}
	var err error
	if f.DateFrom, err = dateParam(c, "dateFrom", false); err != nil {
		return err
	}
	if f.DateTo, err = dateParam(c, "dateTo", true); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Orders.List(ctx, f, pageOf(c), c.QueryParam("sort"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", page)
}

// Mine pages through the caller's orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Orders.ListForUser(ctx, id.UserID, pageOf(c), c.QueryParam("sort"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", page)
}

// Get returns an order with its items to its owner or to staff.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.Get(ctx, c.Param("id"), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", o)
}

// Items returns the lines of an order under the same visibility rule as Get.
func (h *OrderHandler) Items(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Orders.Items(ctx, c.Param("id"), id)
	if err != nil {
		return err
	}
	if items == nil {
		items = []model.OrderItem{}
	}
	return respond(c, http.StatusOK, "OK", items)
}

func amount(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
