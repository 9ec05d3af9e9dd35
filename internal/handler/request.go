package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// ----- request bodies -----

type registerReq struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,max=72"`
	Name     string  `json:"name" validate:"required,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Region   *string `json:"region" validate:"omitempty,max=100"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// refreshReq is untagged; Refresh reports a missing token as TOKEN_EXPIRED.
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	UserAgent    string `json:"userAgent"`
	IP           string `json:"ip"`
}

type profileReq struct {
	Name   *string `json:"name" validate:"omitempty,max=255"`
	Phone  *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Region *string `json:"region" validate:"omitempty,max=100"`
}

type roleReq struct {
	Role model.Role `json:"role" validate:"required"`
}

type userStatusReq struct {
	Status model.UserStatus `json:"status" validate:"required"`
}

type orderItemReq struct {
	BookID   string `json:"bookId" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// createOrderReq carries amounts as decimals; both "4.50" and 4.50 decode
// exactly. Missing amounts are zero.
type createOrderReq struct {
	Items         []orderItemReq   `json:"items" validate:"required,min=1,dive"`
	ShippingFee   *decimal.Decimal `json:"shippingFee"`
	DiscountTotal *decimal.Decimal `json:"discountTotal"`
	CustomerName  *string          `json:"customerName" validate:"omitempty,max=255"`
	CustomerEmail *string          `json:"customerEmail" validate:"omitempty,email,max=254"`
}

type orderStatusReq struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

// bind decodes the request body and runs the echo Validator over it.
// Malformed JSON, wrong types, unknown enum values and failed tags are all
// VALIDATION_FAILED.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		e := apperr.Validation("Invalid request body").Wrap(err)
		if he, ok := err.(*echo.HTTPError); ok && he.Internal != nil {
			e = e.WithDetails(map[string]string{"error": he.Internal.Error()})
		}
		return e
	}
	return c.Validate(dst)
}

// ----- query parameters -----

func pageOf(c echo.Context) utils.Page {
	return utils.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
}

// dateParam accepts RFC 3339 or YYYY-MM-DD. A date-only upper bound covers
// the whole day.
func dateParam(c echo.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Validation(name + " must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(name + " must be a non-negative integer")
	}
	return n, nil
}
