package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/metrics"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// moneyPlaces is the scale of every money column.
const moneyPlaces = 2

// PlaceItem is one requested line of an order.
type PlaceItem struct {
	BookID   string
	Quantity int
}

// PlaceInput is a validated order request. CustomerName and CustomerEmail
// override the placing user's profile when set.
type PlaceInput struct {
	Items         []PlaceItem
	ShippingFee   decimal.Decimal
	DiscountTotal decimal.Decimal
	CustomerName  *string
	CustomerEmail *string
}

// OrderService implements order placement, cancellation, status changes
// and order queries.
type OrderService struct {
	db       *gorm.DB
	orders   *repository.OrderRepo
	books    *repository.BookRepo
	users    *repository.UserRepo
	activity ActivityRecorder
	log      *slog.Logger
	now      func() time.Time
}

func NewOrderService(db *gorm.DB, orders *repository.OrderRepo, books *repository.BookRepo, users *repository.UserRepo, activity ActivityRecorder, log *slog.Logger) *OrderService {
	if activity == nil {
		activity = NopActivityRecorder{}
	}
	return &OrderService{
		db:       db,
		orders:   orders,
		books:    books,
		users:    users,
		activity: activity,
		log:      logger(log),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Place creates an order for userID. It is all-or-nothing: a missing book,
// or any line asking for more than the available stock, fails the whole
// request and leaves every row untouched. Stock is decremented with a
// guarded update inside the same transaction that inserts the order, so two
// concurrent placements can never both consume the last units.
func (s *OrderService) Place(ctx context.Context, userID string, in PlaceInput) (order *model.Order, err error) {
	defer func() { metrics.OrdersPlacedTotal.WithLabelValues(placeResult(err)).Inc() }()

	items, err := normalizeItems(in)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.BookID
	}
	found, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Database(err)
	}
	books := make(map[string]model.Book, len(found))
	for _, b := range found {
		books[b.ID] = b
	}
	for _, id := range ids {
		if _, ok := books[id]; !ok {
			return nil, apperr.NotFound("Book not found").WithDetails(map[string]string{"bookId": id})
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.UserNotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}

	now := s.now()
	order = &model.Order{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		Status:        model.OrderPending,
		DiscountTotal: in.DiscountTotal,
		ShippingFee:   in.ShippingFee,
		CustomerName:  u.Name,
		CustomerEmail: u.Email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.CustomerName != nil {
		order.CustomerName = *in.CustomerName
	}
	if in.CustomerEmail != nil {
		order.CustomerEmail = strings.TrimSpace(*in.CustomerEmail)
	}

	itemTotal := decimal.Zero
	for _, it := range items {
		b := books[it.BookID]
		if b.Stock < it.Quantity {
			return nil, insufficientStock(b.ID, it.Quantity, b.Stock)
		}
		subtotal := b.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		itemTotal = itemTotal.Add(subtotal)
		order.Items = append(order.Items, model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			BookID:    b.ID,
			Title:     b.Title,
			Quantity:  it.Quantity,
			UnitPrice: b.Price,
			Subtotal:  subtotal,
			CreatedAt: now,
		})
	}
	order.ItemTotal = itemTotal
	order.TotalAmount = itemTotal.Sub(in.DiscountTotal).Add(in.ShippingFee)
	if order.TotalAmount.IsNegative() {
		return nil, apperr.Validation("discountTotal exceeds order value")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range order.Items {
			ok, err := s.books.DecrementStockTx(ctx, tx, it.BookID, it.Quantity)
			if err != nil {
				return apperr.Database(err)
			}
			if !ok {
				return insufficientStock(it.BookID, it.Quantity, -1)
			}
		}
		if err := s.orders.CreateTx(ctx, tx, order); err != nil {
			return apperr.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, u.ID, model.ActionOrderCreated, map[string]any{
		"orderId": order.ID,
		"total":   order.TotalAmount.String(),
	})
	return order, nil
}

// normalizeItems validates the request and merges repeated book ids,
// keeping first-seen order.
func normalizeItems(in PlaceInput) ([]PlaceItem, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("items must not be empty")
	}
	if in.ShippingFee.IsNegative() || in.DiscountTotal.IsNegative() {
		return nil, apperr.Validation("shippingFee and discountTotal must not be negative")
	}
	if !isMoney(in.ShippingFee) || !isMoney(in.DiscountTotal) {
		return nil, apperr.Validation("shippingFee and discountTotal allow at most 2 decimal places")
	}
	if in.CustomerEmail != nil && strings.TrimSpace(*in.CustomerEmail) == "" {
		return nil, apperr.Validation("customerEmail must not be blank")
	}
	if in.CustomerName != nil && strings.TrimSpace(*in.CustomerName) == "" {
		return nil, apperr.Validation("customerName must not be blank")
	}

	index := make(map[string]int, len(in.Items))
	out := make([]PlaceItem, 0, len(in.Items))
	for _, it := range in.Items {
		id := strings.TrimSpace(it.BookID)
		if id == "" {
			return nil, apperr.Validation("bookId is required")
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1").WithDetails(map[string]string{"bookId": id})
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, PlaceItem{BookID: id, Quantity: it.Quantity})
	}
	return out, nil
}

// isMoney reports whether d fits the money columns without rounding.
func isMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyPlaces))
}

func insufficientStock(bookID string, requested, available int) *apperr.Error {
	details := map[string]any{"bookId": bookID, "requested": requested}
	if available >= 0 {
		details["available"] = available
	}
	return apperr.Conflict("Insufficient stock").WithDetails(details)
}

func placeResult(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeStateConflict:
		return "insufficient_stock"
	case apperr.CodeNotFound:
		return "not_found"
	}
	return metrics.Result(err)
}

// Cancel moves a PENDING order owned by userID to CANCELLED. Stock is not
// returned to inventory.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID string) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.Forbidden("Only the order owner can cancel this order")
	}
	if o.Status != model.OrderPending {
		return nil, apperr.Conflict("Only pending orders can be cancelled").
			WithDetails(map[string]string{"status": string(o.Status)})
	}

	now := s.now()
	ok, err := s.orders.CancelIfPending(ctx, o.ID, now)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if !ok {
		return nil, apperr.Conflict("Only pending orders can be cancelled")
	}
	o.Status = model.OrderCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
	s.activity.Record(ctx, userID, model.ActionOrderCancelled, map[string]any{"orderId": o.ID})
	return o, nil
}

// UpdateStatus overwrites the status of an order. Any valid status may
// follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, actorID string) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid order status")
	}
	err := s.orders.UpdateStatus(ctx, orderID, status, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actorID, model.ActionOrderStatusChanged, map[string]any{
		"orderId": o.ID,
		"status":  string(status),
	})
	return o, nil
}

// Get returns an order visible to viewer: its owner, or staff.
func (s *OrderService) Get(ctx context.Context, orderID string, viewer model.Identity) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(o, viewer) {
		return nil, apperr.Forbidden("You cannot view this order")
	}
	return o, nil
}

// Items returns the lines of an order visible to viewer.
func (s *OrderService) Items(ctx context.Context, orderID string, viewer model.Identity) ([]model.OrderItem, error) {
	o, err := s.Get(ctx, orderID, viewer)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

// List returns a filtered page of orders.
func (s *OrderService) List(ctx context.Context, f repository.OrderFilter, p utils.Page, sortRaw string) (utils.Paged[model.Order], error) {
	sort := utils.ParseSort(sortRaw, repository.OrderSortColumns, "createdAt")
	orders, total, err := s.orders.List(ctx, f, p, sort)
	if err != nil {
		return utils.Paged[model.Order]{}, apperr.Database(err)
	}
	return utils.NewPaged(orders, p, total, sort.Label), nil
}

// ListForUser returns a page of the orders placed by userID.
func (s *OrderService) ListForUser(ctx context.Context, userID string, p utils.Page, sortRaw string) (utils.Paged[model.Order], error) {
	return s.List(ctx, repository.OrderFilter{UserID: userID}, p, sortRaw)
}

func (s *OrderService) load(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return o, nil
}

func canView(o *model.Order, viewer model.Identity) bool {
	return o.UserID == viewer.UserID || viewer.HasRole(model.RoleAdmin, model.RoleCurator)
}
