package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

type OrderRepo struct{ DB *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{DB: db} }

// CreateTx inserts an order and its items inside tx.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return translate(tx.WithContext(ctx).Create(o).Error)
}

// GetByID loads an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", id).Take(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// ListItems returns the items of one order.
func (r *OrderRepo) ListItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&items).Error
	return items, translate(err)
}

// CancelIfPending moves an order to CANCELLED only while it is PENDING.
// It reports false when the status had already moved on.
func (r *OrderRepo) CancelIfPending(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderPending).
		Updates(map[string]any{"status": model.OrderCancelled, "cancelled_at": at})
	return res.RowsAffected == 1, translate(res.Error)
}

// UpdateStatus overwrites the status of an order. Moving to CANCELLED also
// stamps cancelled_at when it is not already set.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if status == model.OrderCancelled {
			return translate(tx.Model(&model.Order{}).
				Where("id = ? AND cancelled_at IS NULL", id).
				Update("cancelled_at", at).Error)
		}
		return nil
	})
}

// OrderFilter narrows List. Zero values do not filter.
type OrderFilter struct {
	UserID   string
	Status   model.OrderStatus
	Keyword  string
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderSortColumns maps API sort fields to columns.
var OrderSortColumns = map[string]string{
	"createdAt":   "created_at",
	"totalAmount": "total_amount",
	"status":      "status",
}

// List returns one page of orders without items.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter, p utils.Page, s utils.Sort) ([]model.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Order{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		q = q.Where("LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?", like, like)
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		q = q.Where("created_at <= ?", f.DateTo.UTC())
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var orders []model.Order
	err := q.Order(s.Clause()).Order("id ASC").Offset(p.Offset()).Limit(p.Size).Find(&orders).Error
	return orders, total, translate(err)
}
