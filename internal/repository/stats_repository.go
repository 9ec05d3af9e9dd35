package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/model"
)

// StatsRepo runs the read-only aggregates behind the admin dashboard.
type StatsRepo struct{ DB *gorm.DB }

func NewStatsRepo(db *gorm.DB) *StatsRepo { return &StatsRepo{DB: db} }

// CountUsers counts non-deleted users.
func (r *StatsRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, translate(err)
}

// CountBooks counts non-deleted books.
func (r *StatsRepo) CountBooks(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Book{}).Count(&n).Error
	return n, translate(err)
}

// CountOrders counts every order regardless of status.
func (r *StatsRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Order{}).Count(&n).Error
	return n, translate(err)
}

// Revenue sums total_amount over orders that count towards revenue and
// returns how many such orders there are.
func (r *StatsRepo) Revenue(ctx context.Context) (decimal.Decimal, int64, error) {
	var (
		sum   decimal.NullDecimal
		count int64
	)
	row := r.DB.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total_amount), COUNT(*)").
		Where("status NOT IN ?", model.UncountedOrderStatuses()).
		Row()
	if err := row.Scan(&sum, &count); err != nil {
		return decimal.Zero, 0, translate(err)
	}
	if !sum.Valid {
		return decimal.Zero, count, nil
	}
	return sum.Decimal, count, nil
}

// TopBook is one row of the best-seller ranking.
type TopBook struct {
	BookID   string          `json:"bookId"`
	Title    string          `json:"title"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// TopBooks ranks books by quantity sold in counted orders.
func (r *StatsRepo) TopBooks(ctx context.Context, limit int) ([]TopBook, error) {
	var rows []TopBook
	err := r.DB.WithContext(ctx).Table("order_items").
		Select("order_items.book_id AS book_id, MAX(order_items.title) AS title, SUM(order_items.quantity) AS quantity, SUM(order_items.subtotal) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status NOT IN ?", model.UncountedOrderStatuses()).
		Group("order_items.book_id").
		Order("quantity DESC").
		Order("book_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, translate(err)
}

// SaleRow is the minimal projection used for daily aggregation.
type SaleRow struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

// SalesSince returns counted orders created at or after since. Grouping by
// day happens in Go so the query stays portable across dialects.
func (r *StatsRepo) SalesSince(ctx context.Context, since time.Time) ([]SaleRow, error) {
	var rows []SaleRow
	err := r.DB.WithContext(ctx).Model(&model.Order{}).
		Select("created_at", "total_amount").
		Where("created_at >= ? AND status NOT IN ?", since.UTC(), model.UncountedOrderStatuses()).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, translate(err)
}
