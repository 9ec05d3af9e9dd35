package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/model"
)

type BookRepo struct{ DB *gorm.DB }

func NewBookRepo(db *gorm.DB) *BookRepo { return &BookRepo{DB: db} }

// Create inserts a book. Used by seeding and tests; catalog management
// lives outside this service.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	return translate(r.DB.WithContext(ctx).Create(b).Error)
}

// GetByID fetches a non-deleted book.
func (r *BookRepo) GetByID(ctx context.Context, id string) (*model.Book, error) {
	var b model.Book
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// FindByIDs loads all non-deleted books among ids in one query. Missing ids
// are simply absent from the result.
func (r *BookRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []model.Book
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error
	return books, translate(err)
}

// DecrementStockTx subtracts qty from a book's stock only while enough
// stock remains. It reports false when the guard rejected the update, which
// is how concurrent placements are kept from overselling.
func (r *BookRepo) DecrementStockTx(ctx context.Context, tx *gorm.DB, id string, qty int) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Book{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
