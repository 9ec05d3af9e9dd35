package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book is the inventory row read by order placement. Stock is guarded by a
// check constraint in addition to the conditional decrement.
type Book struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Author    string          `gorm:"type:varchar(255)" json:"author"`
	ISBN      *string         `gorm:"type:varchar(20);uniqueIndex" json:"isbn"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock     int             `gorm:"not null;check:chk_books_stock,stock >= 0" json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
