package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is created once, together with its items and the matching stock
// decrements. TotalAmount = ItemTotal - DiscountTotal + ShippingFee and is
// never recomputed after creation.
type Order struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string          `gorm:"type:varchar(36);not null;index" json:"userId"`
	Status        OrderStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	ItemTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"itemTotal"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discountTotal"`
	ShippingFee   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shippingFee"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	CustomerName  string          `gorm:"type:varchar(100);not null" json:"customerName"`
	CustomerEmail string          `gorm:"type:varchar(255);not null" json:"customerEmail"`
	CancelledAt   *time.Time      `json:"cancelledAt"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items,omitempty"`
}

// OrderItem snapshots the title and unit price of a book at order time.
type OrderItem struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"orderId"`
	BookID    string          `gorm:"type:varchar(36);not null;index" json:"bookId"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
}
