// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/config"
	"github.com/iliyamo/bookstore-api/internal/database"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// NewDB opens a private in-memory sqlite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := database.Open(config.DBConfig{Driver: "sqlite", DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an account whose password hashes with the minimum
// bcrypt cost.
func CreateUser(t testing.TB, db *gorm.DB, id, email, password string, role model.Role, status model.UserStatus) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Name:         "Test " + id,
		Role:         role,
		Status:       status,
	}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateBook inserts a book with the given price string and stock.
func CreateBook(t testing.TB, db *gorm.DB, id, price string, stock int) *model.Book {
	t.Helper()
	b := &model.Book{
		ID:    id,
		Title: "Book " + id,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	if err := db.WithContext(context.Background()).Create(b).Error; err != nil {
		t.Fatalf("create book: %v", err)
	}
	return b
}

// BookStock reads the current stock of a book.
func BookStock(t testing.TB, db *gorm.DB, id string) int {
	t.Helper()
	var b model.Book
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		t.Fatalf("load book %s: %v", id, err)
	}
	return b.Stock
}

// Count returns the number of rows of model m.
func Count(t testing.TB, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
