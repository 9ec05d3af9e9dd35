package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u. A taken email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).Take(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// TouchLastLogin records a successful sign-in.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, r.DB, id, map[string]any{"last_login_at": at})
}

// UpdateFields applies a column -> value patch.
func (r *UserRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.update(ctx, r.DB, id, fields)
}

// UpdateStatusTx changes the account status inside tx.
func (r *UserRepo) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id string, status model.UserStatus) error {
	return r.update(ctx, tx, id, map[string]any{"status": status})
}

func (r *UserRepo) update(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserFilter narrows List. Zero values do not filter.
type UserFilter struct {
	Keyword string
	Role    model.Role
	Status  model.UserStatus
}

// List returns one page of users, newest first, plus the total match count.
func (r *UserRepo) List(ctx context.Context, f UserFilter, p utils.Page) ([]model.User, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.User{})
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var users []model.User
	err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Size).Find(&users).Error
	return users, total, translate(err)
}
