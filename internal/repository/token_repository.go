package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/model"
)

// TokenRepo persists refresh sessions keyed by the SHA-256 token digest.
type TokenRepo struct{ DB *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a session row.
func (r *TokenRepo) Create(ctx context.Context, s *model.Session) error {
	return r.CreateTx(ctx, r.DB, s)
}

// CreateTx inserts a session row inside tx.
func (r *TokenRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.Session) error {
	return translate(tx.WithContext(ctx).Create(s).Error)
}

// FindByHash returns the session for a digest regardless of its state.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var s model.Session
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Take(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ValidateRefresh returns the session only if it is not revoked and not
// expired at now; otherwise ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (*model.Session, error) {
	var s model.Session
	err := r.DB.WithContext(ctx).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Take(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	if !s.Usable(now) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// RevokeTx marks one live session revoked inside tx. It reports false when
// the row was already revoked, so only one of two racing rotations wins.
func (r *TokenRepo) RevokeTx(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND revoked = ?", id, false).
		Updates(map[string]any{"revoked": true, "revoked_at": at})
	return res.RowsAffected == 1, translate(res.Error)
}

// RevokeByHash marks a session revoked. Already revoked rows keep their
// original revoked_at.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string, at time.Time) error {
	return translate(r.DB.WithContext(ctx).Model(&model.Session{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Updates(map[string]any{"revoked": true, "revoked_at": at}).Error)
}

// RevokeAllForUser revokes every live session of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.RevokeAllForUserTx(ctx, r.DB, userID, at)
}

// RevokeAllForUserTx is RevokeAllForUser inside tx.
func (r *TokenRepo) RevokeAllForUserTx(ctx context.Context, tx *gorm.DB, userID string, at time.Time) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": at})
	return res.RowsAffected, translate(res.Error)
}

// CountActive returns the live sessions of a user at now.
func (r *TokenRepo) CountActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Count(&n).Error
	return n, translate(err)
}
