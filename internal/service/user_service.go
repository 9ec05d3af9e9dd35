package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Region   *string
}

// ProfilePatch lists the self-editable fields. Nil fields are left alone.
type ProfilePatch struct {
	Name   *string
	Phone  *string
	Region *string
}

// UserService manages accounts: registration, profile edits and the admin
// role/status controls.
type UserService struct {
	db         *gorm.DB
	users      *repository.UserRepo
	tokens     *repository.TokenRepo
	activity   ActivityRecorder
	bcryptCost int
	log        *slog.Logger
}

func NewUserService(db *gorm.DB, users *repository.UserRepo, tokens *repository.TokenRepo, activity ActivityRecorder, bcryptCost int, log *slog.Logger) *UserService {
	if activity == nil {
		activity = NopActivityRecorder{}
	}
	return &UserService{db: db, users: users, tokens: tokens, activity: activity, bcryptCost: bcryptCost, log: logger(log)}
}

// Register creates an ACTIVE USER account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := repository.NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if msg := utils.PasswordProblem(in.Password); msg != "" {
		return nil, apperr.Validation(msg)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        in.Phone,
		Region:       in.Region,
		Role:         model.RoleUser,
		Status:       model.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Duplicate("Email already registered")
		}
		return nil, apperr.Database(err)
	}
	s.activity.Record(ctx, u.ID, model.ActionUserRegistered, nil)
	return u, nil
}

// Get fetches one account.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.UserNotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return u, nil
}

// UpdateProfile applies a self-service patch.
func (s *UserService) UpdateProfile(ctx context.Context, id string, p ProfilePatch) (*model.User, error) {
	fields := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be blank")
		}
		fields["name"] = name
	}
	if p.Phone != nil {
		fields["phone"] = *p.Phone
	}
	if p.Region != nil {
		fields["region"] = *p.Region
	}
	if err := s.users.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.UserNotFound("User not found")
		}
		return nil, apperr.Database(err)
	}
	if len(fields) > 0 {
		s.activity.Record(ctx, id, model.ActionProfileUpdated, nil)
	}
	return s.Get(ctx, id)
}

// List returns a filtered page of accounts.
func (s *UserService) List(ctx context.Context, f repository.UserFilter, p utils.Page) (utils.Paged[model.User], error) {
	users, total, err := s.users.List(ctx, f, p)
	if err != nil {
		return utils.Paged[model.User]{}, apperr.Database(err)
	}
	return utils.NewPaged(users, p, total, "createdAt,desc"), nil
}

// ChangeRole sets the role of an account. Existing access tokens keep the
// old role until they expire; rotated tokens carry the new one.
func (s *UserService) ChangeRole(ctx context.Context, id string, role model.Role, actorID string) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	if err := s.users.UpdateFields(ctx, id, map[string]any{"role": role}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.UserNotFound("User not found")
		}
		return nil, apperr.Database(err)
	}
	s.activity.Record(ctx, actorID, model.ActionUserRoleChanged, map[string]any{"userId": id, "role": string(role)})
	return s.Get(ctx, id)
}

// ChangeStatus sets the status of an account. Leaving ACTIVE revokes every
// live session in the same transaction, so the account cannot rotate back in.
func (s *UserService) ChangeStatus(ctx context.Context, id string, status model.UserStatus, actorID string) (*model.User, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.UpdateStatusTx(ctx, tx, id, status); err != nil {
			return err
		}
		if status == model.StatusActive {
			return nil
		}
		_, err := s.tokens.RevokeAllForUserTx(ctx, tx, id, time.Now().UTC())
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.UserNotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	s.activity.Record(ctx, actorID, model.ActionUserStatusChanged, map[string]any{"userId": id, "status": string(status)})
	return s.Get(ctx, id)
}
