package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bookstore-api/internal/metrics"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
)

// ActivityRecorder receives audit events after the originating write has
// committed. Implementations must not fail the caller: errors are logged and
// dropped.
type ActivityRecorder interface {
	Record(ctx context.Context, userID, action string, metadata map[string]any)
}

// DBActivityRecorder writes activity rows directly.
type DBActivityRecorder struct {
	Repo *repository.ActivityRepo
	Log  *slog.Logger
}

func NewDBActivityRecorder(repo *repository.ActivityRepo, log *slog.Logger) *DBActivityRecorder {
	return &DBActivityRecorder{Repo: repo, Log: log}
}

func (r *DBActivityRecorder) Record(ctx context.Context, userID, action string, metadata map[string]any) {
	entry := NewActivityLog(userID, action, metadata, time.Now().UTC())
	// The request may already be finishing; the audit row must still land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := r.Repo.Create(ctx, entry)
	metrics.ActivityEventsTotal.WithLabelValues("db", metrics.Result(err)).Inc()
	if err != nil {
		logger(r.Log).Warn("activity record failed", "action", action, "user_id", userID, "error", err)
	}
}

// NewActivityLog builds the row persisted for an activity event.
func NewActivityLog(userID, action string, metadata map[string]any, at time.Time) *model.ActivityLog {
	entry := &model.ActivityLog{
		ID:        uuid.NewString(),
		Action:    action,
		Metadata:  model.Metadata(metadata),
		CreatedAt: at,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	return entry
}

// NopActivityRecorder discards events.
type NopActivityRecorder struct{}

func (NopActivityRecorder) Record(context.Context, string, string, map[string]any) {}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
