package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/repository"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
)

type recordedEvent struct {
	UserID   string
	Action   string
	Metadata map[string]any
}

// recorder keeps every activity event in memory.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Record(_ context.Context, userID, action string, metadata map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{UserID: userID, Action: action, Metadata: metadata})
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func newSessionManager(t *testing.T, db *gorm.DB, rec ActivityRecorder) *SessionManager {
	t.Helper()
	return NewSessionManager(db, repository.NewUserRepo(db), repository.NewTokenRepo(db), rec, SessionConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}, nil)
}

func newOrderService(t *testing.T, db *gorm.DB, rec ActivityRecorder) *OrderService {
	t.Helper()
	return NewOrderService(db, repository.NewOrderRepo(db), repository.NewBookRepo(db), repository.NewUserRepo(db), rec, nil)
}
