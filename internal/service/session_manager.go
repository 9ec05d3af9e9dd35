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
	"github.com/iliyamo/bookstore-api/internal/metrics"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

// DefaultRefreshExpiry is persisted when a freshly signed refresh token's
// exp claim cannot be decoded.
const DefaultRefreshExpiry = 7 * 24 * time.Hour

// SessionConfig carries the signing material. The two secrets must differ.
type SessionConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// ClientMeta is optional client information stored with a session.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// TokenPair is the result of issuing or rotating credentials.
type TokenPair struct {
	UserID                string    `json:"userId"`
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	TokenType             string    `json:"tokenType"`
	ExpiresIn             int       `json:"expiresIn"`
	IssuedAt              time.Time `json:"issuedAt"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// LoginResult is a token pair plus the signed-in account.
type LoginResult struct {
	TokenPair
	User *model.User `json:"user"`
}

// RevokeResult reports a logout. UserID is empty when the token matched no
// session and could not be decoded.
type RevokeResult struct {
	UserID    string    `json:"userId"`
	RevokedAt time.Time `json:"revokedAt"`
}

// RevokeAllResult reports a sign-out of every device.
type RevokeAllResult struct {
	UserID       string    `json:"userId"`
	RevokedCount int64     `json:"revokedCount"`
	RevokedAt    time.Time `json:"revokedAt"`
}

// SessionManager issues, verifies, rotates and revokes access/refresh
// token pairs. Refresh tokens are persisted (as digests) so they can be
// revoked before they expire.
type SessionManager struct {
	db       *gorm.DB
	users    *repository.UserRepo
	tokens   *repository.TokenRepo
	activity ActivityRecorder
	cfg      SessionConfig
	log      *slog.Logger
	now      func() time.Time
}

func NewSessionManager(db *gorm.DB, users *repository.UserRepo, tokens *repository.TokenRepo, activity ActivityRecorder, cfg SessionConfig, log *slog.Logger) *SessionManager {
	if activity == nil {
		activity = NopActivityRecorder{}
	}
	return &SessionManager{
		db:       db,
		users:    users,
		tokens:   tokens,
		activity: activity,
		cfg:      cfg,
		log:      logger(log),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks credentials and issues a new session. The account status is
// checked before the password is compared.
func (m *SessionManager) Login(ctx context.Context, email, password string, meta ClientMeta) (res *LoginResult, err error) {
	defer func() { metrics.AuthLoginsTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	u, err := m.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	if u.Status != model.StatusActive {
		return nil, apperr.Forbidden("Account disabled")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	pair, err := m.Issue(ctx, identityOf(u), meta)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if err := m.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		m.log.Warn("update last login failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}
	m.activity.Record(ctx, u.ID, model.ActionUserLoggedIn, map[string]any{"ip": meta.IP})
	return &LoginResult{TokenPair: pair, User: u}, nil
}

// Issue signs an access and a refresh token for id and persists a session
// for the refresh token.
func (m *SessionManager) Issue(ctx context.Context, id model.Identity, meta ClientMeta) (pair TokenPair, err error) {
	defer func() { metrics.TokensIssuedTotal.WithLabelValues("issue", metrics.Result(err)).Inc() }()
	return m.issue(ctx, m.db, id, meta)
}

func (m *SessionManager) issue(ctx context.Context, tx *gorm.DB, id model.Identity, meta ClientMeta) (TokenPair, error) {
	now := m.now()
	access, err := utils.SignToken(m.cfg.AccessSecret, utils.TokenAccess, id.UserID, id.Email, string(id.Role), m.cfg.AccessTTL, now)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	refresh, err := utils.SignToken(m.cfg.RefreshSecret, utils.TokenRefresh, id.UserID, id.Email, string(id.Role), m.cfg.RefreshTTL, now)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	expiresAt, ok := utils.ExpiryOf(refresh.Token)
	if !ok {
		expiresAt = now.Add(DefaultRefreshExpiry)
	}
	s := &model.Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		TokenHash: utils.HashRefreshRaw(refresh.Token),
		UserAgent: optional(utils.TruncateUserAgent(meta.UserAgent)),
		IP:        optional(meta.IP),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	if err := m.tokens.CreateTx(ctx, tx, s); err != nil {
		return TokenPair{}, apperr.Database(err)
	}

	return TokenPair{
		UserID:                id.UserID,
		AccessToken:           access.Token,
		RefreshToken:          refresh.Token,
		TokenType:             "Bearer",
		ExpiresIn:             int(m.cfg.AccessTTL / time.Second),
		IssuedAt:              now,
		AccessTokenExpiresAt:  access.ExpiresAt,
		RefreshTokenExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature, expiry and type of raw against the secret for
// typ. Access failures are Unauthorized; refresh failures are TokenExpired.
func (m *SessionManager) Verify(raw string, typ utils.TokenType) (*utils.Claims, error) {
	secret := m.cfg.AccessSecret
	if typ == utils.TokenRefresh {
		secret = m.cfg.RefreshSecret
	}
	claims, err := utils.ParseToken(secret, raw, typ)
	if err == nil {
		return claims, nil
	}
	if typ == utils.TokenRefresh {
		return nil, apperr.TokenExpired("Refresh token is invalid or expired").Wrap(err)
	}
	return nil, apperr.Unauthorized("Invalid or expired access token").Wrap(err)
}

// Rotate exchanges a live refresh token for a new pair. The old session is
// revoked and the new one created in a single transaction; a token that
// verifies cryptographically but is revoked or expired in storage is
// rejected with TokenExpired.
func (m *SessionManager) Rotate(ctx context.Context, raw string, meta ClientMeta) (pair TokenPair, err error) {
	defer func() { metrics.TokensIssuedTotal.WithLabelValues("rotate", metrics.Result(err)).Inc() }()

	raw = strings.TrimSpace(raw)
	if _, err := m.Verify(raw, utils.TokenRefresh); err != nil {
		return TokenPair{}, err
	}

	now := m.now()
	stored, err := m.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw), now)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, apperr.TokenExpired("Refresh token is invalid or expired")
	}
	if err != nil {
		return TokenPair{}, apperr.Database(err)
	}

	u, err := m.users.GetByID(ctx, stored.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, apperr.TokenExpired("Refresh token is invalid or expired")
	}
	if err != nil {
		return TokenPair{}, apperr.Database(err)
	}
	if u.Status != model.StatusActive {
		return TokenPair{}, apperr.Forbidden("Account disabled")
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revoked, err := m.tokens.RevokeTx(ctx, tx, stored.ID, now)
		if err != nil {
			return apperr.Database(err)
		}
		if !revoked {
			// Lost a race with another rotation or a logout.
			return apperr.TokenExpired("Refresh token is invalid or expired")
		}
		pair, err = m.issue(ctx, tx, identityOf(u), meta)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	m.activity.Record(ctx, u.ID, model.ActionTokenRotated, map[string]any{"sessionId": stored.ID})
	return pair, nil
}

// Revoke is the logout path. Verification failures are ignored; whatever
// session matches the token is marked revoked. Calling it repeatedly with
// the same token succeeds every time. meta describes the client logging out
// and only ends up in the activity record.
func (m *SessionManager) Revoke(ctx context.Context, raw string, meta ClientMeta) (RevokeResult, error) {
	raw = strings.TrimSpace(raw)
	now := m.now()
	res := RevokeResult{RevokedAt: now}

	if claims, err := m.Verify(raw, utils.TokenRefresh); err == nil {
		res.UserID = claims.Subject
	}

	hash := utils.HashRefreshRaw(raw)
	stored, err := m.tokens.FindByHash(ctx, hash)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return res, nil
	case err != nil:
		return RevokeResult{}, apperr.Database(err)
	}
	res.UserID = stored.UserID
	if err := m.tokens.RevokeByHash(ctx, hash, now); err != nil {
		return RevokeResult{}, apperr.Database(err)
	}
	if !stored.Revoked {
		metrics.SessionsRevokedTotal.Inc()
		m.activity.Record(ctx, stored.UserID, model.ActionUserLoggedOut, map[string]any{
			"sessionId": stored.ID,
			"ip":        meta.IP,
			"userAgent": meta.UserAgent,
		})
	}
	return res, nil
}

// RevokeAll revokes every live session of userID.
func (m *SessionManager) RevokeAll(ctx context.Context, userID string) (RevokeAllResult, error) {
	now := m.now()
	n, err := m.tokens.RevokeAllForUser(ctx, userID, now)
	if err != nil {
		return RevokeAllResult{}, apperr.Database(err)
	}
	metrics.SessionsRevokedTotal.Add(float64(n))
	m.activity.Record(ctx, userID, model.ActionSessionsRevoked, map[string]any{"count": n})
	return RevokeAllResult{UserID: userID, RevokedCount: n, RevokedAt: now}, nil
}

func identityOf(u *model.User) model.Identity {
	return model.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
