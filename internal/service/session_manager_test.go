package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/testutil"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

func TestLoginIssuesTokens(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	rec := &recorder{}
	m := newSessionManager(t, db, rec)

	res, err := m.Login(context.Background(), "  User@Example.com ", "Password1!", ClientMeta{UserAgent: "go-test", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, 900, res.ExpiresIn)
	assert.Equal(t, "u1", res.User.ID)
	require.NotNil(t, res.User.LastLoginAt)

	claims, err := m.Verify(res.AccessToken, utils.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "USER", claims.Role)

	var s model.Session
	require.NoError(t, db.First(&s, "token_hash = ?", utils.HashRefreshRaw(res.RefreshToken)).Error)
	assert.False(t, s.Revoked)
	require.NotNil(t, s.UserAgent)
	assert.Equal(t, "go-test", *s.UserAgent)
	assert.WithinDuration(t, res.RefreshTokenExpiresAt, s.ExpiresAt, time.Second)

	assert.Equal(t, []string{model.ActionUserLoggedIn}, rec.actions())
}

func TestLoginFailures(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateUser(t, db, "u2", "off@example.com", "Password1!", model.RoleUser, model.StatusInactive)
	m := newSessionManager(t, db, nil)
	ctx := context.Background()

	_, err := m.Login(ctx, "user@example.com", "wrong-password", ClientMeta{})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	_, err = m.Login(ctx, "nobody@example.com", "Password1!", ClientMeta{})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	// status is checked before the password
	_, err = m.Login(ctx, "off@example.com", "wrong-password", ClientMeta{})
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	assert.Zero(t, testutil.Count(t, db, &model.Session{}))
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	m := newSessionManager(t, db, nil)

	pair, err := m.Issue(context.Background(), model.Identity{UserID: "u1", Email: "user@example.com", Role: model.RoleUser}, ClientMeta{})
	require.NoError(t, err)

	_, err = m.Verify(pair.RefreshToken, utils.TokenAccess)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	_, err = m.Verify(pair.AccessToken, utils.TokenRefresh)
	assert.Equal(t, apperr.CodeTokenExpired, apperr.CodeOf(err))
	_, err = m.Verify("garbage", utils.TokenAccess)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestRotateIsSingleUse(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	rec := &recorder{}
	m := newSessionManager(t, db, rec)
	ctx := context.Background()

	login, err := m.Login(ctx, "user@example.com", "Password1!", ClientMeta{})
	require.NoError(t, err)

	next, err := m.Rotate(ctx, login.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, next.RefreshToken)

	_, err = m.Rotate(ctx, login.RefreshToken, ClientMeta{})
	assert.Equal(t, apperr.CodeTokenExpired, apperr.CodeOf(err))

	_, err = m.Rotate(ctx, next.RefreshToken, ClientMeta{})
	require.NoError(t, err)

	assert.Contains(t, rec.actions(), model.ActionTokenRotated)
	active, err := repository.NewTokenRepo(db).CountActive(ctx, "u1", time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)
}

func TestRotateRejectsExpiredSession(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	m := newSessionManager(t, db, nil)
	ctx := context.Background()

	pair, err := m.Issue(ctx, model.Identity{UserID: "u1", Email: "user@example.com", Role: model.RoleUser}, ClientMeta{})
	require.NoError(t, err)
	// The JWT is still valid; only the stored row has lapsed.
	require.NoError(t, db.Model(&model.Session{}).
		Where("token_hash = ?", utils.HashRefreshRaw(pair.RefreshToken)).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = m.Rotate(ctx, pair.RefreshToken, ClientMeta{})
	assert.Equal(t, apperr.CodeTokenExpired, apperr.CodeOf(err))
}

func TestRotateRejectsDisabledAccount(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	m := newSessionManager(t, db, nil)
	ctx := context.Background()

	login, err := m.Login(ctx, "user@example.com", "Password1!", ClientMeta{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", "u1").Update("status", model.StatusSuspended).Error)

	_, err = m.Rotate(ctx, login.RefreshToken, ClientMeta{})
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestRevokeIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	rec := &recorder{}
	m := newSessionManager(t, db, rec)
	ctx := context.Background()

	login, err := m.Login(ctx, "user@example.com", "Password1!", ClientMeta{})
	require.NoError(t, err)

	first, err := m.Revoke(ctx, login.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "u1", first.UserID)

	second, err := m.Revoke(ctx, login.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "u1", second.UserID)

	_, err = m.Revoke(ctx, "not-a-token", ClientMeta{})
	require.NoError(t, err)

	_, err = m.Rotate(ctx, login.RefreshToken, ClientMeta{})
	assert.Equal(t, apperr.CodeTokenExpired, apperr.CodeOf(err))

	logouts := 0
	for _, a := range rec.actions() {
		if a == model.ActionUserLoggedOut {
			logouts++
		}
	}
	assert.Equal(t, 1, logouts)
}

func TestRevokeAll(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateUser(t, db, "u2", "other@example.com", "Password1!", model.RoleUser, model.StatusActive)
	m := newSessionManager(t, db, nil)
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		res, err := m.Login(ctx, "user@example.com", "Password1!", ClientMeta{})
		require.NoError(t, err)
		tokens = append(tokens, res.RefreshToken)
	}
	other, err := m.Login(ctx, "other@example.com", "Password1!", ClientMeta{})
	require.NoError(t, err)

	res, err := m.RevokeAll(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RevokedCount)

	for _, tok := range tokens {
		_, err := m.Rotate(ctx, tok, ClientMeta{})
		assert.Equal(t, apperr.CodeTokenExpired, apperr.CodeOf(err))
	}
	_, err = m.Rotate(ctx, other.RefreshToken, ClientMeta{})
	assert.NoError(t, err)
}
