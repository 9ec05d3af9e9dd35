package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/testutil"
)

func TestStats(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	testutil.CreateBook(t, db, "b2", "10", 10)
	orders := newOrderService(t, db, nil)
	stats := NewStatsService(repository.NewStatsRepo(db))
	ctx := context.Background()

	_, err := orders.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = orders.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b2", Quantity: 4}}})
	require.NoError(t, err)
	cancelled, err := orders.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 5}}})
	require.NoError(t, err)
	_, err = orders.Cancel(ctx, cancelled.ID, "u1")
	require.NoError(t, err)

	ov, err := stats.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ov.TotalUsers)
	assert.EqualValues(t, 2, ov.TotalBooks)
	assert.EqualValues(t, 3, ov.TotalOrders)
	assert.True(t, decimal.NewFromInt(60).Equal(ov.TotalRevenue), ov.TotalRevenue.String())
	assert.True(t, decimal.NewFromInt(30).Equal(ov.AverageOrderValue), ov.AverageOrderValue.String())

	top, err := stats.TopBooks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b2", top[0].BookID)
	assert.EqualValues(t, 4, top[0].Quantity)
	assert.EqualValues(t, 1, top[1].Quantity, "cancelled orders are not counted")

	series, err := stats.DailySales(ctx, 3)
	require.NoError(t, err)
	require.Len(t, series, 3)
	last := series[len(series)-1]
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), last.Date)
	assert.EqualValues(t, 2, last.OrderCount)
	assert.True(t, decimal.NewFromInt(60).Equal(last.Revenue))
	assert.Zero(t, series[0].OrderCount)
}

func TestStatsEmpty(t *testing.T) {
	stats := NewStatsService(repository.NewStatsRepo(testutil.NewDB(t)))

	ov, err := stats.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, ov.TotalRevenue.IsZero())
	assert.True(t, ov.AverageOrderValue.IsZero())

	top, err := stats.TopBooks(context.Background(), 500)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)

	series, err := stats.DailySales(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, series, DefaultSalesDays)
}
