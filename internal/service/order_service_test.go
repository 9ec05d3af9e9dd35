package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/testutil"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

func TestPlaceOrder(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	rec := &recorder{}
	s := newOrderService(t, db, rec)

	o, err := s.Place(context.Background(), "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, "20", o.TotalAmount.String())
	assert.Equal(t, "20", o.ItemTotal.String())
	assert.Equal(t, "user@example.com", o.CustomerEmail)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Book b1", o.Items[0].Title)

	assert.Equal(t, 9, testutil.BookStock(t, db, "b1"))
	assert.EqualValues(t, 1, testutil.Count(t, db, &model.Order{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &model.OrderItem{}))
	require.Len(t, rec.events, 1)
	assert.Equal(t, model.ActionOrderCreated, rec.events[0].Action)
	assert.Equal(t, o.ID, rec.events[0].Metadata["orderId"])
}

func TestPlaceComputesExactTotals(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "19.99", 10)
	testutil.CreateBook(t, db, "b2", "0.10", 10)
	s := newOrderService(t, db, nil)
	name, email := "Gift Recipient", "gift@example.com"

	o, err := s.Place(context.Background(), "u1", PlaceInput{
		Items: []PlaceItem{
			{BookID: "b1", Quantity: 2},
			{BookID: "b2", Quantity: 1},
			{BookID: "b2", Quantity: 2},
		},
		ShippingFee:   decimal.RequireFromString("4.50"),
		DiscountTotal: decimal.RequireFromString("0.30"),
		CustomerName:  &name,
		CustomerEmail: &email,
	})
	require.NoError(t, err)
	// 2*19.99 + 3*0.10 = 40.28; - 0.30 + 4.50 = 44.48
	assert.True(t, decimal.RequireFromString("40.28").Equal(o.ItemTotal), o.ItemTotal.String())
	assert.True(t, decimal.RequireFromString("44.48").Equal(o.TotalAmount), o.TotalAmount.String())
	require.Len(t, o.Items, 2, "repeated book ids are merged")
	assert.Equal(t, 3, o.Items[1].Quantity)
	assert.Equal(t, "Gift Recipient", o.CustomerName)
	assert.Equal(t, "gift@example.com", o.CustomerEmail)
	assert.Equal(t, 7, testutil.BookStock(t, db, "b2"))
}

func TestPlaceIsAllOrNothing(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	testutil.CreateBook(t, db, "b2", "5", 1)
	s := newOrderService(t, db, nil)

	_, err := s.Place(context.Background(), "u1", PlaceInput{Items: []PlaceItem{
		{BookID: "b1", Quantity: 2},
		{BookID: "b2", Quantity: 2},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeStateConflict, apperr.CodeOf(err))

	assert.Equal(t, 10, testutil.BookStock(t, db, "b1"))
	assert.Equal(t, 1, testutil.BookStock(t, db, "b2"))
	assert.Zero(t, testutil.Count(t, db, &model.Order{}))
	assert.Zero(t, testutil.Count(t, db, &model.OrderItem{}))
}

func TestPlaceValidation(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	s := newOrderService(t, db, nil)
	ctx := context.Background()
	blank := "  "

	cases := []struct {
		name string
		in   PlaceInput
		uid  string
		code apperr.Code
	}{
		{"empty items", PlaceInput{}, "u1", apperr.CodeValidation},
		{"zero quantity", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 0}}}, "u1", apperr.CodeValidation},
		{"blank book id", PlaceInput{Items: []PlaceItem{{BookID: " ", Quantity: 1}}}, "u1", apperr.CodeValidation},
		{"negative shipping", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}, ShippingFee: decimal.NewFromInt(-1)}, "u1", apperr.CodeValidation},
		{"discount above total", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}, DiscountTotal: decimal.NewFromInt(21)}, "u1", apperr.CodeValidation},
		{"blank customer email", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}, CustomerEmail: &blank}, "u1", apperr.CodeValidation},
		{"sub-cent shipping", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}, ShippingFee: decimal.RequireFromString("0.005")}, "u1", apperr.CodeValidation},
		{"sub-cent discount", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}, DiscountTotal: decimal.RequireFromString("0.006"), ShippingFee: decimal.RequireFromString("0.004")}, "u1", apperr.CodeValidation},
		{"missing book", PlaceInput{Items: []PlaceItem{{BookID: "nope", Quantity: 1}}}, "u1", apperr.CodeNotFound},
		{"missing user", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}}, "ghost", apperr.CodeUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Place(ctx, tc.uid, tc.in)
			assert.Equal(t, tc.code, apperr.CodeOf(err))
		})
	}
	assert.Equal(t, 10, testutil.BookStock(t, db, "b1"))
	assert.Zero(t, testutil.Count(t, db, &model.Order{}))
}

func TestPlaceAcceptsTrailingZeroAmounts(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	s := newOrderService(t, db, nil)

	o, err := s.Place(context.Background(), "u1", PlaceInput{
		Items:       []PlaceItem{{BookID: "b1", Quantity: 1}},
		ShippingFee: decimal.RequireFromString("4.500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "24.5", o.TotalAmount.String())
	assert.True(t, o.TotalAmount.Equal(o.ItemTotal.Sub(o.DiscountTotal).Add(o.ShippingFee)))
}

func TestPlaceConcurrentLastUnits(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateUser(t, db, "u2", "other@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 3)
	s := newOrderService(t, db, nil)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, uid := range []string{"u1", "u2"} {
		i, uid := i, uid
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Place(context.Background(), uid, PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 3}}})
		}()
	}
	wg.Wait()

	okCount, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.CodeOf(err) == apperr.CodeStateConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 0, testutil.BookStock(t, db, "b1"))
	assert.EqualValues(t, 1, testutil.Count(t, db, &model.Order{}))
}

func TestCancelOrder(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	rec := &recorder{}
	s := newOrderService(t, db, rec)
	ctx := context.Background()

	o, err := s.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 2}}})
	require.NoError(t, err)

	_, err = s.Cancel(ctx, o.ID, "other-user")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = s.Cancel(ctx, "missing", "u1")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	cancelled, err := s.Cancel(ctx, o.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	// cancellation does not restock
	assert.Equal(t, 8, testutil.BookStock(t, db, "b1"))

	_, err = s.Cancel(ctx, o.ID, "u1")
	assert.Equal(t, apperr.CodeStateConflict, apperr.CodeOf(err))
	assert.Contains(t, rec.actions(), model.ActionOrderCancelled)
}

func TestCancelRequiresPending(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	s := newOrderService(t, db, nil)
	ctx := context.Background()

	o, err := s.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, o.ID, model.OrderPaid, "admin")
	require.NoError(t, err)

	_, err = s.Cancel(ctx, o.ID, "u1")
	assert.Equal(t, apperr.CodeStateConflict, apperr.CodeOf(err))
}

func TestUpdateStatus(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	s := newOrderService(t, db, nil)
	ctx := context.Background()

	o, err := s.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}})
	require.NoError(t, err)

	got, err := s.UpdateStatus(ctx, o.ID, model.OrderFulfilled, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderFulfilled, got.Status)

	// any status may follow any other
	got, err = s.UpdateStatus(ctx, o.ID, model.OrderPending, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, got.Status)

	got, err = s.UpdateStatus(ctx, o.ID, model.OrderCancelled, "admin")
	require.NoError(t, err)
	assert.NotNil(t, got.CancelledAt)

	_, err = s.UpdateStatus(ctx, o.ID, model.OrderStatus("SHIPPED"), "admin")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	_, err = s.UpdateStatus(ctx, "missing", model.OrderPaid, "admin")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestOrderVisibility(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	s := newOrderService(t, db, nil)
	ctx := context.Background()

	o, err := s.Place(ctx, "u1", PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}})
	require.NoError(t, err)

	_, err = s.Get(ctx, o.ID, model.Identity{UserID: "u1", Role: model.RoleUser})
	assert.NoError(t, err)
	items, err := s.Items(ctx, o.ID, model.Identity{UserID: "staff", Role: model.RoleCurator})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	_, err = s.Get(ctx, o.ID, model.Identity{UserID: "u2", Role: model.RoleUser})
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestListOrders(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "user@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateUser(t, db, "u2", "other@example.com", "Password1!", model.RoleUser, model.StatusActive)
	testutil.CreateBook(t, db, "b1", "20", 10)
	s := newOrderService(t, db, nil)
	ctx := context.Background()

	for _, uid := range []string{"u1", "u1", "u2"} {
		_, err := s.Place(ctx, uid, PlaceInput{Items: []PlaceItem{{BookID: "b1", Quantity: 1}}})
		require.NoError(t, err)
	}

	mine, err := s.ListForUser(ctx, "u1", utils.Page{Page: 1, Size: 20}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.TotalElements)
	assert.Len(t, mine.Content, 2)

	all, err := s.List(ctx, repository.OrderFilter{}, utils.Page{Page: 1, Size: 2}, "totalAmount,asc")
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.TotalElements)
	assert.Len(t, all.Content, 2)
	assert.Equal(t, 2, all.TotalPages)
}
