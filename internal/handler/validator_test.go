package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore-api/internal/apperr"
)

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()
	bad := "Bob <bob@example.com>"

	err := v.Validate(&createOrderReq{
		Items:         []orderItemReq{{BookID: "", Quantity: 0}},
		CustomerEmail: &bad,
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Equal(t, map[string]string{
		"items[0].bookId":   "required",
		"items[0].quantity": "min=1",
		"customerEmail":     "email",
	}, ae.Details)
}

func TestValidatorAcceptsValidBodies(t *testing.T) {
	v := NewValidator()
	phone := "+44 20 7946 0000"
	email := "gift@example.com"

	assert.NoError(t, v.Validate(&registerReq{Email: "reader@example.com", Password: "Password1!", Name: "Reader", Phone: &phone}))
	assert.NoError(t, v.Validate(&createOrderReq{Items: []orderItemReq{{BookID: "b1", Quantity: 2}}, CustomerEmail: &email}))
	assert.NoError(t, v.Validate(&profileReq{}))
	assert.NoError(t, v.Validate(&refreshReq{}))
}

func TestValidatorRejects(t *testing.T) {
	v := NewValidator()
	short := "123"
	cases := map[string]any{
		"empty items":    &createOrderReq{},
		"missing email":  &registerReq{Password: "Password1!", Name: "Reader"},
		"plain text":     &registerReq{Email: "nope", Password: "Password1!", Name: "Reader"},
		"short phone":    &profileReq{Phone: &short},
		"missing role":   &roleReq{},
		"missing status": &orderStatusReq{},
		"missing token":  &logoutReq{},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(v.Validate(req)))
		})
	}
}
