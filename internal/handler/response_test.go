package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReqCtxOutlivesClientDisconnect(t *testing.T) {
	parent, cancelClient := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil).WithContext(parent)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	ctx, cancel := reqCtx(c)
	defer cancel()
	cancelClient()

	assert.NoError(t, ctx.Err())
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(requestTimeout), deadline, time.Second)
}
