package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-moderation/internal/interface/http/dto"
)

func newTestContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestCurrentActor_MissingWritesUnauthorized(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")

	_, ok := currentActor(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestParseWindow(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/?skip=40&limit=10", "")
	skip, limit, ok := parseWindow(c)
	require.True(t, ok)
	assert.Equal(t, 40, skip)
	assert.Equal(t, 10, limit)

	c, _ = newTestContext(http.MethodGet, "/", "")
	skip, limit, ok = parseWindow(c)
	require.True(t, ok)
	assert.Zero(t, skip)
	assert.Zero(t, limit)

	c, w := newTestContext(http.MethodGet, "/?limit=ten", "")
	_, _, ok = parseWindow(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestParseIDParam(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	_, ok := parseIDParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBindOptionalJSON(t *testing.T) {
	var req dto.RejectListingRequest
	c, _ := newTestContext(http.MethodPost, "/", "")
	assert.True(t, bindOptionalJSON(c, &req))
	assert.Empty(t, req.Reason)

	c, _ = newTestContext(http.MethodPost, "/", `{"reason":"дубликат"}`)
	assert.True(t, bindOptionalJSON(c, &req))
	assert.Equal(t, "дубликат", req.Reason)

	c, w := newTestContext(http.MethodPost, "/", `{"reason":`)
	assert.False(t, bindOptionalJSON(c, &req))
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestHealth(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	broken := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	c, w := newTestContext(http.MethodGet, "/health", "")
	NewHealthHandler(map[string]Pinger{"store": healthy}).Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/health", "")
	NewHealthHandler(map[string]Pinger{"store": healthy, "redis": broken}).Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["store"])
	assert.Contains(t, resp.Checks["redis"], "connection refused")
}
