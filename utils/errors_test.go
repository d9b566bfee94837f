package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil)
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   interface{}
	}{
		{name: "api error", err: CreateNotFoundError("快照"), wantStatus: http.StatusNotFound, wantCode: "RESOURCE_NOT_FOUND"},
		{name: "wrapped api error", err: fmt.Errorf("加载看板: %w", CreateBadRequestError("bad filter")), wantStatus: http.StatusBadRequest, wantCode: "BAD_REQUEST"},
		{name: "app error", err: NewAppError("保存失败", http.StatusConflict, errors.New("dup")), wantStatus: http.StatusConflict},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestSuccessResponse(t *testing.T) {
	c, w := newTestContext()

	SuccessResponse(c, gin.H{"n": 1}, "ok", http.StatusCreated)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, body["data"])
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewAppError("wrapper", http.StatusBadGateway, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrapper: cause", err.Error())
}
