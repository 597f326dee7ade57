package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/martijn/parkapi/internal/api/dto"
	"github.com/martijn/parkapi/internal/api/util"
	"github.com/martijn/parkapi/internal/api/validation"
	"github.com/martijn/parkapi/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), ErrorHandlerMiddleware())
	r.GET("/boom", handler)
	return r
}

func serve(t *testing.T, r *gin.Engine) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func TestErrorHandlerStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: service.ErrNotFound, status: http.StatusNotFound, message: "not found"},
		{name: "conflict", err: service.ErrUsernameConflict, status: http.StatusConflict},
		{name: "mismatch", err: service.ErrPasswordMismatch, status: http.StatusBadRequest},
		{name: "wrapped service error", err: fmt.Errorf("handler: %w", service.ErrNotFound), status: http.StatusNotFound},
		{name: "validation", err: &validation.Error{Fields: map[string]string{"username": "must not be blank"}}, status: http.StatusUnprocessableEntity},
		{name: "query", err: &util.QueryError{Param: "query", Message: "bad"}, status: http.StatusUnprocessableEntity},
		{name: "path param", err: &validation.ParamError{Param: "id", Value: "abc"}, status: http.StatusBadRequest},
		{name: "unknown", err: errors.New("connection refused"), status: http.StatusInternalServerError, message: internalErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(func(c *gin.Context) { _ = c.Error(tt.err) })

			w, resp := serve(t, r)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, http.StatusText(tt.status), resp.Error)
			assert.Equal(t, "/boom", resp.Path)
			assert.Equal(t, http.MethodGet, resp.Method)
			assert.False(t, resp.Timestamp.IsZero())
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestErrorHandlerFieldErrors(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		_ = c.Error(&validation.Error{Fields: map[string]string{"password": "size must be exactly 6"}})
	})

	_, resp := serve(t, r)
	assert.Equal(t, map[string]string{"password": "size must be exactly 6"}, resp.Errors)
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := newRouter(func(c *gin.Context) { panic("boom") })

	w, resp := serve(t, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorMessage, resp.Message)
}

func TestRequestIDHeader(t *testing.T) {
	r := newRouter(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
