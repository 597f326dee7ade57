package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/martijn/parkapi/internal/api/dto"
	"github.com/martijn/parkapi/internal/api/middleware"
	"github.com/martijn/parkapi/internal/api/validation"
	"github.com/martijn/parkapi/internal/core/domain"
	"github.com/martijn/parkapi/internal/core/service"
	"github.com/martijn/parkapi/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv holds all test dependencies
type testEnv struct {
	db          *database.DB
	router      *gin.Engine
	userService *service.UserService
	admin       *domain.User
	customer    *domain.User
}

// setupTestEnv creates a test environment with an in-memory SQLite database
// seeded with one admin and one customer, both with password 123456.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { db.Close() })

	userService := service.NewUserService(
		database.NewTxManager(db),
		service.BcryptEncoder{Cost: bcrypt.MinCost},
	)

	validation.Register()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware())

	users := NewUserHandler(userService)
	router.POST("/api/v1/users", users.CreateUser)
	router.GET("/api/v1/users", users.ListUsers)
	router.GET("/api/v1/users/:id", users.GetUser)
	router.PATCH("/api/v1/users/:id", users.UpdatePassword)
	router.GET("/health", NewHealthHandler(db).Health)

	env := &testEnv{db: db, router: router, userService: userService}

	admin := domain.NewUser("admin@email.com", "123456")
	admin.Role = domain.RoleAdmin
	env.admin, err = userService.Create(context.Background(), admin)
	require.NoError(t, err)

	env.customer, err = userService.Create(context.Background(), domain.NewUser("customer@email.com", "123456"))
	require.NoError(t, err)

	return env
}

// makeRequest sends body (if non-nil) as JSON and returns the response
func (env *testEnv) makeRequest(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err, "failed to create request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func parseUserResponse(t *testing.T, w *httptest.ResponseRecorder) dto.UserResponse {
	t.Helper()

	var resp dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func parseUserList(t *testing.T, w *httptest.ResponseRecorder) []dto.UserResponse {
	t.Helper()

	var resp []dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}
