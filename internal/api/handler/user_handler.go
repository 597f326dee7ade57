package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/parkapi/internal/api/dto"
	"github.com/martijn/parkapi/internal/api/metrics"
	"github.com/martijn/parkapi/internal/api/util"
	"github.com/martijn/parkapi/internal/api/validation"
	"github.com/martijn/parkapi/internal/core/domain"
	"github.com/martijn/parkapi/internal/core/repository"
	"github.com/martijn/parkapi/internal/core/service"
)

// Allowed fields for user queries and ordering
var userFields = util.FieldSet{
	Query: []string{"id", "username", "role", "created_at", "modified_at"},
	Order: []string{"id", "username", "created_at"},
}

const TotalCountHeader = "X-Total-Count"

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles POST /api/v1/users
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateUserRequest  true  "Username (email) and 6 character password"
// @Success      201   {object}  dto.UserResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), domain.NewUser(req.Username, req.Password))
	if err != nil {
		_ = c.Error(err)
		return
	}

	metrics.UsersCreatedTotal.Inc()
	c.Header("Location", fmt.Sprintf("/api/v1/users/%d", user.ID))
	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// GetUser handles GET /api/v1/users/:id
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// ListUsers handles GET /api/v1/users
//
// Without page/per_page every user is returned. With them, X-Total-Count
// carries the number of matching users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        query     query     string  false  "Filters, e.g. role|ADMIN or id|gte|10"
// @Param        order     query     string  false  "Ordering, e.g. username|desc"
// @Param        page      query     int     false  "Page number (1-based)"
// @Param        per_page  query     int     false  "Page size"
// @Success      200       {array}   dto.UserResponse
// @Failure      422       {object}  dto.ErrorResponse
// @Router       /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	listFilter, err := parseListFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	filter := repository.UserFilter{ListFilter: listFilter}

	if !filter.Paginated() {
		users, err := h.userService.List(c.Request.Context(), filter)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, dto.NewUserListResponse(users))
		return
	}

	users, total, err := h.userService.ListWithCount(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header(TotalCountHeader, strconv.Itoa(total))
	c.JSON(http.StatusOK, dto.NewUserListResponse(users))
}

// UpdatePassword handles PATCH /api/v1/users/:id
//
// @Summary      Change a user's password
// @Tags         users
// @Accept       json
// @Param        id    path  int                        true  "User id"
// @Param        body  body  dto.UpdatePasswordRequest  true  "Current, new and confirmation password"
// @Success      204
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/v1/users/{id} [patch]
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}

	_, err = h.userService.UpdatePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	metrics.PasswordUpdatesTotal.WithLabelValues(passwordUpdateResult(err)).Inc()
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func passwordUpdateResult(err error) string {
	var se *service.ServiceError
	switch {
	case err == nil:
		return "success"
	case !errors.As(err, &se):
		return "error"
	case se.Kind == service.KindNotFound:
		return "not_found"
	case se.Mismatch == service.MismatchConfirmation:
		return "confirmation_mismatch"
	case se.Mismatch == service.MismatchCurrent:
		return "current_mismatch"
	default:
		return "error"
	}
}

func parseID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &validation.ParamError{Param: "id", Value: raw}
	}
	return id, nil
}

// parseListFilter reads query, order, page and per_page. Filter values are
// converted to the types the store compares against.
func parseListFilter(c *gin.Context) (util.ListFilter, error) {
	var filter util.ListFilter

	if queryStr := c.Query("query"); queryStr != "" {
		filters, err := util.ParseQueryString(queryStr)
		if err != nil {
			return filter, err
		}
		filter.Filters = filters
	}

	if orderStr := c.Query("order"); orderStr != "" {
		orders, err := util.ParseOrderString(orderStr)
		if err != nil {
			return filter, err
		}
		filter.Order = orders
	}

	if err := userFields.Validate(filter); err != nil {
		return filter, err
	}

	for i := range filter.Filters {
		if err := normalizeFilterValue(&filter.Filters[i]); err != nil {
			return filter, err
		}
	}

	_, hasPage := c.GetQuery("page")
	_, hasPerPage := c.GetQuery("per_page")
	if hasPage || hasPerPage {
		page, err := positiveQueryInt(c, "page", 1)
		if err != nil {
			return filter, err
		}
		perPage, err := positiveQueryInt(c, "per_page", 25)
		if err != nil {
			return filter, err
		}
		filter.Page = page
		filter.PerPage = perPage
	}

	return filter, nil
}

func positiveQueryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &util.QueryError{Param: name, Message: fmt.Sprintf("must be a positive integer, got %q", raw)}
	}
	return n, nil
}

func normalizeFilterValue(f *util.QueryFilter) error {
	var convert func(string) (any, error)
	switch f.Field {
	case "id":
		convert = func(s string) (any, error) { return strconv.ParseInt(s, 10, 64) }
	case "role":
		convert = func(s string) (any, error) {
			role, err := domain.ParseRole(s)
			return string(role), err
		}
	case "created_at", "modified_at":
		convert = parseFilterTime
	default:
		return nil
	}

	switch v := f.Value.(type) {
	case string:
		converted, err := convert(v)
		if err != nil {
			return filterValueError(f.Field, v)
		}
		f.Value = converted
	case []string:
		values := make([]any, 0, len(v))
		for _, s := range v {
			converted, err := convert(s)
			if err != nil {
				return filterValueError(f.Field, s)
			}
			values = append(values, converted)
		}
		f.Value = values
	}
	return nil
}

// parseFilterTime accepts RFC 3339 timestamps and plain dates (UTC midnight).
func parseFilterTime(s string) (any, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func filterValueError(field, value string) error {
	return &util.QueryError{Param: "query", Message: fmt.Sprintf("invalid value for %s: %q", field, value)}
}
