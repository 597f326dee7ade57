package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/parkapi/internal/api/dto"
	"github.com/martijn/parkapi/internal/api/util"
	"github.com/martijn/parkapi/internal/api/validation"
	"github.com/martijn/parkapi/internal/core/service"
	"github.com/martijn/parkapi/pkg/logger"
)

// statusByKind maps service error kinds to HTTP statuses.
var statusByKind = map[service.ErrorKind]int{
	service.KindNotFound:         http.StatusNotFound,
	service.KindUsernameConflict: http.StatusConflict,
	service.KindPasswordMismatch: http.StatusBadRequest,
}

const internalErrorMessage = "An unexpected error occurred"

// ErrorHandlerMiddleware renders the last error a handler attached with
// c.Error and turns panics into 500 responses.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				log := logger.Get()
				log.Error().
					Interface("panic", p).
					Str("request_id", c.GetString(requestIDKey)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				writeError(c, http.StatusInternalServerError, internalErrorMessage, nil)
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		status, message, fields := resolveError(c, c.Errors.Last().Err)
		writeError(c, status, message, fields)
	}
}

func resolveError(c *gin.Context, err error) (int, string, map[string]string) {
	var (
		verr *validation.Error
		qerr *util.QueryError
		perr *validation.ParamError
		serr *service.ServiceError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Error(), verr.Fields
	case errors.As(err, &qerr):
		return http.StatusUnprocessableEntity, qerr.Error(), nil
	case errors.As(err, &perr):
		return http.StatusBadRequest, perr.Error(), nil
	case errors.As(err, &serr):
		if status, ok := statusByKind[serr.Kind]; ok {
			return status, serr.Message, nil
		}
	}

	log := logger.Get()
	log.Error().
		Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("unhandled error")

	return http.StatusInternalServerError, internalErrorMessage, nil
}

func writeError(c *gin.Context, status int, message string, fields map[string]string) {
	c.JSON(status, dto.ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Errors:    fields,
	})
}
