// Package validation turns gin binding failures into field-level messages
// keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// Register configures gin's validator to report JSON field names. Call it
// before the first request is bound.
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// Error is an invalid request body. Fields is empty when the body could not
// be decoded at all.
type Error struct {
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "malformed request body"
	}
	return "invalid field(s)"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromBindError wraps the error returned by gin's ShouldBind* methods.
func FromBindError(err error) *Error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &Error{Err: err}
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fieldError(fe)
	}
	return &Error{Fields: fields, Err: err}
}

func fieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "email":
		return "must be a well-formed email address"
	case "len":
		return fmt.Sprintf("size must be exactly %s", fe.Param())
	case "max":
		return fmt.Sprintf("size must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("size must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}

// ParamError is a malformed path parameter.
type ParamError struct {
	Param string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Param, e.Value)
}
