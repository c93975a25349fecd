package app_error

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Type classifies a failure so controllers can map it onto an HTTP
// status without inspecting error strings.
type Type string

const (
	Validation         Type = "validation"
	PreconditionFailed Type = "precondition_failed"
	NotFound           Type = "not_found"
	Conflict           Type = "conflict"
	Unauthorized       Type = "unauthorized"
	Transient          Type = "transient"
)

type Error struct {
	Type Type
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(t Type, format string, args ...any) *Error {
	return &Error{Type: t, Err: fmt.Errorf(format, args...)}
}

func Wrap(t Type, err error) *Error {
	return &Error{Type: t, Err: err}
}

func (e *Error) HTTPStatus() int {
	switch e.Type {
	case Validation:
		return 400
	case Unauthorized:
		return 401
	case NotFound:
		return 404
	case Conflict:
		return 409
	case PreconditionFailed:
		return 412
	default:
		return 500
	}
}

func IsType(err error, t Type) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// Respond writes the error to the gin context with the status the
// error's type maps to. Unclassified errors become a 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Error()})
		return
	}
	c.JSON(500, gin.H{"error": err.Error()})
}
