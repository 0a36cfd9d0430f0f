package Models

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies pipeline failures so handlers can decide whether the
// caller should retry, correct input, or give up.
type ErrorKind int

const (
	ValidationError ErrorKind = iota + 1
	CalculationError
	ConnectivityError
	ConflictError
	UpstreamServiceError
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(message string) *AppError {
	return &AppError{Kind: ValidationError, Message: message}
}

func NewCalculationError(message string) *AppError {
	return &AppError{Kind: CalculationError, Message: message}
}

func NewConnectivityError(message string, err error) *AppError {
	return &AppError{Kind: ConnectivityError, Message: message, Err: err}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: ConflictError, Message: message}
}

// KindOf returns the classification of err, or 0 when err carries none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// StatusCode maps an error kind to the HTTP status the handlers respond with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case ValidationError:
		return fiber.StatusBadRequest
	case CalculationError:
		return fiber.StatusUnprocessableEntity
	case ConflictError:
		return fiber.StatusConflict
	case ConnectivityError:
		return fiber.StatusServiceUnavailable
	case UpstreamServiceError:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// MapUpstreamError converts a raw persistence error into the small fixed set
// of user-facing messages. Constraint and permission violations get friendly
// wording, anything else surfaces the upstream message as-is.
func MapUpstreamError(err error) *AppError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "row-level security"), strings.Contains(msg, "permission"):
		return &AppError{Kind: UpstreamServiceError, Message: "Permission denied. Please contact support.", Err: err}
	case strings.Contains(msg, "violates"), strings.Contains(msg, "constraint"):
		return &AppError{Kind: UpstreamServiceError, Message: "Invalid data format. Please check your inputs.", Err: err}
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "timeout"):
		return &AppError{Kind: ConnectivityError, Message: "Network error. Please check your internet connection.", Err: err}
	default:
		return &AppError{Kind: UpstreamServiceError, Message: msg, Err: err}
	}
}
