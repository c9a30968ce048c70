package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrInvalidArgument    ErrorType = "INVALID_ARGUMENT"
	ErrNotFound           ErrorType = "NOT_FOUND"
	ErrSourceFailure      ErrorType = "SOURCE_FAILURE"
	ErrAggregationFailure ErrorType = "AGGREGATION_FAILURE"
	ErrRateLimited        ErrorType = "RATE_LIMITED"
	ErrInternal           ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewInvalidArgument(format string, args ...any) *AppError {
	return New(ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func NewNotFound(format string, args ...any) *AppError {
	return New(ErrNotFound, fmt.Sprintf(format, args...), nil)
}

// NewSourceFailure marks an upstream fetch (REST, subgraph, RPC) that rejected.
func NewSourceFailure(source string, cause error) *AppError {
	return New(ErrSourceFailure, "upstream source "+source+" failed", cause)
}

func NewAggregationFailure(msg string, cause error) *AppError {
	return New(ErrAggregationFailure, msg, cause)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether any AppError in err's chain has the given type.
func Is(err error, errType ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrSourceFailure, ErrAggregationFailure:
		return http.StatusBadGateway
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrInvalidArgument:
		return "Check the request parameters."
	case ErrSourceFailure, ErrAggregationFailure:
		return "Upstream data source unavailable, retry the request."
	case ErrRateLimited:
		return "Slow down and retry after a second."
	default:
		return ""
	}
}
