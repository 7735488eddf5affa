// Package controller maps service errors onto HTTP responses.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crvs-platform/appconfig/pkg/appconfig"
	"github.com/crvs-platform/appconfig/pkg/countryconfig"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// AppError is an error with a stable code and an HTTP status.
type AppError struct {
	Code       string
	Message    string
	Details    map[string]any
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	label := e.Code
	if e.Message != "" {
		label = e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", label, e.Cause)
	}
	return label
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError creates an AppError with a stable code.
func NewError(code string, cause error) *AppError {
	return &AppError{Code: code, Cause: cause}
}

// WithMessage sets the client-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	e.Message = message
	return e
}

// WithHTTPStatus sets an explicit HTTP status.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// WithDetails sets structured error details.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// ErrorResponse represents the consistent error response format.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// MapError maps application errors to HTTP responses.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	appErr := toAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = inferStatusFromCode(appErr.Code)
	}

	message := appErr.Message
	if message == "" {
		message = "an unexpected error occurred"
	}

	return status, ErrorResponse{
		Error:     errorCategory(status, appErr.Code),
		Code:      appErr.Code,
		Message:   message,
		RequestID: logger.RequestIDFromContext(ctx),
		Details:   appErr.Details,
	}
}

func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *appconfig.ValidationError
	if errors.As(err, &validationErr) {
		details := map[string]any{"reason": validationErr.Reason}
		if validationErr.Field != "" {
			details["field"] = validationErr.Field
		}
		if validationErr.Source == appconfig.SourceUpstream {
			return NewError("upstream.invalid_config", err).
				WithMessage("the country configuration returned an invalid application config").
				WithHTTPStatus(http.StatusUnprocessableEntity).
				WithDetails(details)
		}
		return NewError("validation.failed", err).
			WithMessage(validationErr.Error()).
			WithHTTPStatus(http.StatusBadRequest).
			WithDetails(details)
	}

	var upstreamErr *countryconfig.UpstreamError
	if errors.As(err, &upstreamErr) {
		details := map[string]any{"url": upstreamErr.URL}
		if upstreamErr.StatusCode != 0 {
			details["status"] = upstreamErr.StatusCode
		}
		return NewError("upstream.unavailable", err).
			WithMessage("the country configuration service request failed").
			WithHTTPStatus(http.StatusBadGateway).
			WithDetails(details)
	}

	var persistErr *appconfig.PersistenceError
	if errors.As(err, &persistErr) {
		return NewError("internal.persistence", err).
			WithMessage("failed to access the configuration store").
			WithHTTPStatus(http.StatusInternalServerError)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewError("internal.timeout", err).
			WithMessage("the request was cancelled or timed out").
			WithHTTPStatus(http.StatusGatewayTimeout)
	}

	return NewError("internal.error", err).WithHTTPStatus(http.StatusInternalServerError)
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details map[string]any) *AppError {
	return NewError("validation.failed", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusBadRequest).
		WithDetails(details)
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	return NewError("auth.unauthorized", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusUnauthorized)
}

// NewForbiddenError creates a new forbidden error.
func NewForbiddenError(message string) *AppError {
	return NewError("auth.forbidden", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusForbidden)
}

func errorCategory(status int, code string) string {
	lowerCode := strings.ToLower(strings.TrimSpace(code))
	if strings.HasPrefix(lowerCode, "validation.") {
		return "validation_error"
	}

	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusUnprocessableEntity, http.StatusBadGateway:
		return "upstream_error"
	default:
		if status >= 500 {
			return "internal_server_error"
		}
		return "application_error"
	}
}

func inferStatusFromCode(code string) int {
	lowerCode := strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(lowerCode, "validation."):
		return http.StatusBadRequest
	case strings.Contains(lowerCode, "unauthorized"):
		return http.StatusUnauthorized
	case strings.Contains(lowerCode, "forbidden"):
		return http.StatusForbidden
	case strings.HasPrefix(lowerCode, "upstream."):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
