package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/crvs-platform/appconfig/pkg/appconfig"
	"github.com/crvs-platform/appconfig/pkg/countryconfig"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "input validation",
			err:        &appconfig.ValidationError{Source: appconfig.SourceInput, Field: "BIRTH.REGISTRATION_TARGET", Reason: "must be a number"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation.failed",
			wantField:  "BIRTH.REGISTRATION_TARGET",
		},
		{
			name:       "upstream validation",
			err:        fmt.Errorf("resolve: %w", &appconfig.ValidationError{Source: appconfig.SourceUpstream, Field: "CURRENCY", Reason: "is required"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "upstream.invalid_config",
			wantField:  "CURRENCY",
		},
		{
			name:       "upstream failure",
			err:        &countryconfig.UpstreamError{URL: "http://countryconfig/application-config", StatusCode: 500},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream.unavailable",
		},
		{
			name:       "persistence",
			err:        &appconfig.PersistenceError{Op: "write", Err: errors.New("not primary")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal.persistence",
		},
		{
			name:       "forbidden",
			err:        NewForbiddenError("missing scope"),
			wantStatus: http.StatusForbidden,
			wantCode:   "auth.forbidden",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal.error",
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "internal.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := logger.ContextWithRequestID(context.Background(), "req-1")
			status, body := MapError(ctx, tt.err)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if body.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.RequestID != "req-1" {
				t.Fatalf("expected request id, got %q", body.RequestID)
			}
			if body.Message == "" {
				t.Fatal("expected a message")
			}
			if tt.wantField != "" && body.Details["field"] != tt.wantField {
				t.Fatalf("expected field %q in details, got %v", tt.wantField, body.Details)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewError("internal.error", errors.New("connection timeout")).WithMessage("database error")
	if got := err.Error(); got != "database error: connection timeout" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, err.Cause) {
		t.Fatal("expected cause to unwrap")
	}
}
