package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", detailsOK: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestNewReasonMapsToTransportCode(t *testing.T) {
	tests := []struct {
		reason Reason
		code   Code
	}{
		{reason: ReasonProductUnavailable, code: CodeStateConflict},
		{reason: ReasonInsufficientStock, code: CodeStateConflict},
		{reason: ReasonQuantityOutOfRange, code: CodeValidation},
		{reason: ReasonAddressNotFound, code: CodeNotFound},
		{reason: ReasonSchedulingDisabled, code: CodeValidation},
		{reason: ReasonScheduleInPast, code: CodeValidation},
		{reason: ReasonScheduleTooFar, code: CodeValidation},
		{reason: ReasonStoreClosed, code: CodeStateConflict},
		{reason: ReasonOutsideBusinessHours, code: CodeStateConflict},
		{reason: ReasonInvalidStatusTransition, code: CodeStateConflict},
		{reason: ReasonPreparationTimeMismatch, code: CodeValidation},
	}

	for _, tt := range tests {
		err := NewReason(tt.reason, "msg")
		if err.Code() != tt.code {
			t.Fatalf("reason %s expected code %s got %s", tt.reason, tt.code, err.Code())
		}
		if err.Reason() != tt.reason {
			t.Fatalf("reason %s not preserved, got %s", tt.reason, err.Reason())
		}
	}
}

func TestNewReasonUnknownFallsBackToInternal(t *testing.T) {
	err := NewReason("NOT_A_REASON", "msg")
	if err.Code() != CodeInternal {
		t.Fatalf("expected internal code, got %s", err.Code())
	}
}

func TestReasonOfWrappedError(t *testing.T) {
	inner := NewReason(ReasonInsufficientStock, "only 2 left")
	wrapped := fmt.Errorf("checkout: %w", inner)
	if !IsReason(wrapped, ReasonInsufficientStock) {
		t.Fatalf("reason lost through wrapping")
	}
	if IsReason(wrapped, ReasonStoreClosed) {
		t.Fatalf("unexpected reason match")
	}
	if ReasonOf(stdErrors.New("plain")) != "" {
		t.Fatalf("plain error should carry no reason")
	}
}

func TestErrorStringIncludesReason(t *testing.T) {
	err := NewReason(ReasonStoreClosed, "store is closed today")
	if got := err.Error(); got != "STORE_CLOSED: store is closed today" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}
