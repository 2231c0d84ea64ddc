package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServiceUnavailableMarksRetryable(t *testing.T) {
	w := httptest.NewRecorder()
	ServiceUnavailable(w, "STORE_UNAVAILABLE", "Booking store is unavailable")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected error envelope, got %+v", resp)
	}
	if resp.Error.Code != "STORE_UNAVAILABLE" || resp.Error.Details["retryable"] != "true" {
		t.Fatalf("unexpected error info: %+v", resp.Error)
	}
}

func TestOKEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"id": "b1"})

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Error != nil {
		t.Fatalf("expected success envelope, got %+v", resp)
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationError(w, map[string]string{"providerId": "This field must not be blank"})

	if w.Code != http.StatusUnprocessableEntity || w.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected status %d / content type %q", w.Code, w.Header().Get("Content-Type"))
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" || resp.Error.Details["providerId"] == "" {
		t.Fatalf("unexpected error info: %+v", resp.Error)
	}
}
