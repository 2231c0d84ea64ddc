package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dispatch api: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	if e.Details["retryable"] == "true" {
		return true
	}
	return e.Status == http.StatusTooManyRequests || e.Status == http.StatusBadGateway ||
		e.Status == http.StatusServiceUnavailable || e.Status == http.StatusGatewayTimeout
}

// Is lets callers match API errors against the booking sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case booking.ErrInvalidTransition:
		return e.Code == "ALREADY_DECIDED"
	case booking.ErrNotEditable:
		return e.Code == "NOT_EDITABLE"
	case booking.ErrBookingNotFound:
		return e.Status == http.StatusNotFound
	case booking.ErrStoreUnavailable:
		return e.Code == "STORE_UNAVAILABLE"
	}
	return false
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var env struct {
		Error *struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return apiErr
}
