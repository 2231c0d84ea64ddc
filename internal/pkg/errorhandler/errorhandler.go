package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/logger"
	"github.com/handyhub/dispatch-api/internal/pkg/response"
)

// HandleError logs a server-side failure and sends the error envelope.
// err is logged only; it never reaches the client.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("error_code", code).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}

	event.Msg(message)

	response.Error(w, status, code, message)
}

// Unavailable logs a retryable backend failure and sends 503.
func Unavailable(ctx context.Context, w http.ResponseWriter, code, message string, err error) {
	logger.FromContext(ctx).Warn().
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("error_code", code).
		Err(err).
		Msg(message)

	response.ServiceUnavailable(w, code, message)
}

// Internal logs err and sends a generic 500.
func Internal(ctx context.Context, w http.ResponseWriter, err error) {
	HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	logger.FromContext(ctx).Warn().
		Str("request_id", middleware.GetRequestID(ctx)).
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}
