package refresh

import (
	"context"
	"errors"
	"net"

	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
)

// IsRetryable reports whether err is a transient store or network failure
// worth retrying, as opposed to a terminal answer such as an invalid
// transition or a missing booking.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var marked interface{ Retryable() bool }
	if errors.As(err, &marked) {
		return marked.Retryable()
	}

	if errors.Is(err, recordstore.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
