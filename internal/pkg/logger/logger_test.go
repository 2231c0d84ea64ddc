package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if got := FromContext(context.Background()); got != &log.Logger {
		t.Fatal("expected global logger when none is attached")
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	l := zerolog.Nop()
	ctx := WithContext(context.Background(), &l)
	if got := FromContext(ctx); got != &l {
		t.Fatal("expected attached logger")
	}
}

func TestNewStampsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "WARN", Environment: "production", Service: "dispatch-api", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	l.Info().Msg("dropped")
	l.Warn().Str("booking_id", "b1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON entry: %v", err)
	}
	if entry["service"] != "dispatch-api" || entry["booking_id"] != "b1" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
