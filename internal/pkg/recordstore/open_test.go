package recordstore

import (
	"context"
	"testing"
)

func TestOpenMemoryByDefault(t *testing.T) {
	store, closeFn, err := Open(context.Background(), Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if _, ok := store.(ConditionalUpdater); !ok {
		t.Fatal("memory store should support conditional updates")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, _, err := Open(context.Background(), Options{Driver: "cassandra"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
