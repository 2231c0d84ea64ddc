package recordstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_CreateAssignsIDAndCreatedAt(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return at })

	id, err := store.Create(context.Background(), "bookings", Document{
		"jobTitle":  "Fix Wiring",
		"createdAt": time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := store.Get(context.Background(), "bookings", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc[IDField] != id {
		t.Fatalf("expected id %q, got %v", id, doc[IDField])
	}
	if got := doc[CreatedAtField].(time.Time); !got.Equal(at) {
		t.Fatalf("expected store-assigned createdAt %v, got %v", at, got)
	}
}

func TestMemoryStore_UpdateKeepsStoreOwnedFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, _ := store.Create(ctx, "bookings", Document{"status": "pending"})
	before, _ := store.Get(ctx, "bookings", id)

	err := store.Update(ctx, "bookings", id, Document{
		"status":    "accepted",
		"id":        "other",
		"createdAt": time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := store.Get(ctx, "bookings", id)
	if after["status"] != "accepted" {
		t.Fatalf("expected status accepted, got %v", after["status"])
	}
	if after[IDField] != id || !after[CreatedAtField].(time.Time).Equal(before[CreatedAtField].(time.Time)) {
		t.Fatalf("store-owned fields changed: %v", after)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, _ := store.Create(ctx, "bookings", Document{
		"location": map[string]any{"latitude": 14.0, "longitude": 121.0},
	})
	doc, _ := store.Get(ctx, "bookings", id)
	doc["location"].(map[string]any)["latitude"] = 0.0

	again, _ := store.Get(ctx, "bookings", id)
	if again["location"].(map[string]any)["latitude"] != 14.0 {
		t.Fatal("mutating a returned document leaked into the store")
	}
}

func TestMemoryStore_UpdateIf(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, "bookings", Document{"status": "pending"})

	applied, err := store.UpdateIf(ctx, "bookings", id, "status", "pending", Document{"status": "accepted"})
	if err != nil || !applied {
		t.Fatalf("expected first conditional update to apply, got applied=%v err=%v", applied, err)
	}

	applied, err = store.UpdateIf(ctx, "bookings", id, "status", "pending", Document{"status": "declined"})
	if err != nil || applied {
		t.Fatalf("expected second conditional update to be rejected, got applied=%v err=%v", applied, err)
	}

	doc, _ := store.Get(ctx, "bookings", id)
	if doc["status"] != "accepted" {
		t.Fatalf("expected accepted, got %v", doc["status"])
	}

	if _, err := store.UpdateIf(ctx, "bookings", "missing", "status", "pending", Document{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_QueryFiltersAndOrders(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	ctx := context.Background()

	first, _ := store.Create(ctx, "bookings", Document{"providerId": "P1"})
	_, _ = store.Create(ctx, "bookings", Document{"providerId": "P2"})
	third, _ := store.Create(ctx, "bookings", Document{"providerId": "P1"})

	docs, err := store.Query(ctx, "bookings", Filter{"providerId": "P1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0][IDField] != first || docs[1][IDField] != third {
		t.Fatalf("expected createdAt order [%s %s], got [%v %v]", first, third, docs[0][IDField], docs[1][IDField])
	}
}

func TestMemoryStore_CancelledContextIsUnavailable(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Query(ctx, "bookings", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
