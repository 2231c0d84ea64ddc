package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
)

// Repository defines booking data access interface
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	UpdateDetails(ctx context.Context, id string, patch recordstore.Document) (applied bool, err error)
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (applied bool, err error)
	ListByProvider(ctx context.Context, providerID string) ([]*Booking, error)
	ListBySeeker(ctx context.Context, seekerID string) ([]*Booking, error)
}

type repository struct {
	store recordstore.Store
}

// NewRepository creates a booking repository over a document store
func NewRepository(store recordstore.Store) Repository {
	return &repository{store: store}
}

// Create persists b and fills in the store-assigned ID and CreatedAt.
// Once the store accepts the record Create succeeds; if the record cannot be
// read back, CreatedAt falls back to b.UpdatedAt.
func (r *repository) Create(ctx context.Context, b *Booking) error {
	id, err := r.store.Create(ctx, Collection, toDocument(b))
	if err != nil {
		return storeError(err)
	}
	b.ID = id

	stored, err := r.readBack(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("booking_id", id).Msg("Re-read of created booking failed")
		b.CreatedAt = b.UpdatedAt
		return nil
	}
	b.CreatedAt = stored.CreatedAt
	return nil
}

func (r *repository) readBack(ctx context.Context, id string) (*Booking, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, storeError(err)
	}
	return fromDocument(doc)
}

// GetByID returns nil, nil when the booking does not exist.
func (r *repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, nil
		}
		return nil, storeError(err)
	}
	return fromDocument(doc)
}

// UpdateDetails applies a seeker edit while the booking is still pending.
// Without a conditional backend the caller's pending check is the only guard.
func (r *repository) UpdateDetails(ctx context.Context, id string, patch recordstore.Document) (bool, error) {
	return r.update(ctx, id, StatusPending, patch)
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (bool, error) {
	patch := recordstore.Document{
		fieldStatus:    string(to),
		fieldUpdatedAt: at.UTC(),
		fieldDecidedAt: at.UTC(),
	}
	return r.update(ctx, id, from, patch)
}

func (r *repository) update(ctx context.Context, id string, expected Status, patch recordstore.Document) (bool, error) {
	var (
		applied = true
		err     error
	)
	if cas, ok := r.store.(recordstore.ConditionalUpdater); ok {
		applied, err = cas.UpdateIf(ctx, Collection, id, fieldStatus, string(expected), patch)
	} else {
		err = r.store.Update(ctx, Collection, id, patch)
	}
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return false, ErrBookingNotFound
		}
		return false, storeError(err)
	}
	return applied, nil
}

func (r *repository) ListByProvider(ctx context.Context, providerID string) ([]*Booking, error) {
	return r.list(ctx, recordstore.Filter{fieldProviderID: providerID})
}

func (r *repository) ListBySeeker(ctx context.Context, seekerID string) ([]*Booking, error) {
	return r.list(ctx, recordstore.Filter{fieldSeekerID: seekerID})
}

// list skips malformed records so one bad document cannot hide the rest.
func (r *repository) list(ctx context.Context, filter recordstore.Filter) ([]*Booking, error) {
	docs, err := r.store.Query(ctx, Collection, filter)
	if err != nil {
		return nil, storeError(err)
	}

	out := make([]*Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := fromDocument(doc)
		if err != nil {
			log.Warn().Err(err).Interface("id", doc[fieldID]).Msg("Skipping malformed booking record")
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func storeError(err error) error {
	if errors.Is(err, recordstore.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
