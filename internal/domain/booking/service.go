package booking

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/domain/geo"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
)

// maxTransitionAttempts bounds re-reads after a lost conditional write.
const maxTransitionAttempts = 3

const publishTimeout = 5 * time.Second

// TransitionResult reports the stored booking after a decision.
// Changed is false when the decision had already been applied.
type TransitionResult struct {
	Booking *Booking
	Changed bool
}

// Service owns the booking lifecycle: creation, seeker edits and the
// pending -> accepted | declined decision.
type Service struct {
	repo   Repository
	events EventPublisher
	now    func() time.Time
}

// NewService creates booking service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetEventPublisher sets the publisher notified after confirmed writes (optional)
func (s *Service) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// SetClock overrides the clock used for updatedAt/decidedAt.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create stores a new pending booking for seekerID.
// A booking whose location does not normalize is rejected.
func (s *Service) Create(ctx context.Context, seekerID string, req *CreateRequest) (*Booking, error) {
	if seekerID == "" {
		return nil, ErrNotSeeker
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" {
		return nil, ErrProviderRequired
	}
	if providerID == seekerID {
		return nil, ErrSelfBooking
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount < 0 {
		return nil, ErrInvalidAmount
	}

	point, err := geo.Normalize(req.locationRecord())
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &Booking{
		SeekerID:     seekerID,
		ProviderID:   providerID,
		JobTitle:     strings.TrimSpace(req.JobTitle),
		Description:  req.Description,
		Address:      req.Address,
		Amount:       req.Amount,
		Location:     &point,
		Status:       StatusPending,
		UpdatedAt:    now,
		SeekerName:   req.SeekerName,
		ProviderName: req.ProviderName,
	}
	if req.ScheduleDate != nil {
		b.ScheduleDate = req.ScheduleDate.UTC()
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID).
		Str("seeker_id", b.SeekerID).
		Str("provider_id", b.ProviderID).
		Msg("Booking created")

	s.publish(ctx, eventFor(b, EventCreated, now))
	return b, nil
}

// Transition moves a pending booking to accepted or declined on behalf of
// actorID, which must be the booking's provider.
//
// Re-applying the stored decision succeeds without a write. Requesting the
// other terminal status fails with ErrInvalidTransition and leaves the record
// untouched. Success is only returned once the store has confirmed the write.
func (s *Service) Transition(ctx context.Context, bookingID string, target Status, actorID string) (*TransitionResult, error) {
	if !target.IsTerminal() {
		return nil, ErrInvalidStatus
	}

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != actorID {
		return nil, ErrNotAssignedProvider
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		if b.Status == target {
			return &TransitionResult{Booking: b, Changed: false}, nil
		}
		if !b.CanTransitionTo(target) {
			return nil, ErrInvalidTransition
		}

		at := s.now().UTC()
		applied, err := s.repo.UpdateStatus(ctx, bookingID, b.Status, target, at)
		if err != nil {
			return nil, err
		}
		if applied {
			b.Status = target
			b.UpdatedAt = at
			b.DecidedAt = &at

			log.Info().
				Str("booking_id", b.ID).
				Str("provider_id", actorID).
				Str("status", string(target)).
				Msg("Booking decided")

			s.publish(ctx, eventFor(b, decisionEvent(target), at))
			return &TransitionResult{Booking: b, Changed: true}, nil
		}

		// Another device decided first; evaluate against what it stored.
		if b, err = s.load(ctx, bookingID); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: status write was not applied after %d attempts", ErrStoreUnavailable, maxTransitionAttempts)
}

// UpdateDetails lets the seeker edit descriptive fields, amount and schedule
// while the booking is pending.
func (s *Service) UpdateDetails(ctx context.Context, seekerID, bookingID string, req *UpdateDetailsRequest) (*Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.SeekerID != seekerID {
		return nil, ErrNotSeeker
	}
	if !b.IsPending() {
		return nil, ErrNotEditable
	}

	now := s.now().UTC()
	patch := recordstore.Document{fieldUpdatedAt: now}
	if req.JobTitle != nil {
		b.JobTitle = strings.TrimSpace(*req.JobTitle)
		patch[fieldJobTitle] = b.JobTitle
	}
	if req.Description != nil {
		b.Description = *req.Description
		patch[fieldDescription] = b.Description
	}
	if req.Address != nil {
		b.Address = *req.Address
		patch[fieldAddress] = b.Address
	}
	if req.Amount != nil {
		if math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0) || *req.Amount < 0 {
			return nil, ErrInvalidAmount
		}
		b.Amount = *req.Amount
		patch[fieldAmount] = b.Amount
	}
	if req.ScheduleDate != nil {
		b.ScheduleDate = req.ScheduleDate.UTC()
		patch[fieldScheduleDate] = b.ScheduleDate
	}

	applied, err := s.repo.UpdateDetails(ctx, bookingID, patch)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrNotEditable
	}
	b.UpdatedAt = now

	s.publish(ctx, eventFor(b, EventUpdated, now))
	return b, nil
}

// GetByID returns booking by ID
func (s *Service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.load(ctx, id)
}

// GetForActor returns the booking if actorID is its seeker or provider.
func (s *Service) GetForActor(ctx context.Context, id, actorID string) (*Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	return b, nil
}

// ListForViewer returns every booking owned by viewerID on the given side.
// An unknown role owns nothing.
func (s *Service) ListForViewer(ctx context.Context, role Role, viewerID string) ([]*Booking, error) {
	switch role {
	case RoleProvider:
		return s.repo.ListByProvider(ctx, viewerID)
	case RoleSeeker:
		return s.repo.ListBySeeker(ctx, viewerID)
	default:
		return []*Booking{}, nil
	}
}

func (s *Service) load(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// publish never fails the caller; the write it reports is already durable.
func (s *Service) publish(ctx context.Context, event Event) {
	if s.events == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.events.PublishBookingEvent(pubCtx, event); err != nil {
		log.Warn().
			Err(err).
			Str("booking_id", event.BookingID).
			Str("event", event.Type).
			Msg("Failed to publish booking event")
	}
}
