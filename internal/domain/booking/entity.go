package booking

import (
	"time"

	"github.com/handyhub/dispatch-api/internal/domain/geo"
)

// Status is the seeker -> provider decision state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is defined from s.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Role is the viewer side of a booking.
type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleProvider Role = "provider"
)

// Booking is one seeker's request directed at one provider.
type Booking struct {
	ID         string
	SeekerID   string
	ProviderID string

	JobTitle    string
	Description string
	Address     string
	Amount      float64

	// Location is nil when the stored coordinates do not normalize.
	Location *geo.Point

	Status       Status
	ScheduleDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DecidedAt    *time.Time

	// Set by a later completion flow; nil before then.
	Rating *float64
	Review *string

	// Display copies of profile names; allowed to go stale.
	SeekerName   string
	ProviderName string
}

// IsPending returns true if the provider has not decided yet
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// HasLocation returns true if the booking can be shown on a map
func (b *Booking) HasLocation() bool {
	return b.Location != nil
}

// CanTransitionTo checks if status transition is valid
func (b *Booking) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:  {StatusAccepted, StatusDeclined},
		StatusAccepted: {},
		StatusDeclined: {},
	}

	for _, s := range transitions[b.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsParticipant reports whether actorID is the booking's seeker or provider.
func (b *Booking) IsParticipant(actorID string) bool {
	return actorID != "" && (actorID == b.SeekerID || actorID == b.ProviderID)
}
