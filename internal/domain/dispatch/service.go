package dispatch

import (
	"context"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/profile"
)

// BookingLister defines the booking queries the board needs
type BookingLister interface {
	ListForViewer(ctx context.Context, role booking.Role, viewerID string) ([]*booking.Booking, error)
}

// ProfileResolver returns display profiles; it never fails.
type ProfileResolver interface {
	Resolve(ctx context.Context, id, role string) profile.Profile
}

// Service builds dispatch boards
type Service struct {
	bookings BookingLister
	profiles ProfileResolver
}

// NewService creates dispatch service. profiles may be nil.
func NewService(bookings BookingLister, profiles ProfileResolver) *Service {
	return &Service{bookings: bookings, profiles: profiles}
}

// Board loads viewerID's bookings on the given side and classifies them.
// An unknown role gets an empty board.
func (s *Service) Board(ctx context.Context, role booking.Role, viewerID string) (*Board, error) {
	if role != booking.RoleProvider && role != booking.RoleSeeker {
		board := Classify(nil, role, viewerID)
		return &board, nil
	}

	bookings, err := s.bookings.ListForViewer(ctx, role, viewerID)
	if err != nil {
		return nil, err
	}

	board := Classify(bookings, role, viewerID)
	s.enrich(ctx, &board)
	return &board, nil
}

// enrich fills counterpart names, preferring the live profile over the
// display copy stored on the booking.
func (s *Service) enrich(ctx context.Context, board *Board) {
	counterpartRole := string(booking.RoleProvider)
	if board.Role == booking.RoleProvider {
		counterpartRole = string(booking.RoleSeeker)
	}

	resolved := make(map[string]profile.Profile)
	fill := func(entries []Entry) {
		for i := range entries {
			e := &entries[i]

			p, ok := resolved[e.CounterpartID]
			if !ok {
				p = profile.Placeholder(e.CounterpartID, counterpartRole)
				if s.profiles != nil {
					p = s.profiles.Resolve(ctx, e.CounterpartID, counterpartRole)
				}
				resolved[e.CounterpartID] = p
			}

			e.CounterpartAvatar = p.AvatarURL
			e.CounterpartName = p.DisplayName()
			if !p.Found {
				if stored := storedName(e.Booking, board.Role); stored != "" {
					e.CounterpartName = stored
				}
			}
		}
	}

	fill(board.Actionable)
	fill(board.History)
}

func storedName(b *booking.Booking, viewerRole booking.Role) string {
	if viewerRole == booking.RoleProvider {
		return b.SeekerName
	}
	return b.ProviderName
}
