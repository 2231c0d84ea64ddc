package dispatch

import (
	"sort"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
)

// Entry is one booking as shown on a viewer's board.
type Entry struct {
	Booking *booking.Booking

	// MapAvailable is false when the booking has no valid location.
	MapAvailable bool

	CounterpartID     string
	CounterpartName   string
	CounterpartAvatar string
}

// Board splits a viewer's bookings into what still needs a decision and
// what has been decided.
type Board struct {
	Role     booking.Role
	ViewerID string

	// Actionable holds pending bookings, oldest first.
	Actionable []Entry
	// History holds decided bookings, newest first.
	History []Entry

	// ActionsAllowed is true only for providers; a seeker's pending
	// bookings are informational.
	ActionsAllowed bool
}

// Classify builds the board for viewerID acting as role. Bookings the viewer
// does not own on that side are ignored. Pure and deterministic.
func Classify(bookings []*booking.Booking, role booking.Role, viewerID string) Board {
	board := Board{
		Role:           role,
		ViewerID:       viewerID,
		Actionable:     []Entry{},
		History:        []Entry{},
		ActionsAllowed: role == booking.RoleProvider,
	}
	if viewerID == "" {
		return board
	}

	for _, b := range bookings {
		if b == nil || !owns(b, role, viewerID) {
			continue
		}

		entry := Entry{
			Booking:       b,
			MapAvailable:  b.HasLocation(),
			CounterpartID: counterpartID(b, role),
		}
		if b.IsPending() {
			board.Actionable = append(board.Actionable, entry)
		} else {
			board.History = append(board.History, entry)
		}
	}

	sort.SliceStable(board.Actionable, func(i, j int) bool {
		return olderFirst(board.Actionable[i].Booking, board.Actionable[j].Booking)
	})
	sort.SliceStable(board.History, func(i, j int) bool {
		return newerFirst(board.History[i].Booking, board.History[j].Booking)
	})

	return board
}

func owns(b *booking.Booking, role booking.Role, viewerID string) bool {
	switch role {
	case booking.RoleProvider:
		return b.ProviderID == viewerID
	case booking.RoleSeeker:
		return b.SeekerID == viewerID
	default:
		return false
	}
}

func counterpartID(b *booking.Booking, role booking.Role) string {
	if role == booking.RoleProvider {
		return b.SeekerID
	}
	return b.ProviderID
}

// olderFirst and newerFirst order by createdAt, then ascending id.
func olderFirst(a, b *booking.Booking) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func newerFirst(a, b *booking.Booking) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
