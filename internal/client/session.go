package client

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/dispatch"
	"github.com/handyhub/dispatch-api/internal/pkg/refresh"
)

// Session is one device's view of the dispatch board.
//
// Reloads are coalesced by the refresher. Decisions remove the entry from the
// actionable list at once and put it back if the server does not confirm.
// The actionable list follows only applied boards, so a reload that started
// before a confirmed decision never brings the decided entry back.
type Session struct {
	client     *Client
	board      *refresh.Refresher[*dispatch.BoardResponse]
	actionable *refresh.List[*dispatch.EntryResponse]
}

// NewSession creates a session around c.
func NewSession(c *Client) *Session {
	s := &Session{
		client:     c,
		actionable: refresh.NewList[*dispatch.EntryResponse](nil),
	}
	s.board = refresh.WithRefresh(s.load)
	s.board.OnApply(func(board *dispatch.BoardResponse) {
		s.actionable.Replace(board.Actionable)
	})
	return s
}

func (s *Session) load(ctx context.Context) (*dispatch.BoardResponse, error) {
	return s.client.Board(ctx)
}

// Refresh reloads the board unless a reload is already running.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	return s.board.Trigger(ctx)
}

// IsRefreshing reports whether a reload is in flight.
func (s *Session) IsRefreshing() bool {
	return s.board.IsRefreshing()
}

// Board returns the last loaded board.
func (s *Session) Board() (*dispatch.BoardResponse, bool) {
	return s.board.Value()
}

// Actionable returns the entries currently shown as awaiting a decision.
func (s *Session) Actionable() []*dispatch.EntryResponse {
	return s.actionable.Snapshot()
}

// Decide accepts or declines a booking. The entry leaves the actionable list
// immediately; on failure it is restored and the error returned, with
// refresh.IsRetryable telling the caller whether to offer a retry.
func (s *Session) Decide(ctx context.Context, bookingID string, status booking.Status) (*booking.TransitionResponse, error) {
	var result *booking.TransitionResponse

	err := refresh.WithOptimisticTransition(ctx, s.actionable,
		func(entries []*dispatch.EntryResponse) []*dispatch.EntryResponse {
			kept := entries[:0]
			for _, e := range entries {
				if e.Booking == nil || e.Booking.ID != bookingID {
					kept = append(kept, e)
				}
			}
			return kept
		},
		func(ctx context.Context) error {
			res, err := s.client.Transition(ctx, bookingID, status)
			if err != nil {
				return err
			}
			result = res
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	s.board.Invalidate()
	if _, err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("booking_id", bookingID).Msg("Board reload after decision failed")
	}
	return result, nil
}
