package dispatch

import (
	"github.com/handyhub/dispatch-api/internal/domain/booking"
)

// EntryResponse represents a board entry in API response
type EntryResponse struct {
	Booking           *booking.BookingResponse `json:"booking"`
	MapAvailable      bool                     `json:"mapAvailable"`
	CounterpartID     string                   `json:"counterpartId"`
	CounterpartName   string                   `json:"counterpartName"`
	CounterpartAvatar string                   `json:"counterpartAvatar,omitempty"`
}

// BoardResponse represents a dispatch board in API response
type BoardResponse struct {
	Role           string           `json:"role"`
	ActionsAllowed bool             `json:"actionsAllowed"`
	Actionable     []*EntryResponse `json:"actionable"`
	History        []*EntryResponse `json:"history"`
}

// BoardResponseFromEntity converts a board to response DTO
func BoardResponseFromEntity(b *Board) *BoardResponse {
	return &BoardResponse{
		Role:           string(b.Role),
		ActionsAllowed: b.ActionsAllowed,
		Actionable:     entriesResponse(b.Actionable),
		History:        entriesResponse(b.History),
	}
}

func entriesResponse(entries []Entry) []*EntryResponse {
	out := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = &EntryResponse{
			Booking:           booking.BookingResponseFromEntity(e.Booking),
			MapAvailable:      e.MapAvailable,
			CounterpartID:     e.CounterpartID,
			CounterpartName:   e.CounterpartName,
			CounterpartAvatar: e.CounterpartAvatar,
		}
	}
	return out
}
