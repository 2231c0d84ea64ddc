package booking

import "errors"

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("booking was already decided")
	ErrInvalidStatus       = errors.New("status must be accepted or declined")
	ErrStoreUnavailable    = errors.New("booking store unavailable")
	ErrNotAssignedProvider = errors.New("only the assigned provider can decide this booking")
	ErrNotSeeker           = errors.New("only the requesting seeker can edit this booking")
	ErrNotParticipant      = errors.New("booking belongs to other users")
	ErrNotEditable         = errors.New("booking can only be edited while pending")
	ErrInvalidAmount       = errors.New("amount must be a non-negative number")
	ErrSelfBooking         = errors.New("cannot book yourself")
	ErrProviderRequired    = errors.New("providerId is required")
	ErrCorruptRecord       = errors.New("stored booking is malformed")
)
