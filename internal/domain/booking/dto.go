package booking

import (
	"time"
)

// LocationInput is the nested coordinate object of a request.
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateRequest for POST /bookings
// Older clients send flat latitude/longitude instead of location.
type CreateRequest struct {
	ProviderID   string         `json:"providerId" validate:"required,notblank,max=128"`
	JobTitle     string         `json:"jobTitle" validate:"required,notblank,max=200"`
	Description  string         `json:"description" validate:"omitempty,max=4000"`
	Address      string         `json:"address" validate:"omitempty,max=500"`
	Amount       float64        `json:"amount" validate:"gte=0"`
	Location     *LocationInput `json:"location"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	ScheduleDate *time.Time     `json:"scheduleDate"`
	SeekerName   string         `json:"seekerName" validate:"omitempty,max=200"`
	ProviderName string         `json:"providerName" validate:"omitempty,max=200"`
}

// locationRecord rebuilds the raw record shape the GeoPoint validator expects.
func (r *CreateRequest) locationRecord() map[string]any {
	record := map[string]any{}
	if r.Location != nil {
		nested := map[string]any{}
		if r.Location.Latitude != nil {
			nested["latitude"] = *r.Location.Latitude
		}
		if r.Location.Longitude != nil {
			nested["longitude"] = *r.Location.Longitude
		}
		record["location"] = nested
	}
	if r.Latitude != nil {
		record["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		record["longitude"] = *r.Longitude
	}
	return record
}

// UpdateDetailsRequest for PATCH /bookings/{id}
type UpdateDetailsRequest struct {
	JobTitle     *string    `json:"jobTitle" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=4000"`
	Address      *string    `json:"address" validate:"omitempty,max=500"`
	Amount       *float64   `json:"amount" validate:"omitempty,gte=0"`
	ScheduleDate *time.Time `json:"scheduleDate"`
}

// UpdateStatusRequest for PATCH /bookings/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,decision"`
}

// LocationResponse is the canonical nested location
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BookingResponse represents booking in API response
type BookingResponse struct {
	ID           string            `json:"id"`
	SeekerID     string            `json:"seekerId"`
	ProviderID   string            `json:"providerId"`
	JobTitle     string            `json:"jobTitle"`
	Description  string            `json:"description,omitempty"`
	Address      string            `json:"address,omitempty"`
	Amount       float64           `json:"amount"`
	Location     *LocationResponse `json:"location,omitempty"`
	MapAvailable bool              `json:"mapAvailable"`
	Status       string            `json:"status"`
	ScheduleDate *string           `json:"scheduleDate,omitempty"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    *string           `json:"updatedAt,omitempty"`
	DecidedAt    *string           `json:"decidedAt,omitempty"`
	Rating       *float64          `json:"rating,omitempty"`
	Review       *string           `json:"review,omitempty"`
	SeekerName   string            `json:"seekerName,omitempty"`
	ProviderName string            `json:"providerName,omitempty"`
}

// TransitionResponse is returned by PATCH /bookings/{id}/status.
// Changed is false when the same decision had already been stored.
type TransitionResponse struct {
	Booking *BookingResponse `json:"booking"`
	Changed bool             `json:"changed"`
}

// BookingResponseFromEntity converts entity to response DTO
func BookingResponseFromEntity(b *Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:           b.ID,
		SeekerID:     b.SeekerID,
		ProviderID:   b.ProviderID,
		JobTitle:     b.JobTitle,
		Description:  b.Description,
		Address:      b.Address,
		Amount:       b.Amount,
		MapAvailable: b.HasLocation(),
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		Rating:       b.Rating,
		Review:       b.Review,
		SeekerName:   b.SeekerName,
		ProviderName: b.ProviderName,
	}

	if b.Location != nil {
		resp.Location = &LocationResponse{Latitude: b.Location.Latitude, Longitude: b.Location.Longitude}
	}
	if !b.ScheduleDate.IsZero() {
		s := b.ScheduleDate.Format(time.RFC3339)
		resp.ScheduleDate = &s
	}
	if !b.UpdatedAt.IsZero() {
		s := b.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &s
	}
	if b.DecidedAt != nil {
		s := b.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}

	return resp
}
