package geo

import (
	"errors"
	"math"
)

// ErrInvalidLocation is returned for missing, non-numeric, NaN or out-of-range coordinates.
var ErrInvalidLocation = errors.New("invalid location")

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Point is a validated WGS 84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// New builds a Point, rejecting anything Validate would reject.
func New(latitude, longitude float64) (Point, error) {
	p := Point{Latitude: latitude, Longitude: longitude}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks range and finiteness. Out-of-range values are never clamped.
func (p Point) Validate() error {
	if !validAxis(p.Latitude, MinLatitude, MaxLatitude) {
		return ErrInvalidLocation
	}
	if !validAxis(p.Longitude, MinLongitude, MaxLongitude) {
		return ErrInvalidLocation
	}
	return nil
}

// Fields returns the nested document form used by the record store.
func (p Point) Fields() map[string]any {
	return map[string]any{
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
	}
}

func validAxis(v, min, max float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= min && v <= max
}
