package geo

// LocationField is the nested location object in a stored record.
const LocationField = "location"

// Normalize resolves a record's coordinates into a Point.
// A nested location object is authoritative when present, even if invalid.
// Flat latitude/longitude fields are only read when it is absent; they come
// from records written before the nested form existed.
func Normalize(record map[string]any) (Point, error) {
	if record == nil {
		return Point{}, ErrInvalidLocation
	}

	if raw, present := record[LocationField]; present && raw != nil {
		nested, ok := raw.(map[string]any)
		if !ok {
			return Point{}, ErrInvalidLocation
		}
		return fromFields(nested)
	}

	return fromFields(record)
}

func fromFields(fields map[string]any) (Point, error) {
	lat, ok := number(fields["latitude"])
	if !ok {
		return Point{}, ErrInvalidLocation
	}
	lng, ok := number(fields["longitude"])
	if !ok {
		return Point{}, ErrInvalidLocation
	}
	return New(lat, lng)
}

// number accepts numeric kinds only; strings are not parsed.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
