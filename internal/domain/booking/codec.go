package booking

import (
	"fmt"
	"time"

	"github.com/handyhub/dispatch-api/internal/domain/geo"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
)

// Collection is the record store collection holding bookings.
const Collection = "bookings"

// Stored field names.
const (
	fieldID           = recordstore.IDField
	fieldCreatedAt    = recordstore.CreatedAtField
	fieldSeekerID     = "seekerId"
	fieldProviderID   = "providerId"
	fieldJobTitle     = "jobTitle"
	fieldDescription  = "description"
	fieldAddress      = "address"
	fieldAmount       = "amount"
	fieldLatitude     = "latitude"
	fieldLongitude    = "longitude"
	fieldStatus       = "status"
	fieldScheduleDate = "scheduleDate"
	fieldUpdatedAt    = "updatedAt"
	fieldDecidedAt    = "decidedAt"
	fieldRating       = "rating"
	fieldReview       = "review"
	fieldSeekerName   = "seekerName"
	fieldProviderName = "providerName"
)

// IndexedFields are the fields bookings are queried by.
var IndexedFields = []string{fieldSeekerID, fieldProviderID, fieldStatus}

// toDocument serializes a new booking. id and createdAt are left to the store.
// Flat latitude/longitude are mirrored for readers that predate the nested form.
func toDocument(b *Booking) recordstore.Document {
	doc := recordstore.Document{
		fieldSeekerID:    b.SeekerID,
		fieldProviderID:  b.ProviderID,
		fieldJobTitle:    b.JobTitle,
		fieldDescription: b.Description,
		fieldAddress:     b.Address,
		fieldAmount:      b.Amount,
		fieldStatus:      string(b.Status),
		fieldUpdatedAt:   b.UpdatedAt.UTC(),
	}
	if b.Location != nil {
		doc[geo.LocationField] = b.Location.Fields()
		doc[fieldLatitude] = b.Location.Latitude
		doc[fieldLongitude] = b.Location.Longitude
	}
	if !b.ScheduleDate.IsZero() {
		doc[fieldScheduleDate] = b.ScheduleDate.UTC()
	}
	if b.SeekerName != "" {
		doc[fieldSeekerName] = b.SeekerName
	}
	if b.ProviderName != "" {
		doc[fieldProviderName] = b.ProviderName
	}
	return doc
}

// fromDocument validates a stored record into a Booking. Identity, status and
// timestamps must be well formed; bad coordinates only clear Location.
func fromDocument(doc recordstore.Document) (*Booking, error) {
	b := &Booking{}
	var err error

	if b.ID, err = requiredString(doc, fieldID); err != nil {
		return nil, err
	}
	if b.SeekerID, err = requiredString(doc, fieldSeekerID); err != nil {
		return nil, err
	}
	if b.ProviderID, err = requiredString(doc, fieldProviderID); err != nil {
		return nil, err
	}

	status, err := requiredString(doc, fieldStatus)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	if !b.Status.Valid() {
		return nil, corrupt(fieldStatus)
	}

	if b.CreatedAt, err = requiredTime(doc, fieldCreatedAt); err != nil {
		return nil, err
	}

	b.JobTitle, _ = doc[fieldJobTitle].(string)
	b.Description, _ = doc[fieldDescription].(string)
	b.Address, _ = doc[fieldAddress].(string)
	b.SeekerName, _ = doc[fieldSeekerName].(string)
	b.ProviderName, _ = doc[fieldProviderName].(string)

	if raw, ok := doc[fieldAmount]; ok && raw != nil {
		amount, ok := asFloat(raw)
		if !ok || amount < 0 {
			return nil, corrupt(fieldAmount)
		}
		b.Amount = amount
	}

	if p, err := geo.Normalize(doc); err == nil {
		b.Location = &p
	}

	if t, ok := asTime(doc[fieldScheduleDate]); ok {
		b.ScheduleDate = t
	}
	if t, ok := asTime(doc[fieldUpdatedAt]); ok {
		b.UpdatedAt = t
	}
	if t, ok := asTime(doc[fieldDecidedAt]); ok {
		b.DecidedAt = &t
	}
	if r, ok := asFloat(doc[fieldRating]); ok {
		b.Rating = &r
	}
	if r, ok := doc[fieldReview].(string); ok {
		b.Review = &r
	}

	return b, nil
}

func corrupt(field string) error {
	return fmt.Errorf("%w: field %q", ErrCorruptRecord, field)
}

func requiredString(doc recordstore.Document, field string) (string, error) {
	s, ok := doc[field].(string)
	if !ok || s == "" {
		return "", corrupt(field)
	}
	return s, nil
}

func requiredTime(doc recordstore.Document, field string) (time.Time, error) {
	t, ok := asTime(doc[field])
	if !ok {
		return time.Time{}, corrupt(field)
	}
	return t, nil
}

// asTime accepts time.Time, RFC 3339 strings (JSON backends) and driver
// date types exposing Time().
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	case interface{ Time() time.Time }:
		return t.Time().UTC(), true
	default:
		return time.Time{}, false
	}
}

func asFloat(v any) (float64, bool) {
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
