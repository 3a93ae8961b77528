package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// Kind tags the two intent variants the engine understands
type Kind string

const (
	KindBookAmenity   Kind = "BOOK_AMENITY"
	KindCancelBooking Kind = "CANCEL_BOOKING"
)

// Intent is a normalized booking request, independent of whether it came
// from the voice channel or the resident UI. It is consumed once by the
// engine and never persisted.
type Intent struct {
	Kind       Kind
	BuildingID string
	UserID     uuid.UUID

	// BOOK_AMENITY fields. Amenity holds either an amenity id or a spoken
	// name resolved within the building.
	Amenity         string
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	DurationMinutes int    // optional; rule default applies when zero

	// CANCEL_BOOKING fields
	BookingID uuid.UUID
}

// Validate checks required fields per intent kind. It runs before any
// storage access, so a malformed intent never reaches the ledger.
func (in *Intent) Validate() error {
	if in.UserID == uuid.Nil {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}

	switch in.Kind {
	case KindBookAmenity:
		if in.BuildingID == "" {
			return &ValidationError{Field: "building_id", Reason: "required"}
		}
		if in.Amenity == "" {
			return &ValidationError{Field: "amenity", Reason: "required"}
		}
		if in.Date == "" {
			return &ValidationError{Field: "date", Reason: "required"}
		}
		if _, err := time.Parse(DateFormat, in.Date); err != nil {
			return &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
		}
		if in.Time == "" {
			return &ValidationError{Field: "time", Reason: "required"}
		}
		if _, err := timeslot.ParseClock(in.Time); err != nil {
			return &ValidationError{Field: "time", Reason: "expected HH:MM (24-hour)"}
		}
		if in.DurationMinutes < 0 {
			return &ValidationError{Field: "duration_minutes", Reason: "must be positive"}
		}
		return nil

	case KindCancelBooking:
		if in.BookingID == uuid.Nil {
			return &ValidationError{Field: "booking_id", Reason: "required"}
		}
		return nil

	default:
		return &ValidationError{Field: "intent", Reason: "must be BOOK_AMENITY or CANCEL_BOOKING"}
	}
}
