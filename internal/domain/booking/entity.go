package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// Status represents the lifecycle state of a booking
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is a ledger entry for one amenity slot. Rows are never deleted;
// cancellation flips the status and keeps the row for history.
type Booking struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BuildingID  string    `db:"building_id" json:"building_id"`
	AmenityID   uuid.UUID `db:"amenity_id" json:"amenity_id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Day         time.Time `db:"day" json:"day"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Interval returns the booked [start, end) range within the day
func (b *Booking) Interval() timeslot.Interval {
	return timeslot.Interval{Start: b.StartMinute, End: b.EndMinute}
}

// BookingWithAmenity is a ledger row joined with its amenity name, for
// resident-facing listings.
type BookingWithAmenity struct {
	Booking
	AmenityName string `db:"amenity_name" json:"amenity_name"`
}

// DateFormat is the wire format for booking days
const DateFormat = "2006-01-02"
