package booking

import (
	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// ExecuteIntentRequest is the canonical write payload. Both channels (voice
// gateway, resident UI backend) send the same shape; per-kind required
// fields are enforced by Intent.Validate.
type ExecuteIntentRequest struct {
	Intent          string    `json:"intent" validate:"required,intent_kind"`
	BuildingID      string    `json:"building_id,omitempty"`
	UserID          uuid.UUID `json:"user_id" validate:"required"`
	Amenity         string    `json:"amenity,omitempty"`
	Date            string    `json:"date,omitempty" validate:"omitempty,bdate"`
	Time            string    `json:"time,omitempty" validate:"omitempty,clock"`
	DurationMinutes int       `json:"duration_minutes,omitempty" validate:"gte=0"`
	BookingID       uuid.UUID `json:"booking_id,omitempty"`
}

// ToIntent converts the wire payload to the engine's intent
func (r *ExecuteIntentRequest) ToIntent() *Intent {
	return &Intent{
		Kind:            Kind(r.Intent),
		BuildingID:      r.BuildingID,
		UserID:          r.UserID,
		Amenity:         r.Amenity,
		Date:            r.Date,
		Time:            r.Time,
		DurationMinutes: r.DurationMinutes,
		BookingID:       r.BookingID,
	}
}

// CancelBookingRequest cancels a booking owned by the user
type CancelBookingRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// FreeInterval renders one free slot with wall-clock times
type FreeInterval struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailabilityResponse lists the free intervals of an amenity for one day
type AvailabilityResponse struct {
	AmenityID  uuid.UUID      `json:"amenity_id"`
	BuildingID string         `json:"building_id"`
	Date       string         `json:"date"`
	Free       []FreeInterval `json:"free"`
}

func toFreeIntervals(intervals []timeslot.Interval) []FreeInterval {
	out := make([]FreeInterval, len(intervals))
	for i, iv := range intervals {
		out[i] = FreeInterval{
			StartTime: timeslot.FormatClock(iv.Start),
			EndTime:   timeslot.FormatClock(iv.End),
		}
	}
	return out
}

// BookingItem renders a ledger row for resident-facing listings
type BookingItem struct {
	BookingID   uuid.UUID `json:"booking_id"`
	BuildingID  string    `json:"building_id"`
	AmenityID   uuid.UUID `json:"amenity_id"`
	AmenityName string    `json:"amenity_name"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Status      Status    `json:"status"`
}

func toBookingItems(rows []*BookingWithAmenity) []BookingItem {
	out := make([]BookingItem, len(rows))
	for i, row := range rows {
		out[i] = BookingItem{
			BookingID:   row.ID,
			BuildingID:  row.BuildingID,
			AmenityID:   row.AmenityID,
			AmenityName: row.AmenityName,
			Date:        row.Day.Format(DateFormat),
			StartTime:   timeslot.FormatClock(row.StartMinute),
			EndTime:     timeslot.FormatClock(row.EndMinute),
			Status:      row.Status,
		}
	}
	return out
}
