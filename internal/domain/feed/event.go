package feed

import (
	"github.com/google/uuid"
)

// EventType for live feed messages
type EventType string

const (
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingCancelled EventType = "booking_cancelled"
	EventBookingReminder  EventType = "booking_reminder"
)

// Event is one entry in a building's live booking feed. Concierge screens
// and resident apps subscribe per building and render these as they arrive.
type Event struct {
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	BuildingID string    `json:"building_id"`
	AmenityID  uuid.UUID `json:"amenity_id"`
	UserID     uuid.UUID `json:"user_id,omitempty"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
}
