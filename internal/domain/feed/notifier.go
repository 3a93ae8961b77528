package feed

import (
	"context"

	"github.com/amenio/amenio-api/internal/domain/booking"
	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// Notifier translates booking decisions into feed events. It satisfies the
// engine's publisher contract; failures stay inside the hub and never reach
// the decision path.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates the feed notifier
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// BookingConfirmed publishes a confirmation to the building's feed
func (n *Notifier) BookingConfirmed(ctx context.Context, b *booking.Booking) {
	n.hub.Broadcast(ctx, eventFor(EventBookingConfirmed, b))
}

// BookingCancelled publishes a cancellation to the building's feed
func (n *Notifier) BookingCancelled(ctx context.Context, b *booking.Booking) {
	n.hub.Broadcast(ctx, eventFor(EventBookingCancelled, b))
}

func eventFor(t EventType, b *booking.Booking) *Event {
	return &Event{
		Type:       t,
		BookingID:  b.ID,
		BuildingID: b.BuildingID,
		AmenityID:  b.AmenityID,
		UserID:     b.UserID,
		Date:       b.Day.Format(booking.DateFormat),
		StartTime:  timeslot.FormatClock(b.StartMinute),
		EndTime:    timeslot.FormatClock(b.EndMinute),
	}
}
