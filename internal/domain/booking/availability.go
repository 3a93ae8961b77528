package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// Calculator derives free intervals for an amenity on a given day. Pure
// read: it takes no locks, so a slot may be taken between an availability
// check and the booking attempt. The engine's conflict check at commit time
// resolves that race, not this path.
type Calculator struct {
	rules  RuleStore
	ledger Ledger
}

// NewCalculator creates the availability calculator
func NewCalculator(rules RuleStore, ledger Ledger) *Calculator {
	return &Calculator{rules: rules, ledger: ledger}
}

// FreeIntervals returns the maximal disjoint free intervals for the day in
// chronological order: the union of the amenity's rule windows minus every
// CONFIRMED booking.
func (c *Calculator) FreeIntervals(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) ([]timeslot.Interval, error) {
	a, err := c.rules.GetByID(ctx, amenityID)
	if err != nil {
		return nil, storageErr(err)
	}
	if a == nil || !a.IsActive || a.BuildingID != buildingID {
		return nil, ErrUnknownAmenity
	}

	rules, err := c.rules.ListRules(ctx, a.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(rules) == 0 {
		return nil, ErrUnknownAmenity
	}

	windows := make([]timeslot.Interval, 0, len(rules))
	for _, rule := range rules {
		windows = append(windows, timeslot.Interval{Start: rule.OpenMinute, End: rule.CloseMinute})
	}

	bookings, err := c.ledger.ListConfirmedForDay(ctx, a.ID, buildingID, day)
	if err != nil {
		return nil, storageErr(err)
	}

	busy := make([]timeslot.Interval, 0, len(bookings))
	for _, b := range bookings {
		busy = append(busy, b.Interval())
	}

	return timeslot.Subtract(windows, busy), nil
}
