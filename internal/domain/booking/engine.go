package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/domain/amenity"
	"github.com/amenio/amenio-api/internal/domain/building"
	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// RuleStore is the read-only slice of the amenity repository the engine
// needs at decision time.
type RuleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*amenity.Amenity, error)
	GetByName(ctx context.Context, buildingID, name string) (*amenity.Amenity, error)
	ListRules(ctx context.Context, amenityID uuid.UUID) ([]*amenity.Rule, error)
}

// BuildingStore resolves building timezones for advance-notice checks
type BuildingStore interface {
	GetByID(ctx context.Context, id string) (*building.Building, error)
}

// Publisher receives successful decisions for the live feed. Publishing is
// best effort and never affects the decision outcome.
type Publisher interface {
	BookingConfirmed(ctx context.Context, b *Booking)
	BookingCancelled(ctx context.Context, b *Booking)
}

// Result is the engine's answer to a successful intent
type Result struct {
	BookingID uuid.UUID `json:"booking_id"`
	Status    Status    `json:"status"`
	AmenityID uuid.UUID `json:"amenity_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// Engine decides booking intents. It holds no persistent state of its own;
// it is a transactional function over the rule store and the ledger.
type Engine struct {
	ledger    Ledger
	rules     RuleStore
	buildings BuildingStore
	pub       Publisher
	locks     *keyedMutex
	now       func() time.Time
}

// NewEngine creates the booking decision engine
func NewEngine(ledger Ledger, rules RuleStore, buildings BuildingStore, pub Publisher) *Engine {
	return &Engine{
		ledger:    ledger,
		rules:     rules,
		buildings: buildings,
		pub:       pub,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// Decide validates the intent and applies it against the ledger
func (e *Engine) Decide(ctx context.Context, intent *Intent) (*Result, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	switch intent.Kind {
	case KindBookAmenity:
		return e.book(ctx, intent)
	case KindCancelBooking:
		return e.cancel(ctx, intent)
	default:
		// Unreachable after Validate, kept for exhaustiveness
		return nil, &ValidationError{Field: "intent", Reason: "unsupported intent kind"}
	}
}

func (e *Engine) book(ctx context.Context, intent *Intent) (*Result, error) {
	a, err := e.resolveAmenity(ctx, intent)
	if err != nil {
		return nil, err
	}

	rules, err := e.rules.ListRules(ctx, a.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(rules) == 0 {
		return nil, ErrUnknownAmenity
	}

	day, _ := time.Parse(DateFormat, intent.Date)
	startMinute, _ := timeslot.ParseClock(intent.Time)

	duration := intent.DurationMinutes
	if duration == 0 {
		duration = rules[0].DefaultDurationMinutes
	}
	requested := timeslot.Interval{Start: startMinute, End: startMinute + duration}
	if !requested.Valid() {
		return nil, &RuleViolationError{
			RuleID: rules[0].ID,
			Reason: "booking must start and end within the same day",
		}
	}

	loc, err := e.buildingLocation(ctx, intent.BuildingID)
	if err != nil {
		return nil, err
	}

	// Rules compose with AND semantics; the first violation in creation
	// order wins so error messages are reproducible.
	for _, rule := range rules {
		if reason := e.checkRule(rule, requested, day, loc); reason != "" {
			return nil, &RuleViolationError{RuleID: rule.ID, Reason: reason}
		}
	}

	// Exclusive section per (amenity, building, day). The keyed mutex keeps
	// in-process contenders from piling up on the database; the advisory
	// lock inside the transaction is what makes the overlap check and
	// insert atomic across API instances.
	key := slotKey{amenityID: a.ID, buildingID: intent.BuildingID, day: intent.Date}
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	b := &Booking{
		ID:          uuid.New(),
		BuildingID:  intent.BuildingID,
		AmenityID:   a.ID,
		UserID:      intent.UserID,
		Day:         day,
		StartMinute: requested.Start,
		EndMinute:   requested.End,
		Status:      StatusConfirmed,
		CreatedAt:   e.now().UTC(),
	}

	err = e.ledger.WithTx(ctx, func(tx Ledger) error {
		if err := tx.LockSlot(ctx, a.ID, intent.BuildingID, day); err != nil {
			return err
		}
		existing, err := tx.ListConfirmedForDay(ctx, a.ID, intent.BuildingID, day)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if requested.Overlaps(other.Interval()) {
				return &SlotConflictError{BookingID: other.ID, Conflict: other.Interval()}
			}
		}
		return tx.Create(ctx, b)
	})
	if err != nil {
		var conflict *SlotConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, storageErr(err)
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("amenity_id", a.ID.String()).
		Str("building_id", b.BuildingID).
		Str("slot", requested.String()).
		Msg("Booking confirmed")

	if e.pub != nil {
		e.pub.BookingConfirmed(ctx, b)
	}

	return resultFor(b), nil
}

func (e *Engine) cancel(ctx context.Context, intent *Intent) (*Result, error) {
	b, err := e.ledger.GetByID(ctx, intent.BookingID)
	if err != nil {
		return nil, storageErr(err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	if b.UserID != intent.UserID {
		return nil, ErrForbidden
	}
	if b.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	// The conditional update decides races between concurrent cancels:
	// whoever loses sees zero rows and gets the idempotency rejection.
	if err := e.ledger.MarkCancelled(ctx, b.ID); err != nil {
		if errors.Is(err, ErrAlreadyCancelled) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	b.Status = StatusCancelled

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("amenity_id", b.AmenityID.String()).
		Msg("Booking cancelled")

	if e.pub != nil {
		e.pub.BookingCancelled(ctx, b)
	}

	return resultFor(b), nil
}

// resolveAmenity accepts either an amenity id or a spoken name scoped to
// the building. Inactive amenities and building mismatches are treated as
// unknown rather than leaked.
func (e *Engine) resolveAmenity(ctx context.Context, intent *Intent) (*amenity.Amenity, error) {
	if id, err := uuid.Parse(intent.Amenity); err == nil {
		a, err := e.rules.GetByID(ctx, id)
		if err != nil {
			return nil, storageErr(err)
		}
		if a != nil && a.IsActive && a.BuildingID == intent.BuildingID {
			return a, nil
		}
	}

	a, err := e.rules.GetByName(ctx, intent.BuildingID, intent.Amenity)
	if err != nil {
		return nil, storageErr(err)
	}
	if a == nil {
		return nil, ErrUnknownAmenity
	}
	return a, nil
}

func (e *Engine) buildingLocation(ctx context.Context, buildingID string) (*time.Location, error) {
	b, err := e.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, storageErr(err)
	}
	return b.Location(), nil
}

// checkRule returns the violation reason, or "" when the rule passes.
// Checks run in a fixed order: allowed hours, max duration, advance notice.
func (e *Engine) checkRule(rule *amenity.Rule, requested timeslot.Interval, day time.Time, loc *time.Location) string {
	window := timeslot.Interval{Start: rule.OpenMinute, End: rule.CloseMinute}
	if !window.Contains(requested) {
		return fmt.Sprintf("outside allowed hours (%s - %s)",
			timeslot.FormatClock(rule.OpenMinute), timeslot.FormatClock(rule.CloseMinute))
	}

	if requested.Duration() > rule.MaxDurationMinutes {
		return fmt.Sprintf("duration exceeds maximum of %d minutes", rule.MaxDurationMinutes)
	}

	now := e.now().In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).
		Add(time.Duration(requested.Start) * time.Minute)

	if start.Before(now) {
		return "requested time is in the past"
	}
	if rule.MinNoticeMinutes > 0 && start.Before(now.Add(time.Duration(rule.MinNoticeMinutes)*time.Minute)) {
		return fmt.Sprintf("requires at least %d minutes notice", rule.MinNoticeMinutes)
	}
	if start.After(now.AddDate(0, 0, rule.MaxNoticeDays)) {
		return fmt.Sprintf("exceeds advance booking window (%d days)", rule.MaxNoticeDays)
	}

	return ""
}

func resultFor(b *Booking) *Result {
	return &Result{
		BookingID: b.ID,
		Status:    b.Status,
		AmenityID: b.AmenityID,
		Date:      b.Day.Format(DateFormat),
		StartTime: timeslot.FormatClock(b.StartMinute),
		EndTime:   timeslot.FormatClock(b.EndMinute),
	}
}
