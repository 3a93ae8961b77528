package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/domain/amenity"
	"github.com/amenio/amenio-api/internal/domain/building"
)

var errStoreDown = errors.New("connection refused")

type fakeLedger struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	bookings map[uuid.UUID]*Booking
	failing  bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{bookings: make(map[uuid.UUID]*Booking)}
}

// WithTx serializes transactions the way the slot advisory lock does in
// Postgres: one check-and-insert at a time, regardless of which engine
// instance runs it.
func (f *fakeLedger) WithTx(ctx context.Context, fn func(tx Ledger) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(f)
}

func (f *fakeLedger) LockSlot(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) error {
	if f.failing {
		return errStoreDown
	}
	return nil
}

func (f *fakeLedger) Create(ctx context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errStoreDown
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeLedger) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errStoreDown
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeLedger) ListConfirmedForDay(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) ([]*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errStoreDown
	}
	var out []*Booking
	for _, b := range f.bookings {
		if b.AmenityID == amenityID && b.BuildingID == buildingID && b.Day.Equal(day) && b.Status == StatusConfirmed {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errStoreDown
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != StatusConfirmed {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	return nil
}

func (f *fakeLedger) ListUpcomingByUser(ctx context.Context, userID uuid.UUID, buildingID string) ([]*BookingWithAmenity, error) {
	return nil, nil
}

func (f *fakeLedger) ListHistoryByUser(ctx context.Context, userID uuid.UUID, buildingID string) ([]*BookingWithAmenity, error) {
	return nil, nil
}

func (f *fakeLedger) statusOf(id uuid.UUID) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id].Status
}

type fakeRuleStore struct {
	amenities map[uuid.UUID]*amenity.Amenity
	rules     map[uuid.UUID][]*amenity.Rule
}

func (f *fakeRuleStore) GetByID(ctx context.Context, id uuid.UUID) (*amenity.Amenity, error) {
	return f.amenities[id], nil
}

func (f *fakeRuleStore) GetByName(ctx context.Context, buildingID, name string) (*amenity.Amenity, error) {
	for _, a := range f.amenities {
		if a.BuildingID == buildingID && a.IsActive && strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeRuleStore) ListRules(ctx context.Context, amenityID uuid.UUID) ([]*amenity.Rule, error) {
	return f.rules[amenityID], nil
}

type fakeBuildingStore struct {
	buildings map[string]*building.Building
}

func (f *fakeBuildingStore) GetByID(ctx context.Context, id string) (*building.Building, error) {
	return f.buildings[id], nil
}

type fakePublisher struct {
	mu        sync.Mutex
	confirmed []uuid.UUID
	cancelled []uuid.UUID
}

func (f *fakePublisher) BookingConfirmed(ctx context.Context, b *Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, b.ID)
}

func (f *fakePublisher) BookingCancelled(ctx context.Context, b *Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, b.ID)
}

type engineFixture struct {
	engine  *Engine
	ledger  *fakeLedger
	pub     *fakePublisher
	gymID   uuid.UUID
	ruleID  uuid.UUID
	userID  uuid.UUID
	otherID uuid.UUID
}

// fixedNow is well before the test booking day so notice checks pass by
// default.
var fixedNow = time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)

const (
	testBuilding = "B1"
	testDay      = "2026-02-20"
)

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	gymID := uuid.New()
	ruleID := uuid.New()

	rules := &fakeRuleStore{
		amenities: map[uuid.UUID]*amenity.Amenity{
			gymID: {ID: gymID, BuildingID: testBuilding, Name: "Gym", IsActive: true},
		},
		rules: map[uuid.UUID][]*amenity.Rule{
			gymID: {
				{
					ID:                     ruleID,
					AmenityID:              gymID,
					BuildingID:             testBuilding,
					OpenMinute:             6 * 60,
					CloseMinute:            22 * 60,
					DefaultDurationMinutes: 60,
					MaxDurationMinutes:     120,
					MaxNoticeDays:          30,
				},
			},
		},
	}

	buildings := &fakeBuildingStore{
		buildings: map[string]*building.Building{
			testBuilding: {ID: testBuilding, Name: "North Tower", Timezone: "UTC"},
		},
	}

	ledger := newFakeLedger()
	pub := &fakePublisher{}
	engine := NewEngine(ledger, rules, buildings, pub)
	engine.now = func() time.Time { return fixedNow }

	return &engineFixture{
		engine:  engine,
		ledger:  ledger,
		pub:     pub,
		gymID:   gymID,
		ruleID:  ruleID,
		userID:  uuid.New(),
		otherID: uuid.New(),
	}
}

func (fx *engineFixture) bookIntent(clock string) *Intent {
	return &Intent{
		Kind:       KindBookAmenity,
		BuildingID: testBuilding,
		UserID:     fx.userID,
		Amenity:    fx.gymID.String(),
		Date:       testDay,
		Time:       clock,
	}
}

func TestEngineBookConfirms(t *testing.T) {
	fx := newEngineFixture(t)

	result, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if result.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", result.Status)
	}
	if result.StartTime != "17:00" || result.EndTime != "18:00" {
		t.Errorf("slot = %s-%s, want 17:00-18:00", result.StartTime, result.EndTime)
	}
	if len(fx.pub.confirmed) != 1 || fx.pub.confirmed[0] != result.BookingID {
		t.Errorf("publisher confirmed = %v, want [%s]", fx.pub.confirmed, result.BookingID)
	}
}

func TestEngineBookResolvesByName(t *testing.T) {
	fx := newEngineFixture(t)

	intent := fx.bookIntent("09:00")
	intent.Amenity = "gym"

	result, err := fx.engine.Decide(context.Background(), intent)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if result.AmenityID != fx.gymID {
		t.Errorf("amenity = %s, want %s", result.AmenityID, fx.gymID)
	}
}

func TestEngineBookOverlapConflicts(t *testing.T) {
	fx := newEngineFixture(t)

	first, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err = fx.engine.Decide(context.Background(), fx.bookIntent("17:30"))
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want SlotConflictError", err)
	}
	if conflict.BookingID != first.BookingID {
		t.Errorf("conflicting booking = %s, want %s", conflict.BookingID, first.BookingID)
	}
	if conflict.Conflict.Start != 17*60 || conflict.Conflict.End != 18*60 {
		t.Errorf("conflict interval = %s, want [17:00, 18:00)", conflict.Conflict)
	}
}

func TestEngineBookAdjacentSlots(t *testing.T) {
	fx := newEngineFixture(t)

	if _, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00")); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// [17:00, 18:00) and [18:00, 19:00) share only the boundary
	if _, err := fx.engine.Decide(context.Background(), fx.bookIntent("18:00")); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestEngineBookOutsideWindow(t *testing.T) {
	fx := newEngineFixture(t)

	_, err := fx.engine.Decide(context.Background(), fx.bookIntent("23:00"))
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want RuleViolationError", err)
	}
	if violation.RuleID != fx.ruleID {
		t.Errorf("rule = %s, want %s", violation.RuleID, fx.ruleID)
	}
}

func TestEngineBookExceedsMaxDuration(t *testing.T) {
	fx := newEngineFixture(t)

	intent := fx.bookIntent("10:00")
	intent.DurationMinutes = 180

	_, err := fx.engine.Decide(context.Background(), intent)
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want RuleViolationError", err)
	}
}

func TestEngineBookInThePast(t *testing.T) {
	fx := newEngineFixture(t)

	intent := fx.bookIntent("07:00")
	intent.Date = fixedNow.Format(DateFormat) // 07:00 is an hour before fixedNow

	_, err := fx.engine.Decide(context.Background(), intent)
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want RuleViolationError", err)
	}
}

func TestEngineBookMinNotice(t *testing.T) {
	fx := newEngineFixture(t)
	fx.engine.rules.(*fakeRuleStore).rules[fx.gymID][0].MinNoticeMinutes = 2 * 24 * 60

	_, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want RuleViolationError", err)
	}
}

func TestEngineBookMaxNotice(t *testing.T) {
	fx := newEngineFixture(t)

	intent := fx.bookIntent("17:00")
	intent.Date = fixedNow.AddDate(0, 0, 60).Format(DateFormat)

	_, err := fx.engine.Decide(context.Background(), intent)
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want RuleViolationError", err)
	}
}

func TestEngineBookFirstViolationWins(t *testing.T) {
	fx := newEngineFixture(t)
	store := fx.engine.rules.(*fakeRuleStore)

	// Second rule in creation order also fails the request; the first
	// rule's violation must be reported.
	laterID := uuid.New()
	store.rules[fx.gymID] = append(store.rules[fx.gymID], &amenity.Rule{
		ID:                 laterID,
		AmenityID:          fx.gymID,
		BuildingID:         testBuilding,
		OpenMinute:         8 * 60,
		CloseMinute:        10 * 60,
		MaxDurationMinutes: 120,
		MaxNoticeDays:      30,
	})

	_, err := fx.engine.Decide(context.Background(), fx.bookIntent("23:00"))
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want RuleViolationError", err)
	}
	if violation.RuleID != fx.ruleID {
		t.Errorf("rule = %s, want first rule %s", violation.RuleID, fx.ruleID)
	}
}

func TestEngineBookUnknownAmenity(t *testing.T) {
	fx := newEngineFixture(t)

	intent := fx.bookIntent("17:00")
	intent.Amenity = "sauna"

	if _, err := fx.engine.Decide(context.Background(), intent); !errors.Is(err, ErrUnknownAmenity) {
		t.Errorf("error = %v, want ErrUnknownAmenity", err)
	}
}

func TestEngineBookInactiveAmenityIsUnknown(t *testing.T) {
	fx := newEngineFixture(t)
	fx.engine.rules.(*fakeRuleStore).amenities[fx.gymID].IsActive = false

	if _, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00")); !errors.Is(err, ErrUnknownAmenity) {
		t.Errorf("error = %v, want ErrUnknownAmenity", err)
	}
}

func TestEngineBookAmenityWithoutRules(t *testing.T) {
	fx := newEngineFixture(t)
	fx.engine.rules.(*fakeRuleStore).rules[fx.gymID] = nil

	if _, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00")); !errors.Is(err, ErrUnknownAmenity) {
		t.Errorf("error = %v, want ErrUnknownAmenity", err)
	}
}

func TestEngineValidationBeforeStorage(t *testing.T) {
	fx := newEngineFixture(t)
	fx.ledger.failing = true // a malformed intent must not reach the ledger

	intent := fx.bookIntent("17:00")
	intent.Date = ""

	_, err := fx.engine.Decide(context.Background(), intent)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if vErr.Field != "date" {
		t.Errorf("field = %s, want date", vErr.Field)
	}
}

func TestEngineStorageUnavailable(t *testing.T) {
	fx := newEngineFixture(t)
	fx.ledger.failing = true

	if _, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00")); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("error = %v, want ErrStorageUnavailable", err)
	}
}

func TestEngineCancel(t *testing.T) {
	fx := newEngineFixture(t)

	booked, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	cancel := &Intent{Kind: KindCancelBooking, UserID: fx.userID, BookingID: booked.BookingID}
	result, err := fx.engine.Decide(context.Background(), cancel)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", result.Status)
	}
	if len(fx.pub.cancelled) != 1 {
		t.Errorf("publisher cancelled = %v, want one event", fx.pub.cancelled)
	}

	// Second cancel of the same booking is rejected
	if _, err := fx.engine.Decide(context.Background(), cancel); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("error = %v, want ErrAlreadyCancelled", err)
	}
}

func TestEngineCancelForeignBooking(t *testing.T) {
	fx := newEngineFixture(t)

	booked, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	cancel := &Intent{Kind: KindCancelBooking, UserID: fx.otherID, BookingID: booked.BookingID}
	if _, err := fx.engine.Decide(context.Background(), cancel); !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
	if got := fx.ledger.statusOf(booked.BookingID); got != StatusConfirmed {
		t.Errorf("status after forbidden cancel = %s, want CONFIRMED", got)
	}
}

func TestEngineCancelMissingBooking(t *testing.T) {
	fx := newEngineFixture(t)

	cancel := &Intent{Kind: KindCancelBooking, UserID: fx.userID, BookingID: uuid.New()}
	if _, err := fx.engine.Decide(context.Background(), cancel); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestEngineCancelFreesSlot(t *testing.T) {
	fx := newEngineFixture(t)

	booked, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	cancel := &Intent{Kind: KindCancelBooking, UserID: fx.userID, BookingID: booked.BookingID}
	if _, err := fx.engine.Decide(context.Background(), cancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00")); err != nil {
		t.Errorf("rebooking freed slot: %v", err)
	}
}

func TestEngineConcurrentBookingsOneWins(t *testing.T) {
	fx := newEngineFixture(t)

	const attempts = 16
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			intent := fx.bookIntent("17:00")
			intent.UserID = uuid.New()
			_, err := fx.engine.Decide(context.Background(), intent)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var conflict *SlotConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("unexpected error: %v", err)
				continue
			}
			conflicts++
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if conflicts != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}

// Separate engine instances share no in-process mutex, so only the
// transactional slot lock in the ledger keeps their commits exclusive.
// This is the multi-instance deployment shape: one slot, many servers.
func TestEngineSeparateInstancesOneWins(t *testing.T) {
	fx := newEngineFixture(t)

	second := NewEngine(fx.ledger, fx.engine.rules, fx.engine.buildings, fx.pub)
	second.now = fx.engine.now
	engines := []*Engine{fx.engine, second}

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(engine *Engine) {
			defer wg.Done()
			intent := fx.bookIntent("17:00")
			intent.UserID = uuid.New()
			_, err := engine.Decide(context.Background(), intent)
			results <- err
		}(engines[i%len(engines)])
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var conflict *SlotConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}

	day, _ := time.Parse(DateFormat, testDay)
	confirmed, err := fx.ledger.ListConfirmedForDay(context.Background(), fx.gymID, testBuilding, day)
	if err != nil {
		t.Fatalf("ListConfirmedForDay() error = %v", err)
	}
	if len(confirmed) != 1 {
		t.Errorf("confirmed rows = %d, want 1", len(confirmed))
	}
}

func TestEngineConcurrentCancelsOneWins(t *testing.T) {
	fx := newEngineFixture(t)

	booked, err := fx.engine.Decide(context.Background(), fx.bookIntent("17:00"))
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancel := &Intent{Kind: KindCancelBooking, UserID: fx.userID, BookingID: booked.BookingID}
			_, err := fx.engine.Decide(context.Background(), cancel)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyCancelled):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("successful cancels = %d, want exactly 1", wins)
	}
	if got := fx.ledger.statusOf(booked.BookingID); got != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got)
	}
}
