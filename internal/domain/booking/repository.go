package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Ledger defines booking data access. It is the source of truth for overlap
// checks; the engine runs the check and insert inside WithTx with the slot
// lock held, so the exclusion holds across API instances.
type Ledger interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListConfirmedForDay(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) ([]*Booking, error)
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	ListUpcomingByUser(ctx context.Context, userID uuid.UUID, buildingID string) ([]*BookingWithAmenity, error)
	ListHistoryByUser(ctx context.Context, userID uuid.UUID, buildingID string) ([]*BookingWithAmenity, error)

	// WithTx runs fn against a transactional view of the ledger, committing
	// on nil and rolling back on error.
	WithTx(ctx context.Context, fn func(tx Ledger) error) error

	// LockSlot takes an exclusive transaction-scoped lock on the
	// (amenity, building, day) key. Only meaningful inside WithTx.
	LockSlot(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) error
}

type ledger struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

// NewLedger creates the Postgres-backed booking ledger
func NewLedger(db *sqlx.DB) Ledger {
	return &ledger{db: db, q: db}
}

func (l *ledger) WithTx(ctx context.Context, fn func(tx Ledger) error) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&ledger{db: l.db, q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// LockSlot maps the slot key onto a Postgres advisory lock. Row locks
// cannot guard concurrent inserts into an empty slot, an advisory lock on
// the key can. Released automatically at commit or rollback.
func (l *ledger) LockSlot(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) error {
	key := fmt.Sprintf("booking:%s:%s:%s", amenityID, buildingID, day.Format(DateFormat))
	_, err := l.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return err
}

func (l *ledger) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (
			id, building_id, amenity_id, user_id, day,
			start_minute, end_minute, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`
	_, err := l.q.ExecContext(ctx, query,
		b.ID,
		b.BuildingID,
		b.AmenityID,
		b.UserID,
		b.Day,
		b.StartMinute,
		b.EndMinute,
		b.Status,
		b.CreatedAt,
	)
	return err
}

func (l *ledger) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT * FROM bookings WHERE id = $1`
	var b Booking
	err := sqlx.GetContext(ctx, l.q, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (l *ledger) ListConfirmedForDay(ctx context.Context, amenityID uuid.UUID, buildingID string, day time.Time) ([]*Booking, error) {
	query := `
		SELECT * FROM bookings
		WHERE amenity_id = $1 AND building_id = $2 AND day = $3 AND status = $4
		ORDER BY start_minute ASC
	`
	var bookings []*Booking
	err := sqlx.SelectContext(ctx, l.q, &bookings, query, amenityID, buildingID, day, StatusConfirmed)
	return bookings, err
}

// MarkCancelled flips a confirmed booking to cancelled. The status guard
// makes concurrent cancels race-safe: exactly one update wins, the loser
// sees zero rows.
func (l *ledger) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3`
	result, err := l.q.ExecContext(ctx, query, StatusCancelled, id, StatusConfirmed)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

func (l *ledger) ListUpcomingByUser(ctx context.Context, userID uuid.UUID, buildingID string) ([]*BookingWithAmenity, error) {
	query := `
		SELECT b.*, a.name AS amenity_name
		FROM bookings b
		JOIN amenities a ON a.id = b.amenity_id
		WHERE b.user_id = $1 AND b.status = $2 AND b.day >= CURRENT_DATE
	`
	args := []interface{}{userID, StatusConfirmed}
	if buildingID != "" {
		query += ` AND b.building_id = $3`
		args = append(args, buildingID)
	}
	query += ` ORDER BY b.day ASC, b.start_minute ASC`

	var bookings []*BookingWithAmenity
	err := sqlx.SelectContext(ctx, l.q, &bookings, query, args...)
	return bookings, err
}

func (l *ledger) ListHistoryByUser(ctx context.Context, userID uuid.UUID, buildingID string) ([]*BookingWithAmenity, error) {
	query := `
		SELECT b.*, a.name AS amenity_name
		FROM bookings b
		JOIN amenities a ON a.id = b.amenity_id
		WHERE b.user_id = $1 AND (b.status = $2 OR b.day < CURRENT_DATE)
	`
	args := []interface{}{userID, StatusCancelled}
	if buildingID != "" {
		query += ` AND b.building_id = $3`
		args = append(args, buildingID)
	}
	query += ` ORDER BY b.day DESC, b.start_minute DESC`

	var bookings []*BookingWithAmenity
	err := sqlx.SelectContext(ctx, l.q, &bookings, query, args...)
	return bookings, err
}
