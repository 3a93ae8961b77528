package amenity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines amenity and rule data access interface
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Amenity, error)
	GetByName(ctx context.Context, buildingID, name string) (*Amenity, error)
	ListActiveByBuilding(ctx context.Context, buildingID string) ([]*Amenity, error)
	Create(ctx context.Context, a *Amenity) error
	Update(ctx context.Context, a *Amenity) error

	ListRules(ctx context.Context, amenityID uuid.UUID) ([]*Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new amenity repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Amenity, error) {
	query := `SELECT * FROM amenities WHERE id = $1`
	var a Amenity
	err := r.db.GetContext(ctx, &a, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetByName resolves an amenity case-insensitively within a building. The
// voice channel refers to amenities by spoken name, not id.
func (r *repository) GetByName(ctx context.Context, buildingID, name string) (*Amenity, error) {
	query := `
		SELECT * FROM amenities
		WHERE building_id = $1 AND lower(name) = lower($2) AND is_active = TRUE
	`
	var a Amenity
	err := r.db.GetContext(ctx, &a, query, buildingID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListActiveByBuilding(ctx context.Context, buildingID string) ([]*Amenity, error) {
	query := `
		SELECT * FROM amenities
		WHERE building_id = $1 AND is_active = TRUE
		ORDER BY name ASC
	`
	var amenities []*Amenity
	err := r.db.SelectContext(ctx, &amenities, query, buildingID)
	return amenities, err
}

func (r *repository) Create(ctx context.Context, a *Amenity) error {
	query := `
		INSERT INTO amenities (id, building_id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.BuildingID,
		a.Name,
		a.IsActive,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *repository) Update(ctx context.Context, a *Amenity) error {
	query := `
		UPDATE amenities
		SET name = $1, is_active = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, a.Name, a.IsActive, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRules returns an amenity's rules in ascending creation order, id as a
// tiebreak, so violation reporting is deterministic.
func (r *repository) ListRules(ctx context.Context, amenityID uuid.UUID) ([]*Rule, error) {
	query := `
		SELECT * FROM amenity_rules
		WHERE amenity_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var rules []*Rule
	err := r.db.SelectContext(ctx, &rules, query, amenityID)
	return rules, err
}

func (r *repository) CreateRule(ctx context.Context, rule *Rule) error {
	query := `
		INSERT INTO amenity_rules (
			id, amenity_id, building_id, open_minute, close_minute,
			default_duration_minutes, max_duration_minutes,
			min_notice_minutes, max_notice_days, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.AmenityID,
		rule.BuildingID,
		rule.OpenMinute,
		rule.CloseMinute,
		rule.DefaultDurationMinutes,
		rule.MaxDurationMinutes,
		rule.MinNoticeMinutes,
		rule.MaxNoticeDays,
		rule.CreatedAt,
	)
	return err
}
