package voicelog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines voice log data access
type Repository interface {
	Create(ctx context.Context, v *VoiceLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*VoiceLog, error)
	ListByBuilding(ctx context.Context, buildingID string, limit int) ([]*VoiceLog, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates voice log repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, v *VoiceLog) error {
	query := `
		INSERT INTO voice_logs (
			id, building_id, user_id, booking_id, transcript,
			outcome, storage_key, mime_type, size_bytes, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.BuildingID,
		v.UserID,
		v.BookingID,
		v.Transcript,
		v.Outcome,
		v.StorageKey,
		v.MimeType,
		v.SizeBytes,
		v.CreatedAt,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*VoiceLog, error) {
	query := `SELECT * FROM voice_logs WHERE id = $1`
	var v VoiceLog
	err := r.db.GetContext(ctx, &v, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *repository) ListByBuilding(ctx context.Context, buildingID string, limit int) ([]*VoiceLog, error) {
	query := `
		SELECT * FROM voice_logs
		WHERE building_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var logs []*VoiceLog
	err := r.db.SelectContext(ctx, &logs, query, buildingID, limit)
	return logs, err
}
