package building

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Repository defines building data access interface
type Repository interface {
	GetByID(ctx context.Context, id string) (*Building, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new building repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*Building, error) {
	query := `SELECT id, name, timezone, created_at FROM buildings WHERE id = $1`
	var b Building
	err := r.db.GetContext(ctx, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
