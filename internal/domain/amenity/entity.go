package amenity

import (
	"time"

	"github.com/google/uuid"
)

// Amenity represents a bookable resource scoped to a building
type Amenity struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BuildingID string    `db:"building_id" json:"building_id"`
	Name       string    `db:"name" json:"name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Rule constrains when and how an amenity may be booked. An amenity may
// carry several rules; all of them must pass for a booking to be accepted,
// evaluated in ascending creation order so the first violation reported is
// stable across runs.
//
// Minutes are counted from midnight of the booking day. The allowed window
// [OpenMinute, CloseMinute) never crosses midnight.
type Rule struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	AmenityID              uuid.UUID `db:"amenity_id" json:"amenity_id"`
	BuildingID             string    `db:"building_id" json:"building_id"`
	OpenMinute             int       `db:"open_minute" json:"open_minute"`
	CloseMinute            int       `db:"close_minute" json:"close_minute"`
	DefaultDurationMinutes int       `db:"default_duration_minutes" json:"default_duration_minutes"`
	MaxDurationMinutes     int       `db:"max_duration_minutes" json:"max_duration_minutes"`
	MinNoticeMinutes       int       `db:"min_notice_minutes" json:"min_notice_minutes"`
	MaxNoticeDays          int       `db:"max_notice_days" json:"max_notice_days"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}
