package building

import "time"

// Building represents a residential building amenities belong to.
// Buildings are provisioned by the main resident platform; this service
// only reads them.
type Building struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Timezone  string    `db:"timezone" json:"timezone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Location resolves the building's IANA timezone, falling back to UTC.
// Advance-notice checks compare against "now" in the building's local time.
func (b *Building) Location() *time.Location {
	if b == nil || b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
