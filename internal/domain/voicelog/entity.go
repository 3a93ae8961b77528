package voicelog

import (
	"time"

	"github.com/google/uuid"
)

// VoiceLog is an audit record for one voice interaction: the raw clip is
// archived in object storage, the transcript and decision outcome live in
// the row. Logs are written by the voice gateway after the booking decision
// returns, whatever the outcome was.
type VoiceLog struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	BuildingID string     `db:"building_id" json:"building_id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	BookingID  *uuid.UUID `db:"booking_id" json:"booking_id,omitempty"`
	Transcript string     `db:"transcript" json:"transcript"`
	Outcome    string     `db:"outcome" json:"outcome"`
	StorageKey string     `db:"storage_key" json:"-"`
	MimeType   string     `db:"mime_type" json:"mime_type"`
	SizeBytes  int64      `db:"size_bytes" json:"size_bytes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// VoiceLogWithURL adds the public clip URL for responses
type VoiceLogWithURL struct {
	VoiceLog
	ClipURL string `json:"clip_url"`
}
