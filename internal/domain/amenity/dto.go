package amenity

import "github.com/google/uuid"

// UpsertAmenityRequest creates a new amenity or updates an existing one
type UpsertAmenityRequest struct {
	AmenityID  *uuid.UUID `json:"amenity_id,omitempty"`
	BuildingID string     `json:"building_id" validate:"required"`
	Name       string     `json:"name" validate:"required,min=1,max=255"`
	IsActive   *bool      `json:"is_active,omitempty"`
}

// CreateRuleRequest adds a rule to an amenity. Times are HH:MM wall clock.
type CreateRuleRequest struct {
	AmenityID              uuid.UUID `json:"amenity_id" validate:"required"`
	OpenTime               string    `json:"open_time" validate:"required,clock"`
	CloseTime              string    `json:"close_time" validate:"required,clock"`
	DefaultDurationMinutes int       `json:"default_duration_minutes" validate:"required,gte=1"`
	MaxDurationMinutes     int       `json:"max_duration_minutes" validate:"required,gte=1"`
	MinNoticeMinutes       int       `json:"min_notice_minutes" validate:"gte=0"`
	MaxNoticeDays          int       `json:"max_notice_days" validate:"required,gte=1"`
}

// RuleResponse renders a rule with HH:MM times
type RuleResponse struct {
	ID                     uuid.UUID `json:"id"`
	AmenityID              uuid.UUID `json:"amenity_id"`
	BuildingID             string    `json:"building_id"`
	OpenTime               string    `json:"open_time"`
	CloseTime              string    `json:"close_time"`
	DefaultDurationMinutes int       `json:"default_duration_minutes"`
	MaxDurationMinutes     int       `json:"max_duration_minutes"`
	MinNoticeMinutes       int       `json:"min_notice_minutes"`
	MaxNoticeDays          int       `json:"max_notice_days"`
}
