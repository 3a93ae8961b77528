package amenity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/domain/building"
	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// Service handles amenity administration
type Service struct {
	repo         Repository
	buildingRepo building.Repository
}

// NewService creates amenity service
func NewService(repo Repository, buildingRepo building.Repository) *Service {
	return &Service{
		repo:         repo,
		buildingRepo: buildingRepo,
	}
}

// UpsertAmenity creates a new amenity or updates an existing one
func (s *Service) UpsertAmenity(ctx context.Context, req *UpsertAmenityRequest) (*Amenity, error) {
	b, err := s.buildingRepo.GetByID(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBuildingNotFound
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	if req.AmenityID != nil {
		existing, err := s.repo.GetByID(ctx, *req.AmenityID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		if existing.BuildingID != req.BuildingID {
			return nil, ErrBuildingMismatch
		}

		existing.Name = req.Name
		existing.IsActive = isActive
		existing.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	now := time.Now().UTC()
	a := &Amenity{
		ID:         uuid.New(),
		BuildingID: req.BuildingID,
		Name:       req.Name,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateRule adds a rule to an amenity
func (s *Service) CreateRule(ctx context.Context, req *CreateRuleRequest) (*Rule, error) {
	a, err := s.repo.GetByID(ctx, req.AmenityID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}

	open, err := timeslot.ParseClock(req.OpenTime)
	if err != nil {
		return nil, err
	}
	close, err := timeslot.ParseClock(req.CloseTime)
	if err != nil {
		return nil, err
	}
	if open >= close {
		return nil, ErrInvalidWindow
	}
	if req.DefaultDurationMinutes > req.MaxDurationMinutes {
		return nil, ErrInvalidDuration
	}

	rule := &Rule{
		ID:                     uuid.New(),
		AmenityID:              a.ID,
		BuildingID:             a.BuildingID,
		OpenMinute:             open,
		CloseMinute:            close,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		MaxDurationMinutes:     req.MaxDurationMinutes,
		MinNoticeMinutes:       req.MinNoticeMinutes,
		MaxNoticeDays:          req.MaxNoticeDays,
		CreatedAt:              time.Now().UTC(),
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules returns an amenity's rules in evaluation order
func (s *Service) ListRules(ctx context.Context, amenityID uuid.UUID) ([]*Rule, error) {
	a, err := s.repo.GetByID(ctx, amenityID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return s.repo.ListRules(ctx, amenityID)
}

// ListActive returns the active amenities of a building
func (s *Service) ListActive(ctx context.Context, buildingID string) ([]*Amenity, error) {
	return s.repo.ListActiveByBuilding(ctx, buildingID)
}

// RuleToResponse renders a rule with wall-clock times
func RuleToResponse(rule *Rule) RuleResponse {
	return RuleResponse{
		ID:                     rule.ID,
		AmenityID:              rule.AmenityID,
		BuildingID:             rule.BuildingID,
		OpenTime:               timeslot.FormatClock(rule.OpenMinute),
		CloseTime:              timeslot.FormatClock(rule.CloseMinute),
		DefaultDurationMinutes: rule.DefaultDurationMinutes,
		MaxDurationMinutes:     rule.MaxDurationMinutes,
		MinNoticeMinutes:       rule.MinNoticeMinutes,
		MaxNoticeDays:          rule.MaxNoticeDays,
	}
}
