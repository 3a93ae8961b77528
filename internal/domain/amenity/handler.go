package amenity

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/pkg/response"
	"github.com/amenio/amenio-api/internal/pkg/validator"
)

// Handler handles amenity HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates amenity handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// List returns the active amenities of a building
// GET /api/v1/amenities?building_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	buildingID := r.URL.Query().Get("building_id")
	if buildingID == "" {
		response.BadRequest(w, "building_id is required")
		return
	}

	amenities, err := h.service.ListActive(r.Context(), buildingID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, amenities)
}

// Upsert creates or updates an amenity (admin only)
// POST /admin/amenities
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertAmenityRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	a, err := h.service.UpsertAmenity(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrBuildingNotFound:
			response.NotFound(w, "Building not found")
		case ErrNotFound:
			response.NotFound(w, "Amenity not found")
		case ErrBuildingMismatch:
			response.BadRequest(w, "Amenity belongs to a different building")
		case ErrDuplicateName:
			response.Conflict(w, "CONFLICT", "Amenity with this name already exists in the building")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, a)
}

// CreateRule adds a rule to an amenity (admin only)
// POST /admin/rules
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	rule, err := h.service.CreateRule(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrNotFound:
			response.NotFound(w, "Amenity not found")
		case ErrInvalidWindow:
			response.BadRequest(w, "open_time must be earlier than close_time")
		case ErrInvalidDuration:
			response.BadRequest(w, "default_duration_minutes must not exceed max_duration_minutes")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, RuleToResponse(rule))
}

// ListRules returns an amenity's rules in evaluation order (admin only)
// GET /admin/amenities/{id}/rules
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	amenityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid amenity ID")
		return
	}

	rules, err := h.service.ListRules(r.Context(), amenityID)
	if err != nil {
		if err == ErrNotFound {
			response.NotFound(w, "Amenity not found")
		} else {
			response.InternalError(w)
		}
		return
	}

	out := make([]RuleResponse, len(rules))
	for i, rule := range rules {
		out[i] = RuleToResponse(rule)
	}
	response.OK(w, out)
}
