package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/middleware"
	"github.com/amenio/amenio-api/internal/pkg/response"
	"github.com/amenio/amenio-api/internal/pkg/timeslot"
	"github.com/amenio/amenio-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	engine *Engine
	calc   *Calculator
	ledger Ledger
}

// NewHandler creates booking handler
func NewHandler(engine *Engine, calc *Calculator, ledger Ledger) *Handler {
	return &Handler{
		engine: engine,
		calc:   calc,
		ledger: ledger,
	}
}

// Execute runs a booking intent from any channel
// POST /api/v1/bookings
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteIntentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.engine.Decide(r.Context(), req.ToIntent())
	if err != nil {
		h.respondDecisionError(w, err)
		return
	}

	response.Created(w, result)
}

// Cancel cancels a booking by id on behalf of its owner
// POST /api/v1/bookings/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req CancelBookingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.engine.Decide(r.Context(), &Intent{
		Kind:      KindCancelBooking,
		UserID:    req.UserID,
		BookingID: bookingID,
	})
	if err != nil {
		h.respondDecisionError(w, err)
		return
	}

	response.OK(w, result)
}

// Availability returns the free intervals of an amenity for one day
// GET /api/v1/amenities/{id}/availability?building_id=&date=
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	amenityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid amenity ID")
		return
	}

	buildingID := r.URL.Query().Get("building_id")
	if buildingID == "" {
		response.BadRequest(w, "building_id is required")
		return
	}

	dateStr := r.URL.Query().Get("date")
	day, err := time.Parse(DateFormat, dateStr)
	if err != nil {
		response.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	free, err := h.calc.FreeIntervals(r.Context(), amenityID, buildingID, day)
	if err != nil {
		h.respondDecisionError(w, err)
		return
	}

	response.OK(w, AvailabilityResponse{
		AmenityID:  amenityID,
		BuildingID: buildingID,
		Date:       dateStr,
		Free:       toFreeIntervals(free),
	})
}

// MyBookings lists the resident's upcoming confirmed bookings
// GET /api/v1/bookings/my
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	buildingID := middleware.GetBuildingID(r.Context())

	rows, err := h.ledger.ListUpcomingByUser(r.Context(), userID, buildingID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list upcoming bookings")
		response.InternalError(w)
		return
	}

	response.OK(w, toBookingItems(rows))
}

// History lists the resident's past and cancelled bookings
// GET /api/v1/bookings/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	buildingID := middleware.GetBuildingID(r.Context())

	rows, err := h.ledger.ListHistoryByUser(r.Context(), userID, buildingID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list booking history")
		response.InternalError(w)
		return
	}

	response.OK(w, toBookingItems(rows))
}

// respondDecisionError maps engine errors to HTTP responses. The mapping is
// the contract with both calling channels, so codes stay stable.
func (h *Handler) respondDecisionError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	var rErr *RuleViolationError
	var cErr *SlotConflictError

	switch {
	case errors.As(err, &vErr):
		response.ErrorWithDetails(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"Validation failed", map[string]string{vErr.Field: vErr.Reason})
	case errors.As(err, &rErr):
		response.ErrorWithDetails(w, http.StatusUnprocessableEntity, "RULE_VIOLATION",
			rErr.Reason, map[string]string{"rule_id": rErr.RuleID.String()})
	case errors.As(err, &cErr):
		response.ErrorWithDetails(w, http.StatusConflict, "SLOT_CONFLICT",
			"Requested slot overlaps an existing booking", map[string]string{
				"booking_id": cErr.BookingID.String(),
				"start_time": timeslot.FormatClock(cErr.Conflict.Start),
				"end_time":   timeslot.FormatClock(cErr.Conflict.End),
			})
	case errors.Is(err, ErrUnknownAmenity):
		response.Error(w, http.StatusNotFound, "UNKNOWN_AMENITY", "Amenity not found in this building")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Booking belongs to another user")
	case errors.Is(err, ErrAlreadyCancelled):
		response.Conflict(w, "ALREADY_CANCELLED", "Booking is already cancelled")
	case errors.Is(err, ErrStorageUnavailable):
		log.Error().Err(err).Msg("Storage unavailable during booking decision")
		response.ServiceUnavailable(w, "Temporary storage failure, retry with backoff")
	default:
		log.Error().Err(err).Msg("Unexpected booking decision error")
		response.InternalError(w)
	}
}
