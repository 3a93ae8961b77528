package voicelog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/pkg/response"
)

// Handler handles voice log HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates voice log handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Archive stores a voice clip with its decision context
// POST /api/v1/voice-logs (multipart/form-data)
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxClipSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("clip")
	if err != nil {
		response.BadRequest(w, "clip file is required")
		return
	}
	defer file.Close()

	buildingID := r.FormValue("building_id")
	if buildingID == "" {
		response.BadRequest(w, "building_id is required")
		return
	}

	userID, err := uuid.Parse(r.FormValue("user_id"))
	if err != nil {
		response.BadRequest(w, "Invalid user_id")
		return
	}

	var bookingID *uuid.UUID
	if raw := r.FormValue("booking_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid booking_id")
			return
		}
		bookingID = &id
	}

	v, err := h.service.Archive(r.Context(), &ArchiveInput{
		BuildingID: buildingID,
		UserID:     userID,
		BookingID:  bookingID,
		Transcript: r.FormValue("transcript"),
		Outcome:    r.FormValue("outcome"),
		MimeType:   header.Header.Get("Content-Type"),
		SizeBytes:  header.Size,
		Clip:       file,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			response.BadRequest(w, "Clip exceeds maximum size of 10MB")
		case errors.Is(err, ErrInvalidArchive):
			response.BadRequest(w, "Clip must be an audio file")
		default:
			log.Error().Err(err).Msg("Failed to archive voice log")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, v)
}

// Get returns one voice log with its clip URL
// GET /api/v1/voice-logs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid voice log ID")
		return
	}

	v, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Voice log not found")
		} else {
			log.Error().Err(err).Msg("Failed to load voice log")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, v)
}

// List returns the most recent voice logs of a building
// GET /api/v1/voice-logs?building_id=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	buildingID := r.URL.Query().Get("building_id")
	if buildingID == "" {
		response.BadRequest(w, "building_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.service.ListByBuilding(r.Context(), buildingID, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list voice logs")
		response.InternalError(w)
		return
	}

	response.OK(w, logs)
}
