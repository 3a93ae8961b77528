package voicelog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/pkg/storage"
)

// MaxClipSize caps an archived voice clip at 10MB
const MaxClipSize = 10 << 20

// Service handles voice log business logic
type Service struct {
	repo  Repository
	store storage.Storage
}

// NewService creates voice log service
func NewService(repo Repository, store storage.Storage) *Service {
	return &Service{
		repo:  repo,
		store: store,
	}
}

// ArchiveInput carries the clip and its decision context
type ArchiveInput struct {
	BuildingID string
	UserID     uuid.UUID
	BookingID  *uuid.UUID
	Transcript string
	Outcome    string
	MimeType   string
	SizeBytes  int64
	Clip       io.Reader
}

// Archive stores the clip in the object store and records the audit row.
// The clip goes out first: a row pointing at a missing object is worse
// than an orphaned object.
func (s *Service) Archive(ctx context.Context, in *ArchiveInput) (*VoiceLogWithURL, error) {
	if in.SizeBytes > MaxClipSize {
		return nil, ErrFileTooLarge
	}
	if !strings.HasPrefix(in.MimeType, "audio/") {
		return nil, ErrInvalidArchive
	}

	id := uuid.New()
	key := fmt.Sprintf("voice-logs/%s/%s/%s", in.BuildingID, time.Now().UTC().Format("2006/01/02"), id)

	if err := s.store.Put(ctx, key, in.Clip, in.MimeType); err != nil {
		return nil, fmt.Errorf("archive clip: %w", err)
	}

	v := &VoiceLog{
		ID:         id,
		BuildingID: in.BuildingID,
		UserID:     in.UserID,
		BookingID:  in.BookingID,
		Transcript: in.Transcript,
		Outcome:    in.Outcome,
		StorageKey: key,
		MimeType:   in.MimeType,
		SizeBytes:  in.SizeBytes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, v); err != nil {
		// Best effort cleanup of the orphaned object
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("Failed to clean up orphaned voice clip")
		}
		return nil, fmt.Errorf("create voice log: %w", err)
	}

	return s.withURL(v), nil
}

// GetByID returns one voice log with its clip URL
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*VoiceLogWithURL, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return s.withURL(v), nil
}

// ListByBuilding returns the most recent voice logs of a building
func (s *Service) ListByBuilding(ctx context.Context, buildingID string, limit int) ([]*VoiceLogWithURL, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	logs, err := s.repo.ListByBuilding(ctx, buildingID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*VoiceLogWithURL, len(logs))
	for i, v := range logs {
		out[i] = s.withURL(v)
	}
	return out, nil
}

func (s *Service) withURL(v *VoiceLog) *VoiceLogWithURL {
	return &VoiceLogWithURL{
		VoiceLog: *v,
		ClipURL:  s.store.GetURL(v.StorageKey),
	}
}
