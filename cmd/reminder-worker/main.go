package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/config"
	"github.com/amenio/amenio-api/internal/domain/feed"
	"github.com/amenio/amenio-api/internal/pkg/database"
	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

const dedupeTTL = 24 * time.Hour

// upcomingBooking joins a confirmed booking with its building timezone so
// the due check runs in local time.
type upcomingBooking struct {
	ID          uuid.UUID `db:"id"`
	BuildingID  string    `db:"building_id"`
	AmenityID   uuid.UUID `db:"amenity_id"`
	UserID      uuid.UUID `db:"user_id"`
	Day         time.Time `db:"day"`
	StartMinute int       `db:"start_minute"`
	EndMinute   int       `db:"end_minute"`
	Timezone    string    `db:"timezone"`
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Int("lead_minutes", cfg.ReminderLeadMinutes).
		Dur("interval", cfg.ReminderInterval).
		Msg("Starting reminder-worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		runOnce(ctx, db, rdb, time.Duration(cfg.ReminderLeadMinutes)*time.Minute)

		select {
		case <-sigChan:
			log.Info().Msg("Shutting down reminder-worker")
			return
		case <-ticker.C:
		}
	}
}

// runOnce publishes a reminder for every confirmed booking starting within
// the lead window. A Redis SETNX key per booking keeps reminders
// single-shot across worker restarts and replicas.
func runOnce(ctx context.Context, db *sqlx.DB, rdb *redis.Client, lead time.Duration) {
	query := `
		SELECT b.id, b.building_id, b.amenity_id, b.user_id, b.day,
		       b.start_minute, b.end_minute,
		       COALESCE(bl.timezone, 'UTC') AS timezone
		FROM bookings b
		JOIN buildings bl ON bl.id = b.building_id
		WHERE b.status = 'CONFIRMED'
		  AND b.day BETWEEN CURRENT_DATE - 1 AND CURRENT_DATE + 1
	`
	var bookings []upcomingBooking
	if err := db.SelectContext(ctx, &bookings, query); err != nil {
		log.Error().Err(err).Msg("Failed to load upcoming bookings")
		return
	}

	now := time.Now()
	sent := 0
	for _, b := range bookings {
		loc, err := time.LoadLocation(b.Timezone)
		if err != nil {
			loc = time.UTC
		}
		start := time.Date(b.Day.Year(), b.Day.Month(), b.Day.Day(), 0, 0, 0, 0, loc).
			Add(time.Duration(b.StartMinute) * time.Minute)

		if start.Before(now) || start.After(now.Add(lead)) {
			continue
		}

		key := fmt.Sprintf("reminder:sent:%s", b.ID)
		ok, err := rdb.SetNX(ctx, key, "1", dedupeTTL).Result()
		if err != nil {
			log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("Dedupe check failed")
			continue
		}
		if !ok {
			continue
		}

		if err := publishReminder(ctx, rdb, &b); err != nil {
			log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("Failed to publish reminder")
			// Drop the dedupe key so the next run retries
			rdb.Del(ctx, key)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Info().Int("sent", sent).Msg("Reminders published")
	}
}

func publishReminder(ctx context.Context, rdb *redis.Client, b *upcomingBooking) error {
	event := feed.Event{
		Type:       feed.EventBookingReminder,
		BookingID:  b.ID,
		BuildingID: b.BuildingID,
		AmenityID:  b.AmenityID,
		UserID:     b.UserID,
		Date:       b.Day.Format("2006-01-02"),
		StartTime:  timeslot.FormatClock(b.StartMinute),
		EndTime:    timeslot.FormatClock(b.EndMinute),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, feed.BuildingChannel(b.BuildingID), data).Err()
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
