package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/config"
	"github.com/amenio/amenio-api/internal/domain/amenity"
	"github.com/amenio/amenio-api/internal/domain/booking"
	"github.com/amenio/amenio-api/internal/domain/building"
	"github.com/amenio/amenio-api/internal/domain/feed"
	"github.com/amenio/amenio-api/internal/domain/voicelog"
	"github.com/amenio/amenio-api/internal/middleware"
	"github.com/amenio/amenio-api/internal/pkg/database"
	"github.com/amenio/amenio-api/internal/pkg/jwt"
	"github.com/amenio/amenio-api/internal/pkg/response"
	"github.com/amenio/amenio-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Amenio API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	r2Storage, err := storage.NewR2Storage(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      cfg.R2BucketName,
		PublicURL:       cfg.R2PublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create R2 storage")
	}

	// ---------- Repositories ----------
	buildingRepo := building.NewRepository(db)
	amenityRepo := amenity.NewRepository(db)
	bookingLedger := booking.NewLedger(db)
	voicelogRepo := voicelog.NewRepository(db)

	// ---------- Live feed hub ----------
	feedHub := feed.NewHub(redis)
	go feedHub.Run()
	defer feedHub.Shutdown()

	// ---------- Services ----------
	amenityService := amenity.NewService(amenityRepo, buildingRepo)
	engine := booking.NewEngine(bookingLedger, amenityRepo, buildingRepo, feed.NewNotifier(feedHub))
	availability := booking.NewCalculator(amenityRepo, bookingLedger)
	voicelogService := voicelog.NewService(voicelogRepo, r2Storage)

	// ---------- Handlers ----------
	amenityHandler := amenity.NewHandler(amenityService)
	bookingHandler := booking.NewHandler(engine, availability, bookingLedger)
	feedHandler := feed.NewHandler(feedHub, jwtService, cfg.AllowedOrigins)
	voicelogHandler := voicelog.NewHandler(voicelogService)

	authMiddleware := middleware.Auth(jwtService)
	apiKeyMiddleware := middleware.APIKey(cfg.ServiceAPIKey)
	adminMiddleware := middleware.AdminAPIKey(cfg.AdminAPIKey)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint before Compress
	r.Get("/ws/feed", feedHandler.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
	})

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			response.ServiceUnavailable(w, "Database unreachable")
			return
		}
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/amenities", amenityHandler.Routes(apiKeyMiddleware, bookingHandler.Availability))
		r.Mount("/bookings", bookingHandler.Routes(apiKeyMiddleware, authMiddleware))
		r.Mount("/voice-logs", voicelogHandler.Routes(apiKeyMiddleware))
	})

	r.Mount("/api/admin", amenityHandler.AdminRoutes(adminMiddleware))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
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
