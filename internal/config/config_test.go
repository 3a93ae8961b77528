package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "") // registers restore of the original value
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t,
		"PORT", "ENV", "JWT_ACCESS_TTL", "ALLOWED_ORIGINS",
		"R2_BUCKET_NAME", "REMINDER_LEAD_MINUTES", "REMINDER_INTERVAL", "LOG_LEVEL",
	)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.Env != "development" || !cfg.IsDevelopment() {
		t.Errorf("Env = %s, want development", cfg.Env)
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Errorf("JWTAccessTTL = %s, want 15m", cfg.JWTAccessTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v, want the localhost default", cfg.AllowedOrigins)
	}
	if cfg.R2BucketName != "amenio-voice-logs" {
		t.Errorf("R2BucketName = %s, want amenio-voice-logs", cfg.R2BucketName)
	}
	if cfg.ReminderLeadMinutes != 60 {
		t.Errorf("ReminderLeadMinutes = %d, want 60", cfg.ReminderLeadMinutes)
	}
	if cfg.ReminderInterval != 5*time.Minute {
		t.Errorf("ReminderInterval = %s, want 5m", cfg.ReminderInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("REMINDER_LEAD_MINUTES", "30")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Errorf("Env = %s, want production", cfg.Env)
	}
	if cfg.JWTAccessTTL != time.Hour {
		t.Errorf("JWTAccessTTL = %s, want 1h", cfg.JWTAccessTTL)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want two origins", cfg.AllowedOrigins)
	}
	if cfg.ReminderLeadMinutes != 30 {
		t.Errorf("ReminderLeadMinutes = %d, want 30", cfg.ReminderLeadMinutes)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("REMINDER_LEAD_MINUTES", "soon")

	cfg := Load()

	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Errorf("JWTAccessTTL = %s, want 15m fallback", cfg.JWTAccessTTL)
	}
	if cfg.ReminderLeadMinutes != 60 {
		t.Errorf("ReminderLeadMinutes = %d, want 60 fallback", cfg.ReminderLeadMinutes)
	}
}
