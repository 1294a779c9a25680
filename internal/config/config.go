package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	Addr        string
	DatabaseURL string
	Location    *time.Location
	TaskTTL     time.Duration
	FinishTime  string // HH:MM, daily auto-finish of running tasks
	PurgeTime   string // HH:MM, daily TTL purge of finished tasks
	AutoStart   bool   // start the timer on task creation
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Addr:        strings.TrimSpace(os.Getenv("ADDR")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		FinishTime:  strings.TrimSpace(os.Getenv("FINISH_TIME")),
		PurgeTime:   strings.TrimSpace(os.Getenv("PURGE_TIME")),
		AutoStart:   true,
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "timetracker.db"
	}
	if cfg.FinishTime == "" {
		cfg.FinishTime = "23:59"
	}
	if cfg.PurgeTime == "" {
		cfg.PurgeTime = "00:00"
	}

	loc := time.UTC
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE %q: %w", tz, err)
		}
		loc = parsed
	}
	cfg.Location = loc

	cfg.TaskTTL = 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("TASK_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return cfg, fmt.Errorf("TASK_TTL %q: expected a positive duration", raw)
		}
		cfg.TaskTTL = ttl
	}

	if raw := strings.TrimSpace(os.Getenv("AUTO_START_ON_CREATE")); raw != "" {
		autoStart, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("AUTO_START_ON_CREATE %q: %w", raw, err)
		}
		cfg.AutoStart = autoStart
	}

	return cfg, nil
}
