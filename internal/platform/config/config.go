package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	Environment string // "production" enables stricter checks
	HTTP        HTTPConfig

	DatabaseURL string
	NATSURL     string
	RedisDSN    string

	// Timezone interprets user-supplied dates and buckets daily activity.
	Timezone *time.Location
	// ProgressCacheTTL is how long a completed progress update suppresses
	// repeats of the same coordinate.
	ProgressCacheTTL time.Duration
	// SpecialSeasonNames are show season names excluded from completeness
	// checks and diffing.
	SpecialSeasonNames []string
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		Environment: strings.TrimSpace(os.Getenv("APP_ENV")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),
		RedisDSN:    strings.TrimSpace(os.Getenv("REDIS_DSN")),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "trackona"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DatabaseURL == "" {
		return AppConfig{}, errors.New("DATABASE_URL is required")
	}

	tzName := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if tzName == "" {
		tzName = "UTC"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return AppConfig{}, fmt.Errorf("TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = tz

	cfg.ProgressCacheTTL = envDuration("PROGRESS_CACHE_TTL", 3*time.Hour)

	if names := strings.TrimSpace(os.Getenv("SPECIAL_SEASON_NAMES")); names != "" {
		for _, n := range strings.Split(names, ",") {
			if n = strings.TrimSpace(n); n != "" {
				cfg.SpecialSeasonNames = append(cfg.SpecialSeasonNames, n)
			}
		}
	}
	return cfg, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
