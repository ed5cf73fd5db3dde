package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort          = "8080"
	defaultUploadDir     = "./uploads"
	defaultMaxFileSize   = "52428800" // 50 MB
	defaultMaxBatchFiles = "10"
	defaultFileTTL       = "10m"
	defaultSessionTTL    = "1h"
	defaultSweepInterval = "1m"
)

// Config is the runtime configuration for the drop-point server.
// All values come from the environment with sane local-dev defaults.
type Config struct {
	Port             string
	PublicBaseURL    string // base for upload URLs embedded in QR codes
	UploadDir        string
	MaxFileSize      int64
	MaxFilesPerBatch int
	FileTTL          time.Duration // how long an uploaded file lives
	SessionTTL       time.Duration // idle time before a session is destroyed
	SweepInterval    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))

	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}

	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))

	var err error
	cfg.MaxFileSize, err = parseInt64Env("MAX_FILE_SIZE", defaultMaxFileSize)
	if err != nil {
		return nil, err
	}

	maxBatch, err := parseInt64Env("MAX_FILES_PER_BATCH", defaultMaxBatchFiles)
	if err != nil {
		return nil, err
	}
	cfg.MaxFilesPerBatch = int(maxBatch)

	cfg.FileTTL, err = parseDurationEnv("FILE_TTL", defaultFileTTL)
	if err != nil {
		return nil, err
	}

	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}

	cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if cfg.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0")
	}
	if cfg.MaxFilesPerBatch <= 0 {
		return fmt.Errorf("MAX_FILES_PER_BATCH must be > 0")
	}
	if cfg.FileTTL <= 0 {
		return fmt.Errorf("FILE_TTL must be > 0")
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if cfg.SessionTTL < cfg.FileTTL {
		return fmt.Errorf("SESSION_TTL must be >= FILE_TTL, otherwise files outlive their session")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(getEnv(key, fallback))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func parseInt64Env(key, fallback string) (int64, error) {
	raw := strings.TrimSpace(getEnv(key, fallback))
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return n, nil
}
