package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Board API
	MondayAPIURL        string
	MondayAPIVersion    string
	MondaySigningSecret string
	HTTPTimeout         time.Duration

	// Auth
	AdminAPIKey string

	// Per-account board mapping
	AccountsFile string

	// Storage
	DownloadDir      string
	MaxDownloadBytes int64
	HistoryDB        string

	// Scheduling
	MaxConcurrentJobs  int
	MaxQueuePerAccount int

	// Sync retry
	SyncMaxAttempts    int
	SyncRetryBaseDelay time.Duration

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		MondayAPIURL:        envOr("MONDAY_API_URL", "https://api.monday.com/v2"),
		MondayAPIVersion:    envOr("MONDAY_API_VERSION", "2024-07"),
		MondaySigningSecret: os.Getenv("MONDAY_SIGNING_SECRET"),
		HTTPTimeout:         envDuration("HTTP_TIMEOUT", 30*time.Second),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		AccountsFile: os.Getenv("ACCOUNTS_FILE"),

		DownloadDir:      envOr("DOWNLOAD_DIR", "downloads"),
		MaxDownloadBytes: envInt64("MAX_DOWNLOAD_BYTES", 52428800), // 50MB
		HistoryDB:        envOr("HISTORY_DB", "tabusync.db"),

		MaxConcurrentJobs:  envInt("MAX_CONCURRENT_JOBS", 4),
		MaxQueuePerAccount: envInt("MAX_QUEUE_PER_ACCOUNT", 20),

		SyncMaxAttempts:    envInt("SYNC_MAX_ATTEMPTS", 3),
		SyncRetryBaseDelay: envDuration("SYNC_RETRY_BASE_DELAY", 1*time.Second),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 4
	}
	if cfg.MaxQueuePerAccount <= 0 {
		cfg.MaxQueuePerAccount = 20
	}
	if cfg.SyncMaxAttempts <= 0 {
		cfg.SyncMaxAttempts = 3
	}
	if cfg.SyncRetryBaseDelay < 0 {
		cfg.SyncRetryBaseDelay = 1 * time.Second
	}
	if cfg.MaxDownloadBytes <= 0 {
		cfg.MaxDownloadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.MondaySigningSecret == "" {
		return fmt.Errorf("MONDAY_SIGNING_SECRET is required")
	}
	if c.AdminAPIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}
	if c.AccountsFile == "" {
		return fmt.Errorf("ACCOUNTS_FILE is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
