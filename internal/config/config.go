package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	StreamMaxDuration       time.Duration
	StreamIdleTimeout       time.Duration
	StorageRoot             string
	TrashRoot               string
	TrashIndexFile          string
	ActivityLogFile         string
	ThumbnailRoot           string
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	MaxUploadSize           int64
	MaxEditSize             int64
	EditableExtensions      []string
	AllowedMIMETypes        []string
	CORSOrigins             []string
	RateLimitRPM            int
	LockoutThreshold        int
	LockoutWindow           time.Duration
	LockoutCooldown         time.Duration
	StoreLockTimeout        time.Duration
	TrashRetentionDays      int
	ActivityRetentionDays   int
	SearchMaxDepth          int
	SearchTimeout           time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		StreamMaxDuration:       getDuration("STREAM_MAX_DURATION", 30*time.Minute),
		StreamIdleTimeout:       getDuration("STREAM_IDLE_TIMEOUT", 2*time.Minute),
		StorageRoot:             getEnv("STORAGE_ROOT", "./data"),
		TrashRoot:               getEnv("TRASH_ROOT", "./state/trash"),
		TrashIndexFile:          getEnv("TRASH_INDEX_FILE", "./state/trash-index.json"),
		ActivityLogFile:         getEnv("ACTIVITY_LOG_FILE", "./state/activity.log"),
		ThumbnailRoot:           getEnv("THUMBNAIL_ROOT", "./state/thumbnails"),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 8)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		MaxUploadSize:           getInt64("MAX_UPLOAD_SIZE", 1073741824),
		MaxEditSize:             getInt64("MAX_EDIT_SIZE", 5*1024*1024),
		EditableExtensions:      splitCSV(getEnv("EDITABLE_EXTENSIONS", defaultEditableExtensions)),
		AllowedMIMETypes:        splitCSV(strings.TrimSpace(os.Getenv("ALLOWED_MIME_TYPES"))),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		LockoutThreshold:        getInt("LOCKOUT_THRESHOLD", 10),
		LockoutWindow:           getDuration("LOCKOUT_WINDOW", time.Minute),
		LockoutCooldown:         getDuration("LOCKOUT_COOLDOWN", 5*time.Minute),
		StoreLockTimeout:        getDuration("STORE_LOCK_TIMEOUT", 3*time.Second),
		TrashRetentionDays:      getInt("TRASH_RETENTION_DAYS", 30),
		ActivityRetentionDays:   getInt("ACTIVITY_RETENTION_DAYS", 90),
		SearchMaxDepth:          getInt("SEARCH_MAX_DEPTH", 10),
		SearchTimeout:           getDuration("SEARCH_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

const defaultEditableExtensions = ".txt,.md,.markdown,.json,.yaml,.yml,.xml,.csv,.html,.htm,.css,.js,.ts,.go,.py,.rb,.sh,.sql,.ini,.conf,.toml,.env,.log"

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.StorageRoot) == "" {
		return fmt.Errorf("STORAGE_ROOT cannot be empty")
	}

	if strings.TrimSpace(c.TrashRoot) == "" {
		return fmt.Errorf("TRASH_ROOT cannot be empty")
	}

	if strings.TrimSpace(c.TrashIndexFile) == "" {
		return fmt.Errorf("TRASH_INDEX_FILE cannot be empty")
	}

	if strings.TrimSpace(c.ActivityLogFile) == "" {
		return fmt.Errorf("ACTIVITY_LOG_FILE cannot be empty")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.MaxEditSize <= 0 {
		return fmt.Errorf("MAX_EDIT_SIZE must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.StoreLockTimeout <= 0 {
		return fmt.Errorf("STORE_LOCK_TIMEOUT must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
