// Package config loads frontdesk settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/frontdesk/internal/objectstore"
)

// Config holds application configuration.
type Config struct {
	// Server
	Port           string
	BaseURL        string
	AllowedOrigins []string
	LogLevel       string

	// Storage
	DBPath   string
	Location *time.Location

	// Scanning
	ScanDebounce time.Duration
	ScanRate     float64
	ScanBurst    int
	RedisAddr    string

	// Object storage and backups
	S3                  objectstore.Config
	BackupPassphrase    string
	BackupHour          int
	BackupRetentionDays int

	// Email
	PostmarkToken string
	FromEmail     string
}

// Load reads configuration from FRONTDESK_* environment variables.
// Malformed values are errors rather than silently replaced by defaults.
func Load() (*Config, error) {
	l := loader{}
	cfg := &Config{
		Port:           getEnv("FRONTDESK_PORT", "8080"),
		AllowedOrigins: splitList(getEnv("FRONTDESK_ALLOWED_ORIGINS", "")),
		LogLevel:       getEnv("FRONTDESK_LOG_LEVEL", "info"),
		DBPath:         getEnv("FRONTDESK_DB_PATH", "frontdesk.db"),
		Location:       l.getLocation("FRONTDESK_TIMEZONE"),

		ScanDebounce: l.getDuration("FRONTDESK_SCAN_DEBOUNCE", 5*time.Second),
		ScanRate:     l.getFloat("FRONTDESK_SCAN_RATE", 5),
		ScanBurst:    l.getInt("FRONTDESK_SCAN_BURST", 20),
		RedisAddr:    getEnv("FRONTDESK_REDIS_ADDR", ""),

		S3: objectstore.Config{
			Endpoint:  getEnv("FRONTDESK_S3_ENDPOINT", ""),
			Bucket:    getEnv("FRONTDESK_S3_BUCKET", ""),
			Region:    getEnv("FRONTDESK_S3_REGION", "us-east-1"),
			AccessKey: getEnv("FRONTDESK_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("FRONTDESK_S3_SECRET_KEY", ""),
		},
		BackupPassphrase:    getEnv("FRONTDESK_BACKUP_PASSPHRASE", ""),
		BackupHour:          l.getInt("FRONTDESK_BACKUP_HOUR", 3),
		BackupRetentionDays: l.getInt("FRONTDESK_BACKUP_RETENTION_DAYS", 30),

		PostmarkToken: getEnv("FRONTDESK_POSTMARK_TOKEN", ""),
		FromEmail:     getEnv("FRONTDESK_FROM_EMAIL", ""),
	}
	cfg.BaseURL = strings.TrimRight(getEnv("FRONTDESK_BASE_URL", "http://localhost:"+cfg.Port), "/")

	if l.err != nil {
		return nil, l.err
	}
	if cfg.BackupHour < 0 || cfg.BackupHour > 23 {
		return nil, fmt.Errorf("FRONTDESK_BACKUP_HOUR must be 0-23, got %d", cfg.BackupHour)
	}
	if cfg.ScanDebounce < 0 {
		return nil, fmt.Errorf("FRONTDESK_SCAN_DEBOUNCE must not be negative")
	}
	if cfg.ScanRate <= 0 || cfg.ScanBurst <= 0 {
		return nil, fmt.Errorf("FRONTDESK_SCAN_RATE and FRONTDESK_SCAN_BURST must be positive")
	}
	return cfg, nil
}

// HasS3 returns true if object storage is configured.
func (c *Config) HasS3() bool {
	return c.S3.Enabled()
}

// HasBackup returns true if scheduled backups can run.
func (c *Config) HasBackup() bool {
	return c.HasS3() && c.BackupPassphrase != ""
}

// HasEmail returns true if member cards can be emailed.
func (c *Config) HasEmail() bool {
	return c.PostmarkToken != "" && c.FromEmail != ""
}

// HasRedis returns true if debounce state is shared through Redis.
func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loader keeps the first parse error so Load can report it once.
type loader struct {
	err error
}

func (l *loader) fail(key, value string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (l *loader) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		l.fail(key, value, err)
		return defaultValue
	}
	return i
}

func (l *loader) getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		l.fail(key, value, err)
		return defaultValue
	}
	return f
}

func (l *loader) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.fail(key, value, err)
		return defaultValue
	}
	return d
}

func (l *loader) getLocation(key string) *time.Location {
	value := os.Getenv(key)
	if value == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		l.fail(key, value, err)
		return time.Local
	}
	return loc
}
