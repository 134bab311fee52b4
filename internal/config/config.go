package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults
const (
	DefaultDBDriver        = "sqlite"
	DefaultDBDSN           = "bot_database.sqlite"
	DefaultWorkDir         = "downloads"
	DefaultYtDlpBinary     = "yt-dlp"
	DefaultWorkers         = 2
	MinWorkers             = 1
	MaxWorkers             = 10
	DefaultQueueSize       = 32
	DefaultJobTimeout      = 30 * time.Minute
	DefaultUploadLimitMB   = 49
	DefaultS3Region        = "us-east-1"
	DefaultS3LinkTTL       = 24 * time.Hour
	MaxS3LinkTTL           = 7 * 24 * time.Hour
	DefaultLanguage        = "uz"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultPlaylistLimit   = 10
	MaxPlaylistLimit       = 50
	DefaultTelegramTimeout = 60
)

// Config holds everything read from the environment at startup
type Config struct {
	Environment string

	Telegram TelegramConfig
	Database DatabaseConfig
	Download DownloadConfig
	S3       S3Config

	MetricsAddr string
	Language    string
	LogLevel    string
	LogFormat   string
}

// TelegramConfig configures the bot transport
type TelegramConfig struct {
	Token       string
	OperatorID  int64
	APIEndpoint string // empty means the public Bot API
	PollTimeout int    // long-poll timeout in seconds
	UploadLimit int64  // bytes
}

// DatabaseConfig selects the persistence backend
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// DownloadConfig controls the job pipeline
type DownloadConfig struct {
	WorkDir       string
	YtDlpBinary   string
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	PlaylistLimit int
}

// S3Config configures the oversized artifact fallback. It is disabled
// when Bucket is empty.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	LinkTTL         time.Duration
}

// Enabled reports whether S3 fallback is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads .env files and the environment. It does not validate; callers
// pick Validate or ValidateDatabase depending on what they run.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	return parse()
}

// Validate checks everything the bot process needs
func (c *Config) Validate() error {
	var errs []string
	if c.Telegram.Token == "" {
		errs = append(errs, "BOT_TOKEN is required")
	}
	if c.Telegram.OperatorID < 0 {
		errs = append(errs, "OPERATOR_ID must not be negative")
	}
	if err := c.ValidateDatabase(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Download.WorkDir == "" {
		errs = append(errs, "WORK_DIR must not be empty")
	}
	if c.Download.JobTimeout <= 0 {
		errs = append(errs, "JOB_TIMEOUT must be positive")
	}
	if c.S3.Enabled() && (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		errs = append(errs, "S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	switch c.Language {
	case "uz", "en", "ru":
	default:
		errs = append(errs, fmt.Sprintf("unsupported LANGUAGE %q", c.Language))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateDatabase checks only the database section
func (c *Config) ValidateDatabase() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	return nil
}

// ClampWorkers limits the worker count to the supported range
func ClampWorkers(n int) int {
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
