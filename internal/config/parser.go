package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envParser reads typed variables and collects malformed values
type envParser struct {
	errs []string
}

func parse() (*Config, error) {
	p := &envParser{}

	uploadMB := p.getInt("TG_UPLOAD_LIMIT_MB", DefaultUploadLimitMB)
	if uploadMB <= 0 {
		uploadMB = DefaultUploadLimitMB
	}

	cfg := &Config{
		Environment: getEnv("ENV", getEnv("ENVIRONMENT", "local")),

		Telegram: TelegramConfig{
			Token:       getEnv("BOT_TOKEN", ""),
			OperatorID:  p.getInt64("OPERATOR_ID", 0),
			APIEndpoint: getEnv("TELEGRAM_API_ENDPOINT", ""),
			PollTimeout: p.getInt("TELEGRAM_POLL_TIMEOUT", DefaultTelegramTimeout),
			UploadLimit: int64(uploadMB) * 1024 * 1024,
		},

		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DefaultDBDriver)),
			DSN:    getEnv("DB_DSN", DefaultDBDSN),
		},

		Download: DownloadConfig{
			WorkDir:       getEnv("WORK_DIR", DefaultWorkDir),
			YtDlpBinary:   getEnv("YTDLP_BINARY", DefaultYtDlpBinary),
			Workers:       ClampWorkers(p.getInt("WORKERS", DefaultWorkers)),
			QueueSize:     p.getInt("QUEUE_SIZE", DefaultQueueSize),
			JobTimeout:    p.getDuration("JOB_TIMEOUT", DefaultJobTimeout),
			PlaylistLimit: p.getInt("PLAYLIST_LIMIT", DefaultPlaylistLimit),
		},

		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", DefaultS3Region),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          strings.Trim(getEnv("S3_PREFIX", ""), "/"),
			LinkTTL:         p.getDuration("S3_LINK_TTL", DefaultS3LinkTTL),
		},

		MetricsAddr: getEnv("METRICS_ADDR", ""),
		Language:    strings.ToLower(getEnv("LANGUAGE", DefaultLanguage)),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", DefaultLogFormat)),
	}
	if cfg.Database.Driver == "postgresql" {
		cfg.Database.Driver = "postgres"
	}
	applyLimits(cfg)

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(p.errs, "; "))
	}
	return cfg, nil
}

func applyLimits(cfg *Config) {
	if cfg.Download.QueueSize < 1 {
		cfg.Download.QueueSize = 1
	}
	if cfg.Download.PlaylistLimit < 1 {
		cfg.Download.PlaylistLimit = 1
	}
	if cfg.Download.PlaylistLimit > MaxPlaylistLimit {
		cfg.Download.PlaylistLimit = MaxPlaylistLimit
	}
	if cfg.S3.LinkTTL <= 0 || cfg.S3.LinkTTL > MaxS3LinkTTL {
		// presigned URLs cannot outlive seven days
		cfg.S3.LinkTTL = DefaultS3LinkTTL
	}
	if cfg.Telegram.PollTimeout < 0 {
		cfg.Telegram.PollTimeout = DefaultTelegramTimeout
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *envParser) getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return def
	}
	return v
}

func (p *envParser) getInt64(key string, def int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return def
	}
	return v
}

func (p *envParser) getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %q is not a duration", key, raw))
		return def
	}
	return v
}
