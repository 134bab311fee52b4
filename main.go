package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytget/yt-bot/internal/bot"
	"github.com/ytget/yt-bot/internal/command"
	"github.com/ytget/yt-bot/internal/config"
	"github.com/ytget/yt-bot/internal/delivery"
	"github.com/ytget/yt-bot/internal/download"
	"github.com/ytget/yt-bot/internal/gate"
	"github.com/ytget/yt-bot/internal/i18n"
	"github.com/ytget/yt-bot/internal/metrics"
	"github.com/ytget/yt-bot/internal/platform"
	"github.com/ytget/yt-bot/internal/process"
	"github.com/ytget/yt-bot/internal/store"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppName = "yt-bot"

	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", version, "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	settings := config.NewSettings(db)
	flags := gate.NewFlags()
	if err := flags.Reload(ctx, settings); err != nil {
		logger.Warn("failed to load maintenance mode, assuming off", "error", err)
	}
	keeper := gate.NewKeeper(flags, db, cfg.Telegram.OperatorID, logger)

	// Work area
	if err := platform.CreateDirectoryIfNotExists(cfg.Download.WorkDir); err != nil {
		return fmt.Errorf("failed to ensure work dir: %w", err)
	}
	arena := platform.NewArena(cfg.Download.WorkDir)
	if n, err := arena.Sweep(); err != nil {
		logger.Warn("failed to sweep stale work areas", "root", arena.Root(), "error", err)
	} else if n > 0 {
		logger.Info("removed stale work areas", "count", n)
	}

	texts := i18n.NewLocalization(cfg.Language)
	recorder := metrics.New()

	client, err := bot.NewClient(cfg.Telegram, logger)
	if err != nil {
		return err
	}

	var objects delivery.ObjectStore
	if cfg.S3.Enabled() {
		s3Store, err := delivery.NewS3Store(ctx, cfg.S3, logger)
		if err != nil {
			return err
		}
		objects = s3Store
	}
	deliverer := delivery.NewDeliverer(client, delivery.Options{
		UploadLimit: cfg.Telegram.UploadLimit,
		Store:       objects,
		KeyPrefix:   cfg.S3.Prefix,
		LinkTTL:     cfg.S3.LinkTTL,
		Texts:       texts,
		Logger:      logger,
	})

	// Pipeline
	service := download.NewService(download.Deps{
		Chat:      client,
		Deliverer: deliverer,
		Runner:    process.NewRunner(),
		WorkAreas: arena,
		Builder:   command.NewBuilder(cfg.Download.YtDlpBinary),
		Stats:     db,
		Texts:     texts,
		Recorder:  recorder,
		Logger:    logger,
	})
	dispatcher := download.NewDispatcher(service, keeper, download.Options{
		Workers:    cfg.Download.Workers,
		QueueSize:  cfg.Download.QueueSize,
		JobTimeout: cfg.Download.JobTimeout,
		Notifier:   client,
		Texts:      texts,
		Recorder:   recorder,
		Logger:     logger,
	})
	dispatcher.Start()

	handler := bot.NewHandler(bot.Deps{
		Messenger: client,
		Jobs:      dispatcher,
		Users:     db,
		Settings:  settings,
		Flags:     flags,
		Gate:      keeper,
		Playlists: platform.NewPlaylistParserService(cfg.Download.PlaylistLimit),
		Texts:     texts,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return recorder.Serve(gctx, cfg.MetricsAddr, logger)
		})
	}
	g.Go(func() error {
		defer stop()
		logger.Info("listening for updates", "username", client.Username())
		return handler.Run(gctx, client.Updates(gctx))
	})
	err = g.Wait()

	logger.Info("shutting down", "active_jobs", len(dispatcher.Active()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if serr := dispatcher.Shutdown(shutdownCtx); serr != nil {
		logger.Error("dispatcher did not stop cleanly", "error", serr)
	}
	logger.Info("stopped")
	return err
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
