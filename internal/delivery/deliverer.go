package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/ytget/yt-bot/internal/i18n"
	"github.com/ytget/yt-bot/internal/model"
)

// Delivery methods reported to metrics
const (
	MethodTelegram = "telegram"
	MethodLink     = "link"
)

// Sender uploads media and plain messages to a chat
type Sender interface {
	SendMedia(ctx context.Context, chatID int64, artifact model.Artifact) error
	SendText(ctx context.Context, chatID int64, text string) error
}

// ObjectStore keeps oversized artifacts and issues temporary links to them
type ObjectStore interface {
	Upload(ctx context.Context, key, filePath string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Translator renders user-facing texts
type Translator interface {
	Textf(key string, args ...any) string
}

// Options configures a Deliverer
type Options struct {
	UploadLimit int64 // bytes, 0 means no limit
	Store       ObjectStore
	KeyPrefix   string
	LinkTTL     time.Duration
	Texts       Translator
	Logger      *slog.Logger
}

// Deliverer picks the delivery method by artifact size
type Deliverer struct {
	sender Sender
	store  ObjectStore
	prefix string
	ttl    time.Duration
	limit  int64
	texts  Translator
	logger *slog.Logger
}

// NewDeliverer creates a deliverer. Without a store, artifacts above the
// upload limit fail with model.ErrArtifactTooLarge.
func NewDeliverer(sender Sender, opts Options) *Deliverer {
	if opts.Texts == nil {
		opts.Texts = i18n.NewLocalization(i18n.DefaultLanguage)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = 24 * time.Hour
	}
	return &Deliverer{
		sender: sender,
		store:  opts.Store,
		prefix: opts.KeyPrefix,
		ttl:    opts.LinkTTL,
		limit:  opts.UploadLimit,
		texts:  opts.Texts,
		logger: opts.Logger.With("component", "delivery"),
	}
}

// DeliverArtifact sends artifact to chatID and returns the method used
func (d *Deliverer) DeliverArtifact(ctx context.Context, chatID int64, artifact model.Artifact) (string, error) {
	if d.limit <= 0 || artifact.Size <= d.limit {
		if err := d.sender.SendMedia(ctx, chatID, artifact); err != nil {
			return "", fmt.Errorf("failed to upload %s: %w", artifact.Name(), err)
		}
		return MethodTelegram, nil
	}

	if d.store == nil {
		return "", fmt.Errorf("%s is %s, limit %s: %w", artifact.Name(),
			humanize.IBytes(uint64(artifact.Size)), humanize.IBytes(uint64(d.limit)), model.ErrArtifactTooLarge)
	}

	key := d.objectKey(artifact)
	d.logger.Info("artifact above upload limit, using object storage",
		"chat_id", chatID, "size", artifact.Size, "limit", d.limit, "key", key)
	if err := d.store.Upload(ctx, key, artifact.Path); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", artifact.Name(), err)
	}
	link, err := d.store.PresignGet(ctx, key, d.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	text := d.texts.Textf(i18n.KeyDownloadLink, humanize.IBytes(uint64(artifact.Size)), formatTTL(d.ttl), link)
	if err := d.sender.SendText(ctx, chatID, text); err != nil {
		return "", fmt.Errorf("failed to send download link: %w", err)
	}
	return MethodLink, nil
}

// objectKey places every artifact under its own ULID so equal titles do not
// collide in the bucket
func (d *Deliverer) objectKey(artifact model.Artifact) string {
	return path.Join(d.prefix, ulid.Make().String(), artifact.Name())
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(ttl/time.Hour))
	}
	return ttl.Round(time.Minute).String()
}
