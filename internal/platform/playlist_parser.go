package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultPlaylistParseTimeout = 30 * time.Second
	DefaultPlaylistLimit        = 10
)

// Title constants
const (
	MaxEntryTitleLength = 48
	TitleTruncateSuffix = "..."
)

// PlaylistEntry is a single video offered from a playlist link
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// PlaylistFetcher lists the videos of a playlist
type PlaylistFetcher func(ctx context.Context, playlistID string) ([]PlaylistEntry, error)

// PlaylistParserService expands a playlist link into a bounded list of videos
type PlaylistParserService struct {
	timeout time.Duration
	limit   int
	fetch   PlaylistFetcher
}

// NewPlaylistParserService creates a parser backed by the ytdlp library
func NewPlaylistParserService(limit int) *PlaylistParserService {
	if limit <= 0 {
		limit = DefaultPlaylistLimit
	}
	return &PlaylistParserService{
		timeout: DefaultPlaylistParseTimeout,
		limit:   limit,
		fetch:   fetchWithLibrary,
	}
}

// SetTimeout sets the timeout for playlist parsing
func (p *PlaylistParserService) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// ParsePlaylist returns at most limit entries of the playlist, skipping
// entries without a usable video id.
func (p *PlaylistParserService) ParsePlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("empty playlist ID")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	items, err := p.fetch(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]PlaylistEntry, 0, min(len(items), p.limit))
	for _, it := range items {
		if len(entries) == p.limit {
			break
		}
		if len(it.VideoID) != 11 {
			continue
		}
		entries = append(entries, PlaylistEntry{
			VideoID: it.VideoID,
			Title:   shortenTitle(it.Title, it.VideoID),
		})
	}
	return entries, nil
}

func fetchWithLibrary(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, PlaylistEntry{VideoID: it.VideoID, Title: it.Title})
	}
	return entries, nil
}

func shortenTitle(title, fallback string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fallback
	}
	runes := []rune(title)
	if len(runes) > MaxEntryTitleLength {
		return string(runes[:MaxEntryTitleLength]) + TitleTruncateSuffix
	}
	return title
}
