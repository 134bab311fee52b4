package platform

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SourceKind classifies free text sent by a user
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceVideo
	SourcePlaylist
	SourceQuery
	SourceUnsupported
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
	MaxQueryLength = 200
)

var (
	videoLinkRe = regexp.MustCompile(`(?:^|[\s/.])(?:https?://)?(?:www\.|m\.|music\.)?(?:youtube\.com/(?:watch\?(?:[^\s#]*&)?v=|shorts/|embed/|live/)|youtu\.be/)([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`)
	youtubeHost = regexp.MustCompile(`(?i)(?:^|[/.\s])(?:youtube\.com|youtu\.be)(?:/|$)`)
	anyLinkRe   = regexp.MustCompile(`(?i)\bhttps?://\S+`)
)

// Source is the parsed form of a user message
type Source struct {
	Kind       SourceKind
	VideoID    string
	PlaylistID string
	Query      string
}

// ParseSource classifies text as a video link, a playlist link, a search
// query, or an unsupported link. A link carrying both a video and a playlist
// resolves to the video.
func ParseSource(text string) Source {
	text = strings.TrimSpace(text)
	if text == "" {
		return Source{Kind: SourceNone}
	}

	if m := videoLinkRe.FindStringSubmatch(text); m != nil {
		return Source{Kind: SourceVideo, VideoID: m[1]}
	}

	if youtubeHost.MatchString(text) {
		if id := extractPlaylistID(text); id != "" {
			return Source{Kind: SourcePlaylist, PlaylistID: id}
		}
		return Source{Kind: SourceUnsupported}
	}

	if anyLinkRe.MatchString(text) {
		return Source{Kind: SourceUnsupported}
	}

	return Source{Kind: SourceQuery, Query: truncateQuery(text)}
}

// extractPlaylistID extracts the playlist ID from various URL formats
func extractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.SplitN(url, PlaylistParam, 2)
	playlistPart := parts[1]
	if strings.Contains(playlistPart, ParamSeparator) {
		playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
	}
	if i := strings.IndexAny(playlistPart, " #\n\t"); i >= 0 {
		playlistPart = playlistPart[:i]
	}
	return playlistPart
}

func truncateQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if utf8.RuneCountInString(q) <= MaxQueryLength {
		return q
	}
	runes := []rune(q)
	return string(runes[:MaxQueryLength])
}
