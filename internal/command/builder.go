// Package command builds the yt-dlp shell command for a download target.
// The result is one opaque string handed to the process runner.
package command

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ytget/yt-bot/internal/model"
)

// yt-dlp flags
const (
	DefaultBinary  = "yt-dlp"
	OutputTemplate = "%(title)s.%(ext)s"
	VideoFormat    = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	MergeFormat    = "mp4"
	AudioFormat    = "mp3"
)

// ErrEmptyOutputDir is returned when no output directory is given
var ErrEmptyOutputDir = errors.New("output directory is empty")

// Builder turns a target into a yt-dlp invocation
type Builder struct {
	binary    string
	extraArgs []string
}

// NewBuilder creates a builder for the given binary, falling back to yt-dlp on PATH
func NewBuilder(binary string) *Builder {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Builder{binary: binary}
}

// SetExtraArgs appends raw arguments (already trusted) before the source
func (b *Builder) SetExtraArgs(args []string) {
	b.extraArgs = args
}

// Build returns the shell command downloading target into outputDir
func (b *Builder) Build(target model.Target, outputDir string) (string, error) {
	if err := target.Validate(); err != nil {
		return "", fmt.Errorf("invalid target: %w", err)
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", ErrEmptyOutputDir
	}

	args := []string{
		Quote(b.binary),
		"--newline",
		"--no-playlist",
		"--restrict-filenames",
		"-o", Quote(filepath.Join(outputDir, OutputTemplate)),
	}

	switch target.Kind {
	case model.MediaVideo:
		args = append(args, "-f", Quote(VideoFormat), "--merge-output-format", MergeFormat)
	case model.MediaAudio:
		args = append(args, "-x", "--audio-format", AudioFormat)
	default:
		return "", fmt.Errorf("unsupported media kind %q", target.Kind)
	}

	args = append(args, b.extraArgs...)
	args = append(args, "--", Quote(target.Source()))
	return strings.Join(args, " "), nil
}

// Quote wraps s in POSIX single quotes
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
