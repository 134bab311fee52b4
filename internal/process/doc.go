package process

// Package process runs an external shell command, streaming its combined
// stdout/stderr line by line to a callback on the caller's goroutine.
// It knows nothing about yt-dlp, percentages or chat state.
