package platform

// Package platform contains filesystem and external tooling glue: yt-dlp
// progress parsing, per-job working directories, source link parsing and
// playlist expansion.
