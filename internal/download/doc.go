package download

// Package download implements the job pipeline: admission, a bounded worker
// pool fed by a queue with backpressure, and the per-job state machine that
// runs yt-dlp in an isolated work area, throttles progress edits, resolves
// the produced file and hands it to the deliverer.
