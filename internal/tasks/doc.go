// Package tasks runs the client's longer operations with real-time progress reporting.
//
// # Replay
//
// [Engine.Replay] parses a TOML [Script] of timed lifecycle events (load, play, pause, end, seek, close)
// and drives a tracker against a [tracker.ManualClock]. The whole session replays instantly; periodic
// samples still fire at their virtual times, so batching behaves as it would live.
//
// Replays are used by `vtx replay` to exercise a backend, and with [DryRunReporter] to preview
// which requests a session would produce.
//
// # History
//
//  1. [Engine.FetchHistory] : fetch, optionally keep only resumable entries
//  2. [Engine.ExportHistory] : write JSON, CSV, Markdown (with thumbnails) or text via the formatter package
//  3. [Engine.BulkRemove] : worker pool deleting entries under a shared rate limiter
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
