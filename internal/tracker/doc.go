// Package tracker accumulates watch time for one viewer watching one video and reports it to the backend.
//
// A [Tracker] owns a single playback session at a time:
//   - [Tracker.Load] : start watching a video (finalizes any previous session first)
//   - [Tracker.Play] / [Tracker.PauseOrEnd] : media lifecycle events
//   - periodic samples every [Options.SampleInterval] while playing
//   - [Tracker.Close] : teardown flush
//
// Watched time is sent as whole-second deltas: floor(total) minus what was already sent, only when positive.
// Delivery is at most once. Requests are fire-and-forget, failures are logged and the delta is dropped.
//
// Each (video, viewer) pair registers at most one view, guarded by a persisted [ViewFlags] entry
// that is written before the registration request goes out.
package tracker
