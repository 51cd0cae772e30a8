package tracker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

const (
	DefaultSampleInterval = 5 * time.Second
	DefaultMinBatch       = 10 * time.Second
	DefaultViewThreshold  = 3 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// State is the playback state of a session.
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reporter sends tracking calls to the backend.
type Reporter interface {
	RegisterView(ctx context.Context, videoID string, viewer models.Viewer) error
	AddWatchTime(ctx context.Context, videoID string, seconds int) error
	AddHistory(ctx context.Context, videoID string) error
}

// ViewFlags persists which viewers already registered a view for a video.
type ViewFlags interface {
	HasViewed(ctx context.Context, videoID string, viewer models.Viewer) (bool, error)
	MarkViewed(ctx context.Context, videoID string, viewer models.Viewer) error
}

// Session is the tracking state of the currently loaded video.
type Session struct {
	VideoID   string
	Viewer    models.Viewer
	State     State
	Total     time.Duration // watched time, never decreases
	Synced    int           // whole seconds already dispatched
	PlayStart time.Time     // zero while idle
	Viewed    bool
}

// Watched returns the whole seconds watched so far.
func (s Session) Watched() int {
	return int(s.Total / time.Second)
}

// Unsynced returns the whole seconds not yet dispatched.
func (s Session) Unsynced() int {
	return s.Watched() - s.Synced
}

// EventKind identifies which backend call an [Event] reports.
type EventKind int

const (
	EventView EventKind = iota
	EventWatchTime
	EventHistory
)

func (k EventKind) String() string {
	switch k {
	case EventView:
		return "view"
	case EventWatchTime:
		return "watchtime"
	case EventHistory:
		return "history"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event describes a completed backend call. Err is nil on success.
type Event struct {
	Kind    EventKind
	VideoID string
	Viewer  models.Viewer
	Seconds int
	Err     error
}

// Options configures a [Tracker]. Zero durations fall back to the defaults, except ViewThreshold.
type Options struct {
	SampleInterval time.Duration
	MinBatch       time.Duration
	// ViewThreshold is the watched time after which a view registers. Zero registers on the first play.
	ViewThreshold  time.Duration
	RequestTimeout time.Duration
	Clock          Clock
	Logger         *log.Logger
	// OnEvent, when set, is called from the request goroutine after every backend call.
	OnEvent func(Event)
}

// DefaultOptions returns the options used by the web client: 5s samples, 10s batches, 3s view threshold.
func DefaultOptions() Options {
	return Options{
		SampleInterval: DefaultSampleInterval,
		MinBatch:       DefaultMinBatch,
		ViewThreshold:  DefaultViewThreshold,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Tracker is the watch-time state machine. It is safe for concurrent use.
type Tracker struct {
	reporter Reporter
	flags    ViewFlags
	opts     Options
	clock    Clock
	logger   *log.Logger

	mu         sync.Mutex
	session    *Session
	sessLog    *log.Logger
	lastSample time.Time
	stopTick   func()
	gen        uint64
	closed     bool

	inflight sync.WaitGroup
}

// job is a backend call prepared under the lock and dispatched after it is released.
type job struct {
	kind    EventKind
	videoID string
	viewer  models.Viewer
	seconds int
	logger  *log.Logger
}

// New creates a [Tracker] with no session loaded.
func New(reporter Reporter, flags ViewFlags, opts Options) *Tracker {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.MinBatch <= 0 {
		opts.MinBatch = DefaultMinBatch
	}
	if opts.ViewThreshold < 0 {
		opts.ViewThreshold = 0
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Tracker{
		reporter: reporter,
		flags:    flags,
		opts:     opts,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// Load starts a session for videoID. An active session is finalized first:
// in-progress time is folded, its unsynced delta flushed and its timer stopped.
func (t *Tracker) Load(ctx context.Context, videoID string, viewer models.Viewer) error {
	if videoID == "" {
		return fmt.Errorf("%w: video id is required", shared.ErrInvalidInput)
	}
	if err := viewer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	viewed, err := t.flags.HasViewed(ctx, videoID, viewer)
	if err != nil {
		t.logger.Warn("view flag lookup failed", "video", videoID, "viewer", viewer.Key(), "error", err)
		viewed = false
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	jobs := t.finalizeLocked(t.clock.Now())

	t.session = &Session{VideoID: videoID, Viewer: viewer, State: Idle, Viewed: viewed}
	t.sessLog = shared.WithLogger(t.logger, "video", videoID, "viewer", viewer.Key())
	t.lastSample = time.Time{}
	t.sessLog.Debug("session loaded", "viewed", viewed)
	t.mu.Unlock()

	t.dispatch(jobs)
	return nil
}

// Play moves Idle to Playing. A second Play while playing is ignored.
//
// History is recorded on every transition for authenticated viewers.
func (t *Tracker) Play() {
	t.mu.Lock()
	s := t.session
	if t.closed || s == nil || s.State == Playing {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	s.State = Playing
	s.PlayStart = now
	t.lastSample = now
	t.gen++
	gen := t.gen
	t.stopTick = t.clock.Every(t.opts.SampleInterval, func(at time.Time) { t.sample(gen, at) })

	var jobs []job
	if s.Viewer.IsUser() {
		jobs = append(jobs, t.jobLocked(EventHistory, 0))
	}
	jobs = append(jobs, t.registerLocked()...)
	t.mu.Unlock()

	t.dispatch(jobs)
}

// PauseOrEnd moves Playing to Idle and flushes any unsynced seconds. Calling it while idle does nothing.
func (t *Tracker) PauseOrEnd() {
	t.mu.Lock()
	s := t.session
	if t.closed || s == nil || s.State != Playing {
		t.mu.Unlock()
		return
	}

	t.foldLocked(t.clock.Now())
	t.stopLocked()
	jobs := t.registerLocked()
	jobs = append(jobs, t.flushLocked()...)
	t.mu.Unlock()

	t.dispatch(jobs)
}

// Close finalizes the current session and disables the tracker. Later calls are no-ops.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	jobs := t.finalizeLocked(t.clock.Now())
	t.closed = true
	t.mu.Unlock()

	t.dispatch(jobs)
}

// Wait blocks until every dispatched request has completed or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current session with in-progress time included.
// The boolean is false when no session is loaded.
func (t *Tracker) Snapshot() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Session{}, false
	}
	s := *t.session
	if s.State == Playing {
		if elapsed := t.clock.Now().Sub(t.lastSample); elapsed > 0 {
			s.Total += elapsed
		}
	}
	return s, true
}

// Closed reports whether [Tracker.Close] has been called.
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// sample runs on each tick. Ticks from a stopped timer carry an old generation and are dropped.
func (t *Tracker) sample(gen uint64, at time.Time) {
	t.mu.Lock()
	s := t.session
	if t.closed || gen != t.gen || s == nil || s.State != Playing {
		t.mu.Unlock()
		return
	}

	t.foldLocked(at)
	jobs := t.registerLocked()
	if time.Duration(s.Unsynced())*time.Second >= t.opts.MinBatch {
		jobs = append(jobs, t.flushLocked()...)
	}
	t.mu.Unlock()

	t.dispatch(jobs)
}

// finalizeLocked folds, stops the timer and flushes the current session, if any.
func (t *Tracker) finalizeLocked(now time.Time) []job {
	s := t.session
	if s == nil {
		return nil
	}
	if s.State == Playing {
		t.foldLocked(now)
		t.stopLocked()
	}
	jobs := t.registerLocked()
	jobs = append(jobs, t.flushLocked()...)
	t.sessLog.Debug("session finalized", "watched", s.Watched(), "synced", s.Synced)
	return jobs
}

func (t *Tracker) foldLocked(now time.Time) {
	if elapsed := now.Sub(t.lastSample); elapsed > 0 {
		t.session.Total += elapsed
		t.lastSample = now
	}
}

func (t *Tracker) stopLocked() {
	if t.stopTick != nil {
		t.stopTick()
		t.stopTick = nil
	}
	t.gen++
	t.session.State = Idle
	t.session.PlayStart = time.Time{}
}

// flushLocked advances Synced to floor(Total) and returns the watchtime job for the difference.
func (t *Tracker) flushLocked() []job {
	delta := t.session.Unsynced()
	if delta <= 0 {
		return nil
	}
	t.session.Synced += delta
	return []job{t.jobLocked(EventWatchTime, delta)}
}

// registerLocked returns the view job once the session crosses the view threshold.
func (t *Tracker) registerLocked() []job {
	s := t.session
	if s.Viewed {
		return nil
	}
	if s.State != Playing && s.Total == 0 {
		return nil
	}
	if s.Total < t.opts.ViewThreshold {
		return nil
	}
	s.Viewed = true
	return []job{t.jobLocked(EventView, 0)}
}

func (t *Tracker) jobLocked(kind EventKind, seconds int) job {
	return job{
		kind:    kind,
		videoID: t.session.VideoID,
		viewer:  t.session.Viewer,
		seconds: seconds,
		logger:  t.sessLog,
	}
}

// dispatch sends jobs without blocking the caller. View flags are persisted before the request goes out.
func (t *Tracker) dispatch(jobs []job) {
	for _, j := range jobs {
		if j.kind == EventView {
			t.markViewed(j)
		}

		t.inflight.Add(1)
		go func(j job) {
			defer t.inflight.Done()

			ctx, cancel := context.WithTimeout(context.Background(), t.opts.RequestTimeout)
			defer cancel()

			err := t.send(ctx, j)
			if err != nil {
				j.logger.Warn("tracking request failed", "kind", j.kind, "seconds", j.seconds, "error", err)
			} else {
				j.logger.Debug("tracking request sent", "kind", j.kind, "seconds", j.seconds)
			}

			if t.opts.OnEvent != nil {
				t.opts.OnEvent(Event{Kind: j.kind, VideoID: j.videoID, Viewer: j.viewer, Seconds: j.seconds, Err: err})
			}
		}(j)
	}
}

func (t *Tracker) send(ctx context.Context, j job) error {
	switch j.kind {
	case EventView:
		return t.reporter.RegisterView(ctx, j.videoID, j.viewer)
	case EventWatchTime:
		return t.reporter.AddWatchTime(ctx, j.videoID, j.seconds)
	case EventHistory:
		return t.reporter.AddHistory(ctx, j.videoID)
	default:
		return fmt.Errorf("unknown event kind %v", j.kind)
	}
}

func (t *Tracker) markViewed(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), t.opts.RequestTimeout)
	defer cancel()

	if err := t.flags.MarkViewed(ctx, j.videoID, j.viewer); err != nil {
		j.logger.Warn("failed to persist view flag", "error", err)
	}
}
