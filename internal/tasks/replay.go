package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tracker"
)

// Action is a media lifecycle event in a replay script.
type Action string

const (
	ActionLoad  Action = "load"
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionEnd   Action = "end"
	ActionSeek  Action = "seek" // position change only, watch time follows wall time
	ActionClose Action = "close"
)

// Offset is a script time. TOML accepts "1m30s" style strings or plain numbers of seconds.
type Offset struct {
	time.Duration
}

func (o *Offset) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		if secs, err := strconv.ParseFloat(val, 64); err == nil {
			o.Duration = time.Duration(secs * float64(time.Second))
			return nil
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", val, err)
		}
		o.Duration = d
	case int64:
		o.Duration = time.Duration(val) * time.Second
	case float64:
		o.Duration = time.Duration(val * float64(time.Second))
	default:
		return fmt.Errorf("invalid offset type %T", v)
	}
	return nil
}

// ScriptEvent is one timed action.
type ScriptEvent struct {
	At     Offset `toml:"at"`
	Action Action `toml:"action"`
	Video  string `toml:"video"`
	To     Offset `toml:"to"`
}

// Script is a replayable viewing session.
//
//	viewer = "guest"
//
//	[[event]]
//	at = "0s"
//	action = "load"
//	video = "665f1c..."
type Script struct {
	Name     string        `toml:"name"`
	Viewer   string        `toml:"viewer"`
	ViewerID string        `toml:"viewer_id"`
	Events   []ScriptEvent `toml:"event"`
}

// ParseScript decodes and validates a TOML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if _, err := toml.Decode(string(data), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads and parses the script at path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// Validate checks event order, actions and that playback only happens between a load and close.
func (s *Script) Validate() error {
	if len(s.Events) == 0 {
		return fmt.Errorf("%w: script has no events", shared.ErrInvalidInput)
	}
	if s.Viewer != "" && s.Viewer != string(models.ViewerGuest) && s.Viewer != string(models.ViewerUser) {
		return fmt.Errorf("%w: viewer must be guest or user, got %q", shared.ErrInvalidInput, s.Viewer)
	}

	loaded, closed := false, false
	var prev time.Duration
	for i, ev := range s.Events {
		if ev.At.Duration < prev {
			return fmt.Errorf("%w: event %d at %v is before the previous event", shared.ErrInvalidInput, i+1, ev.At.Duration)
		}
		prev = ev.At.Duration

		if closed && ev.Action != ActionClose {
			return fmt.Errorf("%w: event %d: %s after close", shared.ErrInvalidInput, i+1, ev.Action)
		}

		switch ev.Action {
		case ActionLoad:
			if ev.Video == "" {
				return fmt.Errorf("%w: event %d: load needs a video", shared.ErrInvalidInput, i+1)
			}
			loaded = true
		case ActionPlay, ActionPause, ActionEnd, ActionSeek:
			if !loaded {
				return fmt.Errorf("%w: event %d: %s before any load", shared.ErrInvalidInput, i+1, ev.Action)
			}
		case ActionClose:
			closed = true
		default:
			return fmt.Errorf("%w: event %d: unknown action %q", shared.ErrInvalidInput, i+1, ev.Action)
		}
	}
	return nil
}

// ResolveViewer picks the script's viewer, falling back to the caller's for anything the script leaves out.
func (s *Script) ResolveViewer(fallback models.Viewer) (models.Viewer, error) {
	v := fallback
	if s.Viewer != "" {
		v.Kind = models.ViewerKind(s.Viewer)
		if v.Kind != fallback.Kind {
			v.ID = ""
		}
	}
	if s.ViewerID != "" {
		v.ID = s.ViewerID
	}
	if err := v.Validate(); err != nil {
		return models.Viewer{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return v, nil
}

// ReplayOpts configures [Engine.Replay].
type ReplayOpts struct {
	Reporter tracker.Reporter
	Flags    tracker.ViewFlags
	Viewer   models.Viewer   // used where the script names no viewer
	Tracker  tracker.Options // Clock and OnEvent are replaced
	Start    time.Time       // virtual start time, defaults to the Unix epoch
}

// ReplayResult summarizes the requests a replay produced.
type ReplayResult struct {
	Steps     int
	Events    []tracker.Event
	WatchTime map[string]int // seconds sent per video
	Views     int
	History   int
	Failures  int
	Final     tracker.Session
}

// TotalWatchTime sums the seconds sent for every video.
func (r *ReplayResult) TotalWatchTime() int {
	total := 0
	for _, s := range r.WatchTime {
		total += s
	}
	return total
}

func (r *ReplayResult) record(ev tracker.Event) {
	r.Events = append(r.Events, ev)
	if ev.Err != nil {
		r.Failures++
	}
	switch ev.Kind {
	case tracker.EventWatchTime:
		r.WatchTime[ev.VideoID] += ev.Seconds
	case tracker.EventView:
		r.Views++
	case tracker.EventHistory:
		r.History++
	}
}

// Replay drives a tracker through script on a virtual clock.
//
// Time jumps straight to each event, so a long session replays instantly while samples still fire
// at their scheduled virtual times. Requests completed by each step are attached to its update.
func (e *Engine) Replay(ctx context.Context, prog chan<- ProgressUpdate, script *Script, opts ReplayOpts) (*ReplayResult, error) {
	if opts.Reporter == nil {
		return nil, fmt.Errorf("%w: no reporter configured", shared.ErrServiceUnavailable)
	}
	if opts.Flags == nil {
		return nil, fmt.Errorf("%w: no view flag store configured", shared.ErrInvalidInput)
	}
	viewer, err := script.ResolveViewer(opts.Viewer)
	if err != nil {
		return nil, err
	}

	start := opts.Start
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	clock := tracker.NewManualClock(start)

	var mu sync.Mutex
	var pending []tracker.Event

	topts := opts.Tracker
	topts.Clock = clock
	if topts.Logger == nil {
		topts.Logger = e.logger
	}
	topts.OnEvent = func(ev tracker.Event) {
		mu.Lock()
		defer mu.Unlock()
		pending = append(pending, ev)
	}
	tr := tracker.New(opts.Reporter, opts.Flags, topts)

	result := &ReplayResult{Steps: len(script.Events), WatchTime: map[string]int{}}

	drain := func() ([]tracker.Event, error) {
		if err := tr.Wait(ctx); err != nil {
			return nil, err
		}
		mu.Lock()
		batch := pending
		pending = nil
		mu.Unlock()

		slices.SortStableFunc(batch, func(a, b tracker.Event) int {
			return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.VideoID, b.VideoID))
		})
		for _, ev := range batch {
			result.record(ev)
		}
		return batch, nil
	}

	for i, ev := range script.Events {
		if err := ctx.Err(); err != nil {
			tr.Close()
			return result, err
		}

		clock.AdvanceTo(start.Add(ev.At.Duration))
		reqs, err := drain()
		if err != nil {
			return result, err
		}

		switch ev.Action {
		case ActionLoad:
			if err := tr.Load(ctx, ev.Video, viewer); err != nil {
				tr.Close()
				return result, fmt.Errorf("event %d: %w", i+1, err)
			}
		case ActionPlay:
			tr.Play()
		case ActionPause, ActionEnd:
			tr.PauseOrEnd()
		case ActionSeek:
			e.logger.Debug("seek does not affect watch time", "to", ev.To.Duration)
		case ActionClose:
			tr.Close()
		}

		batch, err := drain()
		if err != nil {
			return result, err
		}
		reqs = append(reqs, batch...)

		snap, _ := tr.Snapshot()
		e.sendProgress(prog, replayStepUpdate(i+1, len(script.Events), ev, snap, reqs))
	}

	tr.Close()
	if _, err := drain(); err != nil {
		return result, err
	}
	result.Final, _ = tr.Snapshot()

	e.sendProgress(prog, replayDoneUpdate(result))
	return result, nil
}

// DryRunReporter accepts every tracking call without sending anything.
type DryRunReporter struct{}

func (DryRunReporter) RegisterView(ctx context.Context, videoID string, viewer models.Viewer) error {
	return nil
}

func (DryRunReporter) AddWatchTime(ctx context.Context, videoID string, seconds int) error {
	return nil
}

func (DryRunReporter) AddHistory(ctx context.Context, videoID string) error {
	return nil
}
