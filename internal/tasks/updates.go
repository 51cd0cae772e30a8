package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tracker"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReplayStep Phase = iota
	ReplayDone
	FetchHistory
	ExportHistory
	RemoveHistory
)

func (p Phase) String() string {
	switch p {
	case ReplayStep:
		return "replay_step"
	case ReplayDone:
		return "replay_done"
	case FetchHistory:
		return "fetch_history"
	case ExportHistory:
		return "export_history"
	case RemoveHistory:
		return "remove_history"
	default:
		return ""
	}
}

// StepData is attached to [ReplayStep] updates.
type StepData struct {
	Event    ScriptEvent
	Session  tracker.Session
	Requests []tracker.Event
}

func replayStepUpdate(step, total int, ev ScriptEvent, s tracker.Session, reqs []tracker.Event) ProgressUpdate {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", shared.FormatDuration(int(ev.At.Seconds())), ev.Action)
	if ev.Video != "" {
		fmt.Fprintf(&b, " %s", ev.Video)
	}
	fmt.Fprintf(&b, " -> %s, watched %ds, synced %ds", s.State, s.Watched(), s.Synced)
	for _, r := range reqs {
		b.WriteString("\n    " + describeRequest(r))
	}

	return ProgressUpdate{
		Phase:   ReplayStep,
		Step:    step,
		Total:   total,
		Message: b.String(),
		Data:    StepData{Event: ev, Session: s, Requests: reqs},
	}
}

func describeRequest(r tracker.Event) string {
	status := "ok"
	if r.Err != nil {
		status = "failed: " + r.Err.Error()
	}
	switch r.Kind {
	case tracker.EventWatchTime:
		return fmt.Sprintf("POST /videos/%s/watchtime +%ds (%s)", r.VideoID, r.Seconds, status)
	case tracker.EventView:
		return fmt.Sprintf("POST /videos/%s/view as %s (%s)", r.VideoID, r.Viewer, status)
	case tracker.EventHistory:
		return fmt.Sprintf("POST /history/%s (%s)", r.VideoID, status)
	default:
		return r.Kind.String()
	}
}

func replayDoneUpdate(res *ReplayResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReplayDone,
		Step:    res.Steps,
		Total:   res.Steps,
		Message: fmt.Sprintf("Replay finished: %d views, %d history, %ds watch time, %d failed", res.Views, res.History, res.TotalWatchTime(), res.Failures),
		Data:    res,
	}
}

func fetchHistoryUpdate(count int) ProgressUpdate {
	if count < 0 {
		return ProgressUpdate{Phase: FetchHistory, Step: 0, Total: 1, Message: "Fetching watch history..."}
	}
	return ProgressUpdate{
		Phase:   FetchHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d history entries", count),
	}
}

func exportHistoryUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d entries to %s", count, path),
	}
}

func removeCompletedUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ removed %s", step, total, id),
	}
}

func removeFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}
