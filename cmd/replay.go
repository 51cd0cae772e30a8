package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/vtx/internal/repositories"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tasks"
	"github.com/urfave/cli/v3"
)

type replaySummary struct {
	Script    string         `json:"script"`
	Viewer    string         `json:"viewer"`
	Steps     int            `json:"steps"`
	Views     int            `json:"views"`
	History   int            `json:"history"`
	WatchTime map[string]int `json:"watchTime"`
	Total     int            `json:"totalWatchTime"`
	Failures  int            `json:"failures"`
	DryRun    bool           `json:"dryRun"`
}

// Replay runs a TOML playback script through the tracker on a virtual clock.
//
// With --dry-run nothing is sent and view flags live in memory, so the real flags are untouched.
func (r *Runner) Replay(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("script")
	if path == "" {
		return fmt.Errorf("%w: script path is required", shared.ErrMissingArgument)
	}
	dryRun := cmd.Bool("dry-run")
	asJSON := cmd.Bool("json")

	script, err := tasks.LoadScript(path)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	fallback, err := r.viewer(ctx, cmd.Bool("guest"))
	if err != nil {
		return err
	}

	opts := tasks.ReplayOpts{
		Reporter: r.api,
		Flags:    r.flags,
		Viewer:   fallback,
		Tracker:  r.trackerOptions(),
	}
	if dryRun {
		opts.Reporter = tasks.DryRunReporter{}
		opts.Flags = repositories.NewViewFlagRepository(repositories.NewMemoryStore())
	}

	name := script.Name
	if name == "" {
		name = path
	}
	r.logger.Info("replaying script", "script", name, "events", len(script.Events), "dry_run", dryRun)

	progressCh, finish := r.progress(func(update tasks.ProgressUpdate) {
		if asJSON {
			return
		}
		switch update.Phase {
		case tasks.ReplayStep:
			r.writePlain("%s\n", update.Message)
		case tasks.ReplayDone:
			r.writePlain("\n✓ %s\n", update.Message)
		}
	})
	if !asJSON {
		r.writePlainHeader("Replay: " + name)
	}

	result, err := r.engine.Replay(ctx, progressCh, script, opts)
	finish()
	if err != nil {
		return err
	}

	summary := replaySummary{
		Script:    name,
		Viewer:    result.Final.Viewer.String(),
		Steps:     result.Steps,
		Views:     result.Views,
		History:   result.History,
		WatchTime: result.WatchTime,
		Total:     result.TotalWatchTime(),
		Failures:  result.Failures,
		DryRun:    dryRun,
	}
	if asJSON {
		return r.writeJSON(summary, true)
	}

	if len(result.WatchTime) > 0 {
		r.writePlainln("Watch time per video:")
		ids := make([]string, 0, len(result.WatchTime))
		for id := range result.WatchTime {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			r.writePlain("  %s  %ds\n", id, result.WatchTime[id])
		}
	}
	if result.Failures > 0 {
		r.writePlainln("%d request(s) failed:", result.Failures)
		for _, ev := range result.Events {
			if ev.Err != nil {
				r.writePlain("  - %s %s: %v\n", ev.Kind, ev.VideoID, ev.Err)
			}
		}
	}
	return nil
}
