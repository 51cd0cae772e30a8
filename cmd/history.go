package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/vtx/internal/formatter"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryList prints the watch history with a progress bar per entry.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	entries, err := r.engine.FetchHistory(ctx, nil, cmd.Bool("resumable"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No watch history\n")
	}

	r.writePlainHeader(fmt.Sprintf("Watch history (%d)", len(entries)))
	for i, h := range entries {
		resume := ""
		if h.Resumable() {
			resume = fmt.Sprintf("  resume at %s", shared.FormatDuration(int(h.WatchedSeconds)))
		}
		r.writePlain("%2d. %s\n", i+1, h.DisplayTitle())
		r.writePlain("    %s  %s / %s%s\n",
			formatter.ProgressBar(h.Progress(), 20),
			shared.FormatDuration(int(h.WatchedSeconds)),
			shared.FormatDuration(int(h.TotalDuration)),
			resume,
		)
		r.writePlain("    entry %s  video %s  %s\n", h.ID, h.VideoID, h.WatchedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// HistoryExport writes the watch history in the chosen format.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	switch format {
	case formatter.FormatJSON, formatter.FormatCSV, formatter.FormatMarkdown, formatter.FormatText:
	default:
		return fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidArgument, format)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	progressCh, finish := r.progress(func(update tasks.ProgressUpdate) {
		switch update.Phase {
		case tasks.FetchHistory:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.ExportHistory:
			r.writePlain("📝 %s\n", update.Message)
		}
	})

	result, err := r.engine.ExportHistory(ctx, progressCh, tasks.HistoryExportOpts{
		Format:        format,
		Path:          cmd.String("output"),
		Thumbnails:    cmd.Bool("thumbnails"),
		ResumableOnly: cmd.Bool("resumable"),
		Warn:          os.Stderr,
	})
	finish()
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d entries (%d resumable)", result.Entries, result.Resumable)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// HistoryRemove deletes history entries by id, or every finished entry with --finished.
func (r *Runner) HistoryRemove(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	finished := cmd.Bool("finished")
	if len(ids) == 0 && !finished {
		return fmt.Errorf("%w: pass entry ids or --finished", shared.ErrMissingArgument)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	if finished {
		entries, err := r.engine.FetchHistory(ctx, nil, false)
		if err != nil {
			return err
		}
		for _, h := range entries {
			if h.Progress() >= 95 {
				ids = append(ids, h.ID)
			}
		}
		if len(ids) == 0 {
			return r.writePlain("Nothing to remove\n")
		}
	}

	r.logger.Info("removing history entries", "count", len(ids))

	progressCh, finish := r.progress(func(update tasks.ProgressUpdate) {
		r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
	})
	result, err := r.engine.BulkRemove(ctx, progressCh, ids, tasks.BulkRemoveOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
	})
	finish()
	if err != nil {
		return err
	}

	r.writePlainln("✓ Removed %d/%d entries", result.Removed, result.Total)
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d removal(s) failed", shared.ErrAPIRequest, result.Failed)
	}
	return nil
}

// HistoryClear deletes the whole history after confirmation.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to clear the whole history", shared.ErrMissingArgument)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	if err := r.api.ClearHistory(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ History cleared\n")
}
