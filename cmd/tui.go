package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the interactive player. With video ids it plays them as a queue, otherwise it opens the feed.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	// log to a file before the backend client exists so nothing writes over the player
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.ensure(ctx); err != nil {
		return err
	}

	viewer, err := r.viewer(ctx, cmd.Bool("guest"))
	if err != nil {
		return err
	}

	var queue []models.Video
	for _, id := range cmd.Args().Slice() {
		video, err := r.api.Video(ctx, id)
		if err != nil {
			return err
		}
		queue = append(queue, *video)
	}

	r.logger.Info("starting player", "viewer", viewer, "queued", len(queue))

	model := ui.NewModel(ctx, ui.PlayerOpts{
		Videos:   r.api,
		Reporter: r.api,
		Flags:    r.flags,
		Viewer:   viewer,
		Tracker:  r.trackerOptions(),
		Queue:    queue,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, runErr := p.Run()

	// ctrl+c or a cancelled context skips the player's own flush
	tr := model.Tracker()
	tr.Close()
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Wait(waitCtx); err != nil {
		r.logger.Warn("requests still in flight at exit", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("error running player: %w", runErr)
	}
	return nil
}
