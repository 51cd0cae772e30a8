package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vtx/internal/formatter"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/urfave/cli/v3"
)

func videoID(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("id")
	if id == "" {
		return "", fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}
	return id, nil
}

// VideosList prints the feed, or the caller's uploads with --mine.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	var videos []models.Video
	var err error
	if cmd.Bool("mine") {
		videos, err = r.api.MyVideos(ctx)
	} else {
		videos, err = r.api.Videos(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, true)
	}
	if len(videos) == 0 {
		return r.writePlain("No videos\n")
	}

	for i, v := range videos {
		r.writePlain("%2d. %s\n", i+1, v.Title)
		r.writePlain("    %s • %d views • %s • id %s\n", v.Owner(), v.Views, shared.FormatDuration(int(v.Duration)), v.ID)
	}
	return nil
}

// VideosShow prints one video.
func (r *Runner) VideosShow(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	video, err := r.api.Video(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(video, true)
	}

	r.writePlainHeader(video.Title)
	r.writePlain("ID:       %s\n", video.ID)
	r.writePlain("Owner:    %s\n", video.Owner())
	r.writePlain("Duration: %s\n", shared.FormatDuration(int(video.Duration)))
	r.writePlain("Views:    %d\n", video.Views)
	r.writePlain("Likes:    %d\n", len(video.Likes))
	r.writePlain("Shares:   %d\n", video.Shares)
	if video.Description != "" {
		r.writePlainln("%s", video.Description)
	}
	return nil
}

// VideosAnalytics prints the owner's analytics breakdown.
func (r *Runner) VideosAnalytics(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	video, err := r.api.Video(ctx, id)
	if err != nil {
		return err
	}
	analytics, err := r.api.Analytics(ctx, id)
	if err != nil {
		return err
	}
	return r.writePlain("%s", formatter.FormatAnalytics(video.Title, analytics))
}

// VideosOpen opens the frontend page for a video.
func (r *Runner) VideosOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}

	url, err := shared.VideoPageURL(r.config.Frontend.URL, id, cmd.Int("resume"))
	if err != nil {
		return err
	}
	r.logger.Info("opening browser", "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		r.writePlain("Open this URL in your browser:\n%s\n", url)
		return err
	}
	return r.writePlain("✓ Opened %s\n", url)
}

// VideosLike toggles the caller's like.
func (r *Runner) VideosLike(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}
	if err := r.api.Like(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Like toggled on %s\n", id)
}

// VideosShare records a share.
func (r *Runner) VideosShare(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}
	if err := r.api.Share(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Share recorded for %s\n", id)
}
