package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CommentsList prints the comments on a video, marking the caller's own.
func (r *Runner) CommentsList(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	comments, err := r.api.Comments(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(comments, true)
	}
	if len(comments) == 0 {
		return r.writePlain("No comments\n")
	}

	var me string
	if user, _, err := r.viewers.Session(ctx); err == nil && user != nil {
		me = user.Identifier()
	}

	for _, c := range comments {
		author := c.Author()
		if c.OwnedBy(me) {
			author += " (you)"
		}
		when := ""
		if !c.CreatedAt.IsZero() {
			when = " • " + c.CreatedAt.Local().Format(time.DateTime)
		}
		r.writePlain("%s%s\n", author, when)
		r.writePlain("    %s\n", c.Text)
		r.writePlain("    id %s\n", c.ID)
	}
	return nil
}

// CommentsAdd posts a comment as the logged-in user.
func (r *Runner) CommentsAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	c, err := r.api.AddComment(ctx, id, cmd.String("text"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Comment posted (id %s)\n", c.ID)
}

// CommentsDelete removes one of the caller's comments.
func (r *Runner) CommentsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("comment-id")
	if id == "" {
		return fmt.Errorf("%w: comment id is required", shared.ErrMissingArgument)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}
	if err := r.api.DeleteComment(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Comment %s deleted\n", id)
}

// VideosEdit changes the title or description of an uploaded video.
func (r *Runner) VideosEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	video, err := r.api.UpdateVideo(ctx, id, models.VideoUpdate{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(video, true)
	}
	return r.writePlain("✓ Updated %s (%s)\n", video.Title, id)
}

// VideosDelete removes an uploaded video after confirmation.
func (r *Runner) VideosDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete video %s", shared.ErrMissingArgument, id)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}
	if err := r.api.DeleteVideo(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// VideosThumbnail replaces the thumbnail of an uploaded video.
func (r *Runner) VideosThumbnail(ctx context.Context, cmd *cli.Command) error {
	id, err := videoID(cmd)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	part, done, err := r.openUpload(cmd.StringArg("file"), 0)
	if err != nil {
		return err
	}
	defer done()

	if err := r.api.UpdateThumbnail(ctx, id, part); err != nil {
		return err
	}
	return r.writePlain("✓ Thumbnail updated for %s\n", id)
}

// VideosUpload publishes a video file, reporting progress as it streams.
func (r *Runner) VideosUpload(ctx context.Context, cmd *cli.Command) error {
	title := cmd.String("title")
	if title == "" {
		return fmt.Errorf("%w: --title is required", shared.ErrMissingArgument)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	part, done, err := r.openUpload(cmd.StringArg("file"), services.MaxUploadBytes)
	if err != nil {
		return err
	}
	defer done()

	r.logger.Info("uploading video", "file", part.Name, "title", title)
	video, err := r.api.UploadVideo(ctx, title, cmd.String("description"), part)
	done()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(video, true)
	}
	return r.writePlain("✓ Uploaded %s (id %s)\n", video.Title, video.ID)
}

// openUpload opens path as a streamed file part that prints progress in quarter steps.
// limit <= 0 means any size. The returned func closes the file and silences further progress.
func (r *Runner) openUpload(path string, limit int64) (services.FilePart, func(), error) {
	if path == "" {
		return services.FilePart{}, nil, fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return services.FilePart{}, nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if info.IsDir() {
		return services.FilePart{}, nil, fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, path)
	}
	if limit > 0 && info.Size() > limit {
		return services.FilePart{}, nil, fmt.Errorf("%w: %s is %s, the limit is %s",
			shared.ErrInvalidInput, path, megabytes(info.Size()), megabytes(limit))
	}

	f, err := os.Open(path)
	if err != nil {
		return services.FilePart{}, nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	p := &uploadProgress{r: r, step: -1}
	body := &services.ProgressReader{R: f, Total: info.Size(), OnRead: p.report}

	var once sync.Once
	done := func() {
		once.Do(func() {
			p.stop()
			f.Close()
		})
	}
	return services.FilePart{Name: path, Body: body}, done, nil
}

// uploadProgress is fed from the request body goroutine.
type uploadProgress struct {
	mu      sync.Mutex
	r       *Runner
	step    int64
	stopped bool
}

func (p *uploadProgress) report(sent, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || total <= 0 {
		return
	}
	step := sent * 4 / total
	if step <= p.step {
		return
	}
	p.step = step
	p.r.writePlain("  %3d%%  %s of %s\n", step*25, megabytes(sent), megabytes(total))
}

func (p *uploadProgress) stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

func megabytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
}
