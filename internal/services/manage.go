package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// UpdateVideo changes the title or description of one of the user's videos.
func (b *BackendService) UpdateVideo(ctx context.Context, id string, u models.VideoUpdate) (*models.Video, error) {
	if u.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	var video models.Video
	if err := b.doJSON(ctx, http.MethodPut, videoPath(id, ""), u, &video, authRequired); err != nil {
		return nil, notFound(err, shared.ErrVideoNotFound, id)
	}
	return &video, nil
}

// DeleteVideo removes one of the user's videos.
func (b *BackendService) DeleteVideo(ctx context.Context, id string) error {
	err := b.doJSON(ctx, http.MethodDelete, videoPath(id, ""), nil, nil, authRequired)
	return notFound(err, shared.ErrVideoNotFound, id)
}

// UpdateThumbnail replaces a video's thumbnail with an image file.
func (b *BackendService) UpdateThumbnail(ctx context.Context, id string, image FilePart) error {
	image.Field = "thumbnail"
	if err := image.requireMedia("image"); err != nil {
		return err
	}
	err := b.doMultipart(ctx, http.MethodPut, videoPath(id, "/thumbnail"), nil, nil, authRequired, image)
	return notFound(err, shared.ErrVideoNotFound, id)
}

// UploadVideo publishes a new video. The title is required; the file streams as the "video" field.
func (b *BackendService) UploadVideo(ctx context.Context, title, description string, file FilePart) (*models.Video, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrMissingArgument)
	}
	file.Field = "video"
	if err := file.requireMedia("video"); err != nil {
		return nil, err
	}

	fields := map[string]string{"title": title, "description": description}
	var video models.Video
	if err := b.doMultipart(ctx, http.MethodPost, "/videos", fields, &video, authRequired, file); err != nil {
		return nil, err
	}
	return &video, nil
}
