package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// Comments lists the comments on a video in the order the backend returns them.
func (b *BackendService) Comments(ctx context.Context, videoID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := b.doJSON(ctx, http.MethodGet, "/comments/"+url.PathEscape(videoID), nil, &comments, authOptional)
	if err != nil {
		return nil, notFound(err, shared.ErrVideoNotFound, videoID)
	}
	return comments, nil
}

// AddComment posts text as the authenticated user. Blank text is rejected without a request.
func (b *BackendService) AddComment(ctx context.Context, videoID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is empty", shared.ErrInvalidInput)
	}

	var c models.Comment
	in := map[string]string{"text": text}
	if err := b.doJSON(ctx, http.MethodPost, "/comments/"+url.PathEscape(videoID), in, &c, authRequired); err != nil {
		return nil, notFound(err, shared.ErrVideoNotFound, videoID)
	}
	return &c, nil
}

// DeleteComment removes one of the authenticated user's comments.
func (b *BackendService) DeleteComment(ctx context.Context, commentID string) error {
	err := b.doJSON(ctx, http.MethodDelete, "/comments/item/"+url.PathEscape(commentID), nil, nil, authRequired)
	return notFound(err, shared.ErrCommentNotFound, commentID)
}
