package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

func videoPath(id string, suffix string) string {
	return "/videos/" + url.PathEscape(id) + suffix
}

// notFound maps a 404 to err, leaving every other error untouched.
func notFound(err error, sentinel error, id string) error {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}

// RegisterView records one view. Guests identify themselves in the body, users through the bearer token.
func (b *BackendService) RegisterView(ctx context.Context, videoID string, viewer models.Viewer) error {
	var body any
	if viewer.IsGuest() {
		body = map[string]string{"viewerId": viewer.ID}
	}
	return b.doJSON(ctx, http.MethodPost, videoPath(videoID, "/view"), body, nil, authOptional)
}

// AddWatchTime adds seconds to the video's watch time. Non-positive values are rejected without a request.
func (b *BackendService) AddWatchTime(ctx context.Context, videoID string, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: watch time must be positive, got %d", shared.ErrInvalidInput, seconds)
	}
	body := map[string]int{"secondsWatched": seconds}
	return b.doJSON(ctx, http.MethodPost, videoPath(videoID, "/watchtime"), body, nil, authOptional)
}

// AddHistory appends the video to the authenticated user's history.
func (b *BackendService) AddHistory(ctx context.Context, videoID string) error {
	return b.doJSON(ctx, http.MethodPost, "/history/"+url.PathEscape(videoID), nil, nil, authRequired)
}

// Login exchanges credentials for a session.
func (b *BackendService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	var resp models.LoginResponse
	in := map[string]string{"email": email, "password": password}
	if err := b.doJSON(ctx, http.MethodPost, "/users/login", in, &resp, authNone); err != nil {
		return nil, "", badRequest(err)
	}

	user, token, err := resp.Session()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return user, token, nil
}

// Videos lists the public feed.
func (b *BackendService) Videos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := b.doJSON(ctx, http.MethodGet, "/videos", nil, &videos, authOptional); err != nil {
		return nil, err
	}
	return videos, nil
}

// MyVideos lists videos uploaded by the authenticated user.
func (b *BackendService) MyVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := b.doJSON(ctx, http.MethodGet, "/videos/mine", nil, &videos, authRequired); err != nil {
		return nil, err
	}
	return videos, nil
}

// Video fetches one video.
func (b *BackendService) Video(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := b.doJSON(ctx, http.MethodGet, videoPath(id, ""), nil, &video, authOptional); err != nil {
		return nil, notFound(err, shared.ErrVideoNotFound, id)
	}
	return &video, nil
}

// Analytics fetches the owner's breakdown for a video.
func (b *BackendService) Analytics(ctx context.Context, id string) (*models.Analytics, error) {
	var a models.Analytics
	if err := b.doJSON(ctx, http.MethodGet, videoPath(id, "/analytics"), nil, &a, authRequired); err != nil {
		return nil, notFound(err, shared.ErrVideoNotFound, id)
	}
	return &a, nil
}

// Like toggles the authenticated user's like on a video.
func (b *BackendService) Like(ctx context.Context, id string) error {
	err := b.doJSON(ctx, http.MethodPost, videoPath(id, "/like"), nil, nil, authRequired)
	return notFound(err, shared.ErrVideoNotFound, id)
}

// Share increments a video's share counter.
func (b *BackendService) Share(ctx context.Context, id string) error {
	err := b.doJSON(ctx, http.MethodPost, videoPath(id, "/share"), nil, nil, authOptional)
	return notFound(err, shared.ErrVideoNotFound, id)
}

// History returns the authenticated user's watch history, newest first as sent by the backend.
func (b *BackendService) History(ctx context.Context) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := b.doJSON(ctx, http.MethodGet, "/history", nil, &entries, authRequired); err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveHistory deletes one history entry by its entry id.
func (b *BackendService) RemoveHistory(ctx context.Context, entryID string) error {
	return b.doJSON(ctx, http.MethodDelete, "/history/item/"+url.PathEscape(entryID), nil, nil, authRequired)
}

// ClearHistory deletes the whole history.
func (b *BackendService) ClearHistory(ctx context.Context) error {
	return b.doJSON(ctx, http.MethodDelete, "/history", nil, nil, authRequired)
}
