package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/vtx/internal/models"
)

const viewedPrefix = "viewed:"

// ViewFlagRepository records which (video, viewer) pairs already counted a view.
//
// Flags are keyed by the full viewer identity, so a guest's flags and the same person's user flags never merge.
type ViewFlagRepository struct {
	store Store
	now   func() time.Time
}

// NewViewFlagRepository creates a [ViewFlagRepository] over store.
func NewViewFlagRepository(store Store) *ViewFlagRepository {
	return &ViewFlagRepository{store: store, now: time.Now}
}

func viewedKey(videoID string, viewer models.Viewer) string {
	return viewedPrefix + videoID + ":" + viewer.Key()
}

// HasViewed reports whether a view was already registered for videoID by viewer.
func (r *ViewFlagRepository) HasViewed(ctx context.Context, videoID string, viewer models.Viewer) (bool, error) {
	_, ok, err := r.store.Get(ctx, viewedKey(videoID, viewer))
	return ok, err
}

// MarkViewed records the view with the current time.
func (r *ViewFlagRepository) MarkViewed(ctx context.Context, videoID string, viewer models.Viewer) error {
	if err := viewer.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return r.store.Set(ctx, viewedKey(videoID, viewer), r.now().UTC().Format(time.RFC3339))
}

// Forget removes the flag so the next qualifying watch registers again.
func (r *ViewFlagRepository) Forget(ctx context.Context, videoID string, viewer models.Viewer) error {
	return r.store.Delete(ctx, viewedKey(videoID, viewer))
}

// ViewedVideos lists the video ids flagged for viewer.
func (r *ViewFlagRepository) ViewedVideos(ctx context.Context, viewer models.Viewer) ([]string, error) {
	keys, err := r.store.Keys(ctx, viewedPrefix)
	if err != nil {
		return nil, err
	}

	suffix := ":" + viewer.Key()
	var ids []string
	for _, k := range keys {
		if !strings.HasSuffix(k, suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(k, viewedPrefix), suffix))
	}
	return ids, nil
}
