package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

type identityInfo struct {
	Viewer      string   `json:"viewer"`
	Kind        string   `json:"kind"`
	GuestID     string   `json:"guestId"`
	ViewedCount int      `json:"viewedCount"`
	Viewed      []string `json:"viewed,omitempty"`
}

// IdentityShow prints who tracking requests are attributed to and which videos already count a view.
func (r *Runner) IdentityShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	viewer, err := r.viewers.Current(ctx)
	if err != nil {
		return err
	}
	guestID, err := r.viewers.GuestID(ctx)
	if err != nil {
		return err
	}
	viewed, err := r.flags.ViewedVideos(ctx, viewer)
	if err != nil {
		return err
	}

	info := identityInfo{
		Viewer:      viewer.String(),
		Kind:        string(viewer.Kind),
		GuestID:     guestID,
		ViewedCount: len(viewed),
		Viewed:      viewed,
	}
	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	r.writePlain("Viewer:   %s\n", info.Viewer)
	r.writePlain("Guest id: %s\n", info.GuestID)
	r.writePlain("Views registered from this client: %d\n", info.ViewedCount)
	for _, id := range viewed {
		r.writePlain("  - %s\n", id)
	}
	return nil
}

// IdentityResetGuest replaces the guest id. Videos watched under the old id can count a view again.
func (r *Runner) IdentityResetGuest(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	id, err := r.viewers.ResetGuest(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("guest id reset", "guest", id)
	return r.writePlain("✓ New guest id: %s\n", id)
}
