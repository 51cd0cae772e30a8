package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges email and password for a session and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or VTX_PASSWORD is required", shared.ErrMissingArgument)
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}

	r.logger.Info("logging in", "email", email)

	user, token, err := r.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := r.viewers.SaveSession(ctx, user, token); err != nil {
		return err
	}

	r.logger.Info("authentication successful", "user", user.Identifier())
	return r.writePlain("✓ Logged in as %s (%s)\n", user.Name, user.Identifier())
}

// AuthLogout clears the stored session. The guest id survives so guest view flags stay valid.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	if err := r.viewers.ClearSession(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

type authStatus struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	Viewer        string       `json:"viewer"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	Expired       bool         `json:"expired"`
}

// AuthStatus reports the stored session and the expiry carried in its token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	status := authStatus{}
	user, token, err := r.viewers.Session(ctx)
	if err != nil {
		return err
	}

	viewer, err := r.viewers.Current(ctx)
	if err != nil {
		return err
	}
	status.Viewer = viewer.String()

	if token != "" {
		status.Authenticated = true
		status.User = user
		if claims, err := services.ParseTokenClaims(token); err == nil {
			if !claims.ExpiresAt.IsZero() {
				exp := claims.ExpiresAt
				status.ExpiresAt = &exp
			}
			status.Expired = claims.Expired(time.Now())
		} else {
			r.logger.Warn("stored token is not a readable JWT", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		r.writePlain("✗ Not authenticated\n")
		return r.writePlain("Tracking as: %s\n", status.Viewer)
	}

	name := "unknown"
	if status.User != nil {
		name = status.User.Name
	}
	r.writePlain("✓ Logged in as %s\n", name)
	r.writePlain("Tracking as: %s\n", status.Viewer)
	switch {
	case status.ExpiresAt == nil:
		r.writePlain("Token expiry: unknown\n")
	case status.Expired:
		r.writePlain("Token expired at %s, run 'vtx auth login' again\n", status.ExpiresAt.Local().Format(time.RFC1123))
	default:
		r.writePlain("Token expires at %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthImport stores the bearer token from a browser request copied as cURL.
//
// The user id is read from the token's claims; profile details are filled in on the next login.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var headers *shared.CurlHeaders
	var err error
	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
	} else {
		headers, err = shared.ParseCurlCommand(curlCmd)
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	token, err := headers.BearerToken()
	if err != nil {
		return err
	}
	claims, err := services.ParseTokenClaims(token)
	if err != nil {
		return err
	}
	if claims.UserID == "" {
		return fmt.Errorf("%w: token carries no user id", shared.ErrInvalidToken)
	}
	if claims.Expired(time.Now()) {
		return fmt.Errorf("%w: imported token expired at %s", shared.ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
	}

	if err := r.ensure(ctx); err != nil {
		return err
	}
	user := &models.User{MongoID: claims.UserID}
	if err := r.viewers.SaveSession(ctx, user, token); err != nil {
		return err
	}

	r.logger.Info("token imported", "user", claims.UserID)
	return r.writePlain("✓ Session imported for user %s\n", claims.UserID)
}
