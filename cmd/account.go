package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account; it stays unverified until [Runner.AuthVerify] runs with the emailed code.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	email := cmd.String("email")
	resp, err := r.api.Register(ctx, cmd.String("name"), email, cmd.String("password"))
	if err != nil {
		return err
	}
	r.logger.Info("account registered", "email", email)

	if resp.Message != "" {
		r.writePlain("%s\n", resp.Message)
	}
	r.writePlain("✓ Registered %s\n", email)
	return r.writePlain("Check your inbox, then run: vtx auth verify --email %s --code <code>\n", email)
}

// AuthVerify confirms a new account with its one-time code.
func (r *Runner) AuthVerify(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	m, err := r.api.VerifyOTP(ctx, cmd.String("email"), cmd.String("code"))
	if err != nil {
		return err
	}
	return r.acknowledge(m, "Account verified, you can now log in")
}

// AuthResendOTP requests a fresh verification code.
func (r *Runner) AuthResendOTP(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	m, err := r.api.ResendOTP(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	return r.acknowledge(m, "Verification code sent")
}

// AuthForgotPassword requests a password reset code.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	m, err := r.api.ForgotPassword(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	return r.acknowledge(m, "Reset code sent")
}

// AuthResetPassword sets a new password with the reset code, then logs in with it when --login is set.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	email, password := cmd.String("email"), cmd.String("new-password")
	m, err := r.api.ResetPassword(ctx, email, cmd.String("code"), password)
	if err != nil {
		return err
	}
	if err := r.acknowledge(m, "Password reset"); err != nil {
		return err
	}
	if !cmd.Bool("login") {
		return nil
	}

	user, token, err := r.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("password was reset but login failed: %w", err)
	}
	if err := r.viewers.SaveSession(ctx, user, token); err != nil {
		return err
	}
	return r.writePlain("✓ Logged in as %s (%s)\n", user.Name, user.Identifier())
}

// ProfileShow prints the user stored with the session.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	user, token, err := r.viewers.Session(ctx)
	if err != nil {
		return err
	}
	if token == "" || user == nil {
		return shared.ErrNotAuthenticated
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader(user.Name)
	r.writePlain("ID:     %s\n", user.Identifier())
	if user.Email != "" {
		r.writePlain("Email:  %s\n", user.Email)
	}
	if user.Avatar != "" {
		r.writePlain("Avatar: %s\n", user.Avatar)
	}
	if user.Bio != "" {
		r.writePlainln("%s", user.Bio)
	}
	return nil
}

// ProfileUpdate changes the name or bio and refreshes the stored session user.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	updated, err := r.api.UpdateProfile(ctx, models.ProfileUpdate{
		Name: cmd.String("name"),
		Bio:  cmd.String("bio"),
	})
	if err != nil {
		return err
	}
	if err := r.refreshSession(ctx, func(u *models.User) {
		if updated.Name != "" {
			u.Name = updated.Name
		}
		u.Bio = updated.Bio
		if updated.Email != "" {
			u.Email = updated.Email
		}
	}); err != nil {
		return err
	}
	return r.writePlain("✓ Profile updated\n")
}

// ProfilePassword changes the password of the logged-in account.
func (r *Runner) ProfilePassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	m, err := r.api.ChangePassword(ctx, models.PasswordChange{
		CurrentPassword: cmd.String("current"),
		NewPassword:     cmd.String("new"),
	})
	if err != nil {
		return err
	}
	return r.acknowledge(m, "Password changed")
}

// ProfileAvatarSet uploads an image as the profile picture.
func (r *Runner) ProfileAvatarSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	part, done, err := r.openUpload(cmd.StringArg("file"), 0)
	if err != nil {
		return err
	}
	defer done()

	url, err := r.api.UploadAvatar(ctx, part)
	if err != nil {
		return err
	}
	if err := r.refreshSession(ctx, func(u *models.User) { u.Avatar = url }); err != nil {
		return err
	}
	return r.writePlain("✓ Avatar set: %s\n", url)
}

// ProfileAvatarRemove clears the profile picture.
func (r *Runner) ProfileAvatarRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	if err := r.api.RemoveAvatar(ctx); err != nil {
		return err
	}
	if err := r.refreshSession(ctx, func(u *models.User) { u.Avatar = "" }); err != nil {
		return err
	}
	return r.writePlain("✓ Avatar removed\n")
}

// refreshSession applies change to the stored session user, keeping the token.
func (r *Runner) refreshSession(ctx context.Context, change func(*models.User)) error {
	user, token, err := r.viewers.Session(ctx)
	if err != nil || user == nil {
		return err
	}
	change(user)
	return r.viewers.SaveSession(ctx, user, token)
}

// acknowledge prints the backend's message, or fallback when it sent none.
func (r *Runner) acknowledge(m *models.Message, fallback string) error {
	if m != nil && m.Message != "" {
		return r.writePlain("✓ %s\n", m.Message)
	}
	return r.writePlain("✓ %s\n", fallback)
}
