package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// badRequest turns a 400 or 401 into ErrAuthFailed carrying the backend's message.
func badRequest(err error) error {
	var se *StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, se.Message)
	}
	return err
}

func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, pairs[i])
		}
	}
	return nil
}

// Register creates an unverified account. The backend emails a one-time code for [BackendService.VerifyOTP].
func (b *BackendService) Register(ctx context.Context, name, email, password string) (*models.RegisterResponse, error) {
	if err := required("name", name, "email", email, "password", password); err != nil {
		return nil, err
	}

	var resp models.RegisterResponse
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := b.doJSON(ctx, http.MethodPost, "/auth/register", in, &resp, authNone); err != nil {
		return nil, badRequest(err)
	}
	return &resp, nil
}

// VerifyOTP confirms a new account with the emailed code.
func (b *BackendService) VerifyOTP(ctx context.Context, email, code string) (*models.Message, error) {
	if err := required("email", email, "code", code); err != nil {
		return nil, err
	}
	return b.message(ctx, http.MethodPost, "/auth/verify-otp", map[string]string{"email": email, "code": code}, authNone)
}

// ResendOTP asks for a fresh verification code.
func (b *BackendService) ResendOTP(ctx context.Context, email string) (*models.Message, error) {
	if err := required("email", email); err != nil {
		return nil, err
	}
	return b.message(ctx, http.MethodPost, "/auth/resend-otp", map[string]string{"email": email}, authNone)
}

// ForgotPassword requests a password reset code by email.
func (b *BackendService) ForgotPassword(ctx context.Context, email string) (*models.Message, error) {
	if err := required("email", email); err != nil {
		return nil, err
	}
	return b.message(ctx, http.MethodPost, "/users/forgot-password", map[string]string{"email": email}, authNone)
}

// ResetPassword sets a new password using the emailed reset code.
func (b *BackendService) ResetPassword(ctx context.Context, email, code, newPassword string) (*models.Message, error) {
	if err := required("email", email, "code", code, "new password", newPassword); err != nil {
		return nil, err
	}
	in := map[string]string{"email": email, "code": code, "newPassword": newPassword}
	return b.message(ctx, http.MethodPost, "/users/reset-password", in, authNone)
}

// UpdateProfile changes the authenticated user's name or bio and returns the stored profile.
func (b *BackendService) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.User, error) {
	if strings.TrimSpace(u.Name) == "" && strings.TrimSpace(u.Bio) == "" {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	var user models.User
	if err := b.doJSON(ctx, http.MethodPut, "/users/me", u, &user, authRequired); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the password of the signed-in account.
func (b *BackendService) ChangePassword(ctx context.Context, c models.PasswordChange) (*models.Message, error) {
	if err := required("current password", c.CurrentPassword, "new password", c.NewPassword); err != nil {
		return nil, err
	}
	return b.message(ctx, http.MethodPut, "/users/me", c, authRequired)
}

// UploadAvatar sets the profile picture and returns its URL.
func (b *BackendService) UploadAvatar(ctx context.Context, image FilePart) (string, error) {
	image.Field = "avatar"
	if err := image.requireMedia("image"); err != nil {
		return "", err
	}

	var resp models.AvatarResponse
	if err := b.doMultipart(ctx, http.MethodPost, "/users/me/avatar", nil, &resp, authRequired, image); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: avatar upload rejected: %s", shared.ErrAPIRequest, resp.Message)
	}
	return resp.Avatar, nil
}

// RemoveAvatar clears the profile picture.
func (b *BackendService) RemoveAvatar(ctx context.Context) error {
	var resp models.Message
	if err := b.doJSON(ctx, http.MethodDelete, "/users/me/avatar", nil, &resp, authRequired); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: avatar removal rejected: %s", shared.ErrAPIRequest, resp.Message)
	}
	return nil
}

func (b *BackendService) message(ctx context.Context, method, path string, in any, mode authMode) (*models.Message, error) {
	var m models.Message
	if err := b.doJSON(ctx, method, path, in, &m, mode); err != nil {
		return nil, badRequest(err)
	}
	return &m, nil
}
