package services

import (
	"context"

	"github.com/desertthunder/vtx/internal/models"
)

// Service is the backend surface used by the CLI and the player.
// [BackendService] implements it; tests substitute doubles.
type Service interface {
	// Tracking calls, made fire-and-forget by the tracker.
	RegisterView(ctx context.Context, videoID string, viewer models.Viewer) error
	AddWatchTime(ctx context.Context, videoID string, seconds int) error
	AddHistory(ctx context.Context, videoID string) error

	// Login returns the user and bearer token for valid credentials.
	Login(ctx context.Context, email, password string) (*models.User, string, error)

	Videos(ctx context.Context) ([]models.Video, error)
	MyVideos(ctx context.Context) ([]models.Video, error)
	Video(ctx context.Context, id string) (*models.Video, error)
	Analytics(ctx context.Context, id string) (*models.Analytics, error)
	Like(ctx context.Context, id string) error
	Share(ctx context.Context, id string) error

	Comments(ctx context.Context, videoID string) ([]models.Comment, error)
	AddComment(ctx context.Context, videoID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error

	// Creator tools for the user's own videos.
	UpdateVideo(ctx context.Context, id string, u models.VideoUpdate) (*models.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	UpdateThumbnail(ctx context.Context, id string, image FilePart) error
	UploadVideo(ctx context.Context, title, description string, file FilePart) (*models.Video, error)

	// Account lifecycle.
	Register(ctx context.Context, name, email, password string) (*models.RegisterResponse, error)
	VerifyOTP(ctx context.Context, email, code string) (*models.Message, error)
	ResendOTP(ctx context.Context, email string) (*models.Message, error)
	ForgotPassword(ctx context.Context, email string) (*models.Message, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (*models.Message, error)
	UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, c models.PasswordChange) (*models.Message, error)
	UploadAvatar(ctx context.Context, image FilePart) (string, error)
	RemoveAvatar(ctx context.Context) error

	History(ctx context.Context) ([]models.HistoryEntry, error)
	RemoveHistory(ctx context.Context, entryID string) error
	ClearHistory(ctx context.Context) error

	// Raw requests for debugging.
	Get(ctx context.Context, path string) (*APIResponse, error)
	Post(ctx context.Context, path string, data []byte) (*APIResponse, error)
	Delete(ctx context.Context, path string) (*APIResponse, error)
}

var _ Service = (*BackendService)(nil)
