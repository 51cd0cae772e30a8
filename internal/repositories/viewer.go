package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// Keys shared with the web client's localStorage layout.
const (
	keyGuestID = "guestId"
	keyToken   = "token"
	keyUser    = "user"
)

// ViewerRepository persists the guest identity and the authenticated session.
type ViewerRepository struct {
	store Store
}

// NewViewerRepository creates a [ViewerRepository] over store.
func NewViewerRepository(store Store) *ViewerRepository {
	return &ViewerRepository{store: store}
}

// GuestID returns the persisted guest id, generating and storing one on first use.
//
// The id survives login and logout.
func (r *ViewerRepository) GuestID(ctx context.Context) (string, error) {
	id, ok, err := r.store.Get(ctx, keyGuestID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = shared.GenerateID()
	if err := r.store.Set(ctx, keyGuestID, id); err != nil {
		return "", fmt.Errorf("failed to persist guest id: %w", err)
	}
	return id, nil
}

// ResetGuest replaces the guest id with a fresh one. Flags recorded for the old id are left untouched.
func (r *ViewerRepository) ResetGuest(ctx context.Context) (string, error) {
	id := shared.GenerateID()
	if err := r.store.Set(ctx, keyGuestID, id); err != nil {
		return "", fmt.Errorf("failed to persist guest id: %w", err)
	}
	return id, nil
}

// SaveSession stores the logged-in user and their bearer token.
func (r *ViewerRepository) SaveSession(ctx context.Context, user *models.User, token string) error {
	if user == nil || token == "" {
		return fmt.Errorf("%w: user and token are required", shared.ErrInvalidInput)
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := r.store.Set(ctx, keyUser, string(data)); err != nil {
		return err
	}
	return r.store.Set(ctx, keyToken, token)
}

// Session returns the stored user and token, or nil when no complete session exists.
//
// An unreadable user record clears the session.
func (r *ViewerRepository) Session(ctx context.Context) (*models.User, string, error) {
	token, hasToken, err := r.store.Get(ctx, keyToken)
	if err != nil {
		return nil, "", err
	}
	raw, hasUser, err := r.store.Get(ctx, keyUser)
	if err != nil {
		return nil, "", err
	}
	if !hasToken || !hasUser || token == "" {
		return nil, "", nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.Identifier() == "" {
		if clearErr := r.ClearSession(ctx); clearErr != nil {
			return nil, "", clearErr
		}
		return nil, "", nil
	}
	return &user, token, nil
}

// Token returns the stored bearer token, or "" when logged out.
func (r *ViewerRepository) Token(ctx context.Context) (string, error) {
	token, _, err := r.store.Get(ctx, keyToken)
	return token, err
}

// ClearToken drops only the token, as done when the backend reports it expired.
func (r *ViewerRepository) ClearToken(ctx context.Context) error {
	return r.store.Delete(ctx, keyToken)
}

// ClearSession logs out: user and token are removed, the guest id stays.
func (r *ViewerRepository) ClearSession(ctx context.Context) error {
	if err := r.store.Delete(ctx, keyUser); err != nil {
		return err
	}
	return r.store.Delete(ctx, keyToken)
}

// Current resolves who is watching: the stored user when a session exists, otherwise the guest.
func (r *ViewerRepository) Current(ctx context.Context) (models.Viewer, error) {
	user, _, err := r.Session(ctx)
	if err != nil {
		return models.Viewer{}, err
	}
	if user != nil {
		return models.NewUserViewer(user.Identifier()), nil
	}

	guestID, err := r.GuestID(ctx)
	if err != nil {
		return models.Viewer{}, err
	}
	return models.NewGuestViewer(guestID), nil
}
