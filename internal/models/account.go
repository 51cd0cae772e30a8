package models

import (
	"strings"
	"time"
)

// Comment is one entry of GET /comments/{videoId}. The author is populated by the backend.
type Comment struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	User      *User     `json:"user,omitempty"`
	VideoID   string    `json:"video,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Author returns the commenter's display name.
func (c Comment) Author() string {
	if c.User == nil || c.User.Name == "" {
		return "Unknown"
	}
	return c.User.Name
}

// OwnedBy reports whether the comment was written by the user with id.
func (c Comment) OwnedBy(id string) bool {
	return id != "" && c.User != nil && c.User.Identifier() == id
}

// VideoUpdate is the body of PUT /videos/{id}. Empty fields are left unchanged.
type VideoUpdate struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u VideoUpdate) Empty() bool {
	return strings.TrimSpace(u.Title) == "" && strings.TrimSpace(u.Description) == ""
}

// ProfileUpdate is the body of PUT /users/me for profile fields.
type ProfileUpdate struct {
	Name string `json:"name,omitempty"`
	Bio  string `json:"bio,omitempty"`
}

// PasswordChange is the body of PUT /users/me for a password change.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Message is the acknowledgement most account endpoints answer with.
type Message struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// RegisterResponse is returned by POST /auth/register. The account stays unverified until the emailed code is confirmed.
type RegisterResponse struct {
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

// AvatarResponse is returned by POST /users/me/avatar.
type AvatarResponse struct {
	Success bool   `json:"success"`
	Avatar  string `json:"avatar,omitempty"`
	Message string `json:"message,omitempty"`
}
