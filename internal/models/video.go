package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// User is the profile the backend returns for an authenticated account.
//
// Older responses use "id" instead of "_id"; [User.Identifier] hides the difference.
type User struct {
	MongoID string `json:"_id,omitempty"`
	AltID   string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Bio     string `json:"bio,omitempty"`
}

// Identifier returns whichever id field the backend populated.
func (u User) Identifier() string {
	if u.MongoID != "" {
		return u.MongoID
	}
	return u.AltID
}

// LoginResponse is returned by POST /users/login.
//
// Some deployments name the fields userInfo and jwtToken.
type LoginResponse struct {
	User     *User  `json:"user,omitempty"`
	UserInfo *User  `json:"userInfo,omitempty"`
	Token    string `json:"token,omitempty"`
	JWTToken string `json:"jwtToken,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Session normalizes the alternate field names into a user and token.
func (r LoginResponse) Session() (*User, string, error) {
	user := r.User
	if user == nil {
		user = r.UserInfo
	}
	token := r.Token
	if token == "" {
		token = r.JWTToken
	}
	if user == nil || token == "" {
		return nil, "", fmt.Errorf("login response missing user or token")
	}
	return user, token, nil
}

// Video is a feed or detail entry.
type Video struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Duration    float64   `json:"duration,omitempty"` // seconds
	Views       int       `json:"views"`
	Likes       []string  `json:"likes,omitempty"`
	Shares      int       `json:"shares,omitempty"`
	User        *User     `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Owner returns the uploader's display name.
func (v Video) Owner() string {
	if v.User == nil || v.User.Name == "" {
		return "Unknown"
	}
	return v.User.Name
}

// HistoryEntry is one row of GET /history.
type HistoryEntry struct {
	ID             string    `json:"_id"`
	Video          *Video    `json:"-"`
	VideoID        string    `json:"-"`
	Title          string    `json:"title,omitempty"`
	Thumbnail      string    `json:"thumbnail,omitempty"`
	URL            string    `json:"url,omitempty"`
	WatchedSeconds float64   `json:"watchedSeconds"`
	TotalDuration  float64   `json:"totalDuration"`
	WatchedAt      time.Time `json:"watchedAt"`
}

// UnmarshalJSON accepts "videoId" either as a populated video object or a bare id string.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	type alias HistoryEntry
	aux := struct {
		*alias
		RawVideo json.RawMessage `json:"videoId"`
	}{alias: (*alias)(h)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.RawVideo)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &h.VideoID); err != nil {
			return fmt.Errorf("invalid videoId: %w", err)
		}
	default:
		var v Video
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("invalid videoId object: %w", err)
		}
		h.Video = &v
		h.VideoID = v.ID
	}
	return nil
}

// MarshalJSON writes the populated video when present, otherwise the bare id.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	type alias HistoryEntry
	var video any = h.VideoID
	if h.Video != nil {
		video = h.Video
	}
	return json.Marshal(struct {
		alias
		Video any `json:"videoId"`
	}{alias: alias(h), Video: video})
}

// DisplayTitle falls back from the populated video to the entry's own title.
func (h HistoryEntry) DisplayTitle() string {
	if h.Video != nil && h.Video.Title != "" {
		return h.Video.Title
	}
	if h.Title != "" {
		return h.Title
	}
	return "Untitled Video"
}

// Progress returns watched percentage of the total duration, or 0 when the duration is unknown.
func (h HistoryEntry) Progress() float64 {
	if h.TotalDuration <= 0 {
		return 0
	}
	return h.WatchedSeconds * 100 / h.TotalDuration
}

// Resumable reports whether playback should offer to resume: strictly between 5% and 95% watched.
func (h HistoryEntry) Resumable() bool {
	p := h.Progress()
	return p > 5 && p < 95
}

// Analytics is the owner's per-video breakdown from GET /videos/{id}/analytics. Watch times are in seconds.
type Analytics struct {
	Views          int     `json:"views"`
	UserViews      int     `json:"userViews"`
	GuestViews     int     `json:"guestViews"`
	Likes          int     `json:"likes"`
	Shares         int     `json:"shares"`
	TotalWatchTime float64 `json:"totalWatchTime"`
	AvgWatchTime   float64 `json:"avgWatchTime"`
	UserWatchTime  float64 `json:"userWatchTime"`
	GuestWatchTime float64 `json:"guestWatchTime"`
}

// FormatWatchTime renders seconds as "N sec", "N.NN min" or "N.NN hrs".
func FormatWatchTime(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0f sec", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.2f min", seconds/60)
	default:
		return fmt.Sprintf("%.2f hrs", seconds/3600)
	}
}
