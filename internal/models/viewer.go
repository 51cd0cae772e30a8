package models

import (
	"fmt"
)

// ViewerKind distinguishes authenticated users from anonymous guests.
type ViewerKind string

const (
	ViewerUser  ViewerKind = "user"
	ViewerGuest ViewerKind = "guest"
)

// Viewer identifies who is watching. Guest ids are generated once per client and persisted.
type Viewer struct {
	Kind ViewerKind `json:"kind"`
	ID   string     `json:"id"`
}

// NewUserViewer returns a viewer for an authenticated user id.
func NewUserViewer(id string) Viewer {
	return Viewer{Kind: ViewerUser, ID: id}
}

// NewGuestViewer returns a viewer for a persisted guest id.
func NewGuestViewer(id string) Viewer {
	return Viewer{Kind: ViewerGuest, ID: id}
}

// IsUser reports whether the viewer is authenticated.
func (v Viewer) IsUser() bool { return v.Kind == ViewerUser }

// IsGuest reports whether the viewer is anonymous.
func (v Viewer) IsGuest() bool { return v.Kind == ViewerGuest }

// Key returns "<kind>:<id>", used to scope client-side flags to one viewer.
func (v Viewer) Key() string {
	return string(v.Kind) + ":" + v.ID
}

func (v Viewer) String() string { return v.Key() }

// Validate checks the viewer has a known kind and a non-empty id.
func (v Viewer) Validate() error {
	if v.Kind != ViewerUser && v.Kind != ViewerGuest {
		return fmt.Errorf("unknown viewer kind %q", v.Kind)
	}
	if v.ID == "" {
		return fmt.Errorf("viewer id is required")
	}
	return nil
}
