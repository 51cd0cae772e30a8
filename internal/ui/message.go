package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/tracker"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgVideosFetched MsgKind = iota
	MsgRequestDone
	MsgTick
	MsgFlushed
)

// videosFetchedMsg is the constructor for [MsgVideosFetched]
func videosFetchedMsg(videos []models.Video, err error) Msg {
	return Msg{
		kind: MsgVideosFetched,
		data: struct {
			videos []models.Video
			err    error
		}{videos, err},
	}
}

// requestDoneMsg is the constructor for [MsgRequestDone]
func requestDoneMsg(ev tracker.Event) Msg {
	return Msg{kind: MsgRequestDone, data: ev}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}

// flushedMsg is the constructor for [MsgFlushed]
func flushedMsg(err error) Msg {
	return Msg{kind: MsgFlushed, data: err}
}
