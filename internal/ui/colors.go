package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/vtx/internal/tracker"
)

// theme holds the colors of the player. Empty fields fall back to the terminal default.
type theme struct {
	Accent  string
	Playing string
	Paused  string
	Failed  string
	Muted   string
}

var defaultTheme = theme{
	Accent:  "#7D56F4",
	Playing: "#04B575",
	Paused:  "#FFA500",
	Failed:  "#FF0000",
	Muted:   "#626262",
}

var styles = newPalette(defaultTheme)

// palette derives every style the player renders from a [theme].
type palette struct {
	title   lipgloss.Style
	playing lipgloss.Style
	paused  lipgloss.Style
	ended   lipgloss.Style
	sent    lipgloss.Style
	failed  lipgloss.Style
	muted   lipgloss.Style
	panel   lipgloss.Style
}

func newPalette(t theme) palette {
	fg := func(c string) lipgloss.Style {
		s := lipgloss.NewStyle()
		if c != "" {
			s = s.Foreground(lipgloss.Color(c))
		}
		return s
	}

	return palette{
		title:   fg(t.Accent).Bold(true).MarginBottom(1),
		playing: fg(t.Playing).Bold(true),
		paused:  fg(t.Paused),
		ended:   fg(t.Muted).Bold(true),
		sent:    fg(t.Playing),
		failed:  fg(t.Failed).Bold(true),
		muted:   fg(t.Muted).Italic(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Accent)).
			Padding(0, 1),
	}
}

// badge renders the playback state shown in the player panel.
func (p palette) badge(state tracker.State, ended bool) string {
	switch {
	case state == tracker.Playing:
		return p.playing.Render("▶ playing")
	case ended:
		return p.ended.Render("■ ended")
	default:
		return p.paused.Render("⏸ paused")
	}
}

// request renders one line of the request log.
func (p palette) request(line string, err error) string {
	if err != nil {
		return p.failed.Render("✗ " + line + ": " + err.Error())
	}
	return p.sent.Render("✓ " + line)
}
