package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vtx/internal/formatter"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tracker"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	PlayerView
	QuittingView
)

const (
	refreshInterval = 250 * time.Millisecond
	maxRequestLines = 8
	flushTimeout    = 5 * time.Second
)

// VideoSource lists the videos offered in the browse view.
type VideoSource interface {
	Videos(ctx context.Context) ([]models.Video, error)
}

// PlayerOpts configures [NewModel].
type PlayerOpts struct {
	Videos   VideoSource
	Reporter tracker.Reporter
	Flags    tracker.ViewFlags
	Viewer   models.Viewer
	Tracker  tracker.Options // OnEvent is replaced
	Queue    []models.Video  // when set, playback starts with Queue[0] and the feed is skipped
}

// Model represents the player state.
type Model struct {
	ctx      context.Context
	view     ViewState
	videos   VideoSource
	tracker  *tracker.Tracker
	viewer   models.Viewer
	events   chan tracker.Event
	browse   list.Model
	queue    []models.Video
	index    int
	ended    bool
	requests []string
	width    int
	height   int
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates the player and its tracker.
func NewModel(ctx context.Context, opts PlayerOpts) *Model {
	m := &Model{
		ctx:    ctx,
		view:   BrowseView,
		videos: opts.Videos,
		viewer: opts.Viewer,
		events: make(chan tracker.Event, 64),
		queue:  opts.Queue,
		help:   help.New(),
		keys:   newKeyMap(),
	}

	topts := opts.Tracker
	topts.OnEvent = func(ev tracker.Event) {
		select {
		case m.events <- ev:
		default:
		}
	}
	m.tracker = tracker.New(opts.Reporter, opts.Flags, topts)

	delegate := list.NewDefaultDelegate()
	m.browse = list.New(nil, delegate, 0, 0)
	m.browse.Title = "Feed"
	m.browse.SetShowHelp(false)

	if len(m.queue) > 0 {
		m.view = PlayerView
	}
	return m
}

// Tracker exposes the player's tracker so callers can wait for in-flight requests after the program exits.
func (m *Model) Tracker() *tracker.Tracker { return m.tracker }

// Init loads the first queued video, or fetches the feed.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForRequest(), m.tick()}
	if m.view == PlayerView {
		m.load(0)
	} else {
		cmds = append(cmds, m.fetchVideos())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.browse.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.view == QuittingView {
			return m, nil
		}
		if key.Matches(msg, m.keys.quit) && !m.browse.SettingFilter() {
			return m.quit()
		}
		switch m.view {
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgVideosFetched:
		data := msg.data.(struct {
			videos []models.Video
			err    error
		})
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.videos))
		for i, v := range data.videos {
			items[i] = videoItem{video: v}
		}
		m.queue = data.videos
		return m, m.browse.SetItems(items)

	case MsgRequestDone:
		m.logRequest(msg.data.(tracker.Event))
		return m, m.waitForRequest()

	case MsgTick:
		if m.view == QuittingView {
			return m, nil
		}
		return m, m.tick()

	case MsgFlushed:
		if err, _ := msg.data.(error); err != nil {
			m.err = err
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) && !m.browse.SettingFilter() {
		idx := m.selected()
		if idx < 0 {
			return m, nil
		}
		m.view = PlayerView
		m.load(idx)
		return m, nil
	}

	var cmd tea.Cmd
	m.browse, cmd = m.browse.Update(msg)
	return m, cmd
}

// selected maps the highlighted feed item to its queue position.
// The list index cannot be used directly while a filter is applied.
func (m *Model) selected() int {
	item, ok := m.browse.SelectedItem().(videoItem)
	if !ok {
		return -1
	}
	for i, v := range m.queue {
		if v.ID == item.video.ID {
			return i
		}
	}
	return -1
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.toggle):
		m.toggle()
	case key.Matches(msg, m.keys.end):
		m.tracker.PauseOrEnd()
		m.ended = true
	case key.Matches(msg, m.keys.next):
		if m.index+1 < len(m.queue) {
			m.load(m.index + 1)
		}
	case key.Matches(msg, m.keys.prev):
		if m.index > 0 {
			m.load(m.index - 1)
		}
	case key.Matches(msg, m.keys.back):
		if m.videos != nil {
			m.tracker.PauseOrEnd()
			m.view = BrowseView
		}
	}
	return m, nil
}

// toggle plays from idle, pauses while playing. An ended video restarts.
func (m *Model) toggle() {
	s, ok := m.tracker.Snapshot()
	if !ok {
		return
	}
	if s.State == tracker.Playing {
		m.tracker.PauseOrEnd()
		return
	}
	m.ended = false
	m.tracker.Play()
}

// load switches to queue[i]. The tracker flushes the previous video before resetting.
func (m *Model) load(i int) {
	if i < 0 || i >= len(m.queue) {
		return
	}
	m.index = i
	m.ended = false
	if err := m.tracker.Load(m.ctx, m.queue[i].ID, m.viewer); err != nil {
		m.err = err
	}
}

// quit closes the tracker and waits briefly for the final flush before exiting.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.view = QuittingView
	m.tracker.Close()

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		return flushedMsg(m.tracker.Wait(ctx))
	}
}

func (m *Model) logRequest(ev tracker.Event) {
	line := fmt.Sprintf("%s %s", ev.Kind, ev.VideoID)
	if ev.Kind == tracker.EventWatchTime {
		line = fmt.Sprintf("%s +%ds", line, ev.Seconds)
	}
	m.requests = append(m.requests, styles.request(line, ev.Err))
	if len(m.requests) > maxRequestLines {
		m.requests = m.requests[len(m.requests)-maxRequestLines:]
	}
}

func (m *Model) fetchVideos() tea.Cmd {
	return func() tea.Msg {
		if m.videos == nil {
			return videosFetchedMsg(nil, fmt.Errorf("%w: no video source", shared.ErrServiceUnavailable))
		}
		videos, err := m.videos.Videos(m.ctx)
		return videosFetchedMsg(videos, err)
	}
}

func (m *Model) waitForRequest() tea.Cmd {
	return func() tea.Msg {
		return requestDoneMsg(<-m.events)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg() })
}

// View renders the current view.
func (m *Model) View() string {
	var b strings.Builder

	switch m.view {
	case BrowseView:
		if len(m.queue) == 0 && m.err == nil {
			b.WriteString(styles.muted.Render("Loading feed..."))
		} else {
			b.WriteString(m.browse.View())
		}
	case PlayerView:
		b.WriteString(m.playerView())
	case QuittingView:
		b.WriteString(styles.paused.Render("Flushing watch time..."))
	}

	if m.err != nil {
		b.WriteString("\n" + styles.failed.Render("Error: "+m.err.Error()))
	}
	b.WriteString("\n\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) playerView() string {
	s, ok := m.tracker.Snapshot()
	if !ok || m.index >= len(m.queue) {
		return styles.muted.Render("Nothing loaded")
	}
	video := m.queue[m.index]

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("%s (%d/%d)", video.Title, m.index+1, len(m.queue))))
	b.WriteString("\n")

	lines := []string{
		fmt.Sprintf("%s   viewer %s", styles.badge(s.State, m.ended), s.Viewer),
		fmt.Sprintf("watched  %s", shared.FormatDuration(s.Watched())),
		fmt.Sprintf("synced   %ds   pending %ds", s.Synced, s.Unsynced()),
	}
	if video.Duration > 0 {
		pct := s.Total.Seconds() * 100 / video.Duration
		lines = append(lines, fmt.Sprintf("%s %s", formatter.ProgressBar(pct, 30), shared.FormatDuration(int(video.Duration))))
	}
	if s.Viewed {
		lines = append(lines, styles.sent.Render("view registered"))
	}
	b.WriteString(styles.panel.Render(strings.Join(lines, "\n")))

	if len(m.requests) > 0 {
		b.WriteString("\n\n" + strings.Join(m.requests, "\n"))
	}
	return b.String()
}
