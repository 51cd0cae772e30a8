package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/repositories"
	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tasks"
	"github.com/desertthunder/vtx/internal/tracker"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The client store and everything built on it are opened on first use, so commands like
// "setup config" work before a database exists.
type Runner struct {
	config     *shared.Config
	configPath string
	store      repositories.Store
	closeStore func() error
	viewers    *repositories.ViewerRepository
	flags      *repositories.ViewFlagRepository
	api        services.Service
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      repositories.Store // opened from Config when nil
	API        services.Service   // built from Config when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.Store != nil {
		r.attach(opts.Store, nil)
	}
	return r
}

// attach wires the repositories, backend client and task engine to store.
func (r *Runner) attach(store repositories.Store, closeFn func() error) {
	r.store = store
	r.closeStore = closeFn
	r.viewers = repositories.NewViewerRepository(store)
	r.flags = repositories.NewViewFlagRepository(store)

	if r.api == nil {
		r.api = services.NewBackendService(services.BackendOpts{
			BaseURL:    r.config.API.BaseURL,
			HTTPClient: r.httpClient,
			Tokens:     r.viewers,
			RateLimit:  r.config.API.RateLimit,
			Logger:     r.logger,
		})
	}
	r.engine = tasks.NewEngine(r.api, r.logger)
}

// ensure opens the configured store if none is attached yet.
func (r *Runner) ensure(ctx context.Context) error {
	if r.store != nil {
		return nil
	}

	store, closeFn, err := repositories.OpenStore(ctx, r.config)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", r.config.Storage.Driver, err)
	}
	r.logger.Debug("store opened", "driver", r.config.Storage.Driver)
	r.attach(store, closeFn)
	return nil
}

// Close releases the store opened by [Runner.ensure].
func (r *Runner) Close() error {
	if r.closeStore == nil {
		return nil
	}
	err := r.closeStore()
	r.closeStore = nil
	return err
}

// SetLogger replaces the logger used by the runner, its backend client and its task engine.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if s, ok := r.api.(interface{ SetLogger(*log.Logger) }); ok {
		s.SetLogger(l)
	}
	if r.engine != nil {
		r.engine = tasks.NewEngine(r.api, l)
	}
}

// trackerOptions builds tracker settings from the [tracker] config section.
func (r *Runner) trackerOptions() tracker.Options {
	opts := tracker.DefaultOptions()
	if d := r.config.Tracker.SampleInterval(); d > 0 {
		opts.SampleInterval = d
	}
	if d := r.config.Tracker.MinBatch(); d > 0 {
		opts.MinBatch = d
	}
	opts.ViewThreshold = r.config.Tracker.ViewThreshold()
	opts.RequestTimeout = r.config.API.Timeout()
	opts.Logger = r.logger
	return opts
}

// viewer returns the current viewer, or the guest viewer when asGuest is set.
func (r *Runner) viewer(ctx context.Context, asGuest bool) (models.Viewer, error) {
	if asGuest {
		id, err := r.viewers.GuestID(ctx)
		if err != nil {
			return models.Viewer{}, err
		}
		return models.NewGuestViewer(id), nil
	}
	return r.viewers.Current(ctx)
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		setupCommand(r),
		authCommand(r),
		watchCommand(r),
		replayCommand(r),
		historyCommand(r),
		videosCommand(r),
		profileCommand(r),
		identityCommand(r),
		apiCommand(r),
	}
}

// progress drains updates on a goroutine; the returned func closes the channel and waits for the last write.
func (r *Runner) progress(handle func(tasks.ProgressUpdate)) (chan tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			handle(update)
		}
	}()
	return ch, func() {
		close(ch)
		<-done
	}
}

// write sends text to the command output.
func (r *Runner) write(text string) error {
	if _, err := io.WriteString(r.output, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	b, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := r.write(string(b)); err != nil {
		return err
	}
	if _, err := io.WriteString(r.output, "\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.write(fmt.Sprintf(format, args...))
}

// writePlainln writes a line set off by a blank line above it.
func (r *Runner) writePlainln(format string, args ...any) error {
	return r.write("\n" + fmt.Sprintf(format, args...) + "\n")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Border(lipgloss.DoubleBorder(), true, false)

func (r *Runner) writePlainHeader(title string) {
	r.write(headerStyle.Render(title) + "\n")
}
