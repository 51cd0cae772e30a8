package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/desertthunder/vtx/internal/formatter"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"golang.org/x/time/rate"
)

// HistoryExportOpts configures [Engine.ExportHistory].
type HistoryExportOpts struct {
	Format        string    // json, csv, markdown, txt
	Path          string    // output file, or directory for markdown
	Thumbnails    bool      // markdown only: download thumbnails next to README.md
	ResumableOnly bool      // keep entries between 5% and 95% watched
	Warn          io.Writer // thumbnail warnings
}

// HistoryExportResult describes a finished export.
type HistoryExportResult struct {
	Entries   int
	Resumable int
	Files     []string
}

// FetchHistory returns the user's history, optionally keeping only resumable entries.
func (e *Engine) FetchHistory(ctx context.Context, prog chan<- ProgressUpdate, resumableOnly bool) ([]models.HistoryEntry, error) {
	if e.history == nil {
		return nil, fmt.Errorf("%w: history service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(prog, fetchHistoryUpdate(-1))
	entries, err := e.history.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	if resumableOnly {
		var kept []models.HistoryEntry
		for _, h := range entries {
			if h.Resumable() {
				kept = append(kept, h)
			}
		}
		entries = kept
	}

	e.sendProgress(prog, fetchHistoryUpdate(len(entries)))
	return entries, nil
}

// ExportHistory fetches the history and writes it in opts.Format.
func (e *Engine) ExportHistory(ctx context.Context, prog chan<- ProgressUpdate, opts HistoryExportOpts) (*HistoryExportResult, error) {
	entries, err := e.FetchHistory(ctx, prog, opts.ResumableOnly)
	if err != nil {
		return nil, err
	}

	result := &HistoryExportResult{Entries: len(entries)}
	for _, h := range entries {
		if h.Resumable() {
			result.Resumable++
		}
	}

	switch opts.Format {
	case formatter.FormatMarkdown:
		md, err := formatter.WriteMarkdownExport(entries, opts.Path, opts.Thumbnails, opts.Warn)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		result.Files = md.Files
		e.sendProgress(prog, exportHistoryUpdate(md.Directory, len(entries)))
	default:
		path, err := formatter.WriteHistoryExport(entries, opts.Format, opts.Path)
		if err != nil {
			return nil, fmt.Errorf("%s export failed: %w", opts.Format, err)
		}
		result.Files = []string{path}
		e.sendProgress(prog, exportHistoryUpdate(path, len(entries)))
	}

	return result, nil
}

// BulkRemoveOpts configures [Engine.BulkRemove].
type BulkRemoveOpts struct {
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Requests per second (default: 5)
}

// RemoveResult is the outcome for one history entry.
type RemoveResult struct {
	EntryID string
	Success bool
	Error   error
}

// BulkRemoveResult summarizes [Engine.BulkRemove].
type BulkRemoveResult struct {
	Total   int
	Removed int
	Failed  int
	Results []RemoveResult
}

// BulkRemove deletes history entries concurrently with rate limiting. Individual failures are reported, not returned.
func (e *Engine) BulkRemove(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkRemoveOpts) (*BulkRemoveResult, error) {
	if e.history == nil {
		return nil, fmt.Errorf("%w: history service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &BulkRemoveResult{Total: len(ids), Results: make([]RemoveResult, 0, len(ids))}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(ids))
	results := make(chan RemoveResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.removeWorker(ctx, &wg, limiter, jobs, results)
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Removed++
			e.sendProgress(prog, removeCompletedUpdate(completed, len(ids), res.EntryID))
		} else {
			result.Failed++
			e.sendProgress(prog, removeFailedUpdate(completed, len(ids), res.EntryID, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// removeWorker deletes entries from jobs until it is drained. Once ctx is done, remaining entries fail fast.
func (e *Engine) removeWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- RemoveResult,
) {
	defer wg.Done()

	for id := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- RemoveResult{EntryID: id, Error: err}
			continue
		}

		if err := e.history.RemoveHistory(ctx, id); err != nil {
			e.logger.Warn("failed to remove history entry", "id", id, "error", err)
			results <- RemoveResult{EntryID: id, Error: err}
			continue
		}
		results <- RemoveResult{EntryID: id, Success: true}
	}
}
