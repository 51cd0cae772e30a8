// package tasks implements the longer-running client operations: scripted session replay and watch history management.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vtx/internal/models"
)

// HistoryService is the part of the backend the history operations use.
type HistoryService interface {
	History(ctx context.Context) ([]models.HistoryEntry, error)
	RemoveHistory(ctx context.Context, entryID string) error
}

// Engine runs replays and history operations.
type Engine struct {
	history HistoryService
	logger  *log.Logger
}

// NewEngine creates an [Engine]. history may be nil when only replays are needed.
func NewEngine(history HistoryService, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{history: history, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
