// package formatter renders watch history and video analytics as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return "md"
	case FormatCSV, FormatText:
		return format
	default:
		return FormatJSON
	}
}

// ExportHistory renders entries in the given format.
func ExportHistory(entries []models.HistoryEntry, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return shared.MarshalJSON(entries, true)
	case FormatCSV:
		return ExportToCSV(entries)
	case FormatMarkdown:
		return ExportToMarkdown(entries, nil)
	case FormatText:
		return ExportToText(entries)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts history entries to CSV with columns: ID, Video ID, Title, Watched, Duration, Progress, Resumable, Watched At
func ExportToCSV(entries []models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Video ID", "Title", "Watched", "Duration", "Progress", "Resumable", "Watched At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, h := range entries {
		watchedAt := ""
		if !h.WatchedAt.IsZero() {
			watchedAt = h.WatchedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			h.ID,
			h.VideoID,
			h.DisplayTitle(),
			strconv.Itoa(int(h.WatchedSeconds)),
			strconv.Itoa(int(h.TotalDuration)),
			strconv.FormatFloat(h.Progress(), 'f', 1, 64),
			strconv.FormatBool(h.Resumable()),
			watchedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ProgressBar draws a fixed-width bar for a 0-100 percentage.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// ExportToMarkdown converts history entries to Markdown. thumbnails maps video ids to local image paths.
func ExportToMarkdown(entries []models.HistoryEntry, thumbnails map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Watch History\n\n")
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(entries)))

	for i, h := range entries {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, h.DisplayTitle()))
		if path, ok := thumbnails[h.VideoID]; ok {
			buf.WriteString(fmt.Sprintf("![Thumbnail](%s)\n\n", path))
		}
		buf.WriteString(fmt.Sprintf("- Watched: %s / %s %s %.0f%%\n",
			shared.FormatDuration(int(h.WatchedSeconds)),
			shared.FormatDuration(int(h.TotalDuration)),
			ProgressBar(h.Progress(), 20),
			h.Progress(),
		))
		if h.Resumable() {
			buf.WriteString(fmt.Sprintf("- Resume at %s\n", shared.FormatDuration(int(h.WatchedSeconds))))
		}
		if !h.WatchedAt.IsZero() {
			buf.WriteString(fmt.Sprintf("- Last watched: %s\n", h.WatchedAt.UTC().Format("2006-01-02 15:04")))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts history entries to plain text
func ExportToText(entries []models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Watch history: %d entries\n\n", len(entries)))
	for i, h := range entries {
		resume := ""
		if h.Resumable() {
			resume = " (resumable)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s [%s / %s, %.0f%%]%s\n",
			i+1,
			h.DisplayTitle(),
			shared.FormatDuration(int(h.WatchedSeconds)),
			shared.FormatDuration(int(h.TotalDuration)),
			h.Progress(),
			resume,
		))
	}

	return buf.Bytes(), nil
}

// FormatAnalytics renders the owner's analytics breakdown for a video.
func FormatAnalytics(title string, a *models.Analytics) string {
	var b strings.Builder

	if title != "" {
		b.WriteString(title + "\n\n")
	}
	fmt.Fprintf(&b, "Views:       %d (users %d, guests %d)\n", a.Views, a.UserViews, a.GuestViews)
	fmt.Fprintf(&b, "Likes:       %d\n", a.Likes)
	fmt.Fprintf(&b, "Shares:      %d\n", a.Shares)
	fmt.Fprintf(&b, "Watch time:  %s total, %s average\n", models.FormatWatchTime(a.TotalWatchTime), models.FormatWatchTime(a.AvgWatchTime))
	fmt.Fprintf(&b, "  users:     %s\n", models.FormatWatchTime(a.UserWatchTime))
	fmt.Fprintf(&b, "  guests:    %s\n", models.FormatWatchTime(a.GuestWatchTime))
	return b.String()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteHistoryExport writes entries to path in the given format and returns the path written.
//
// Defaults to history_{epoch}.{ext} in the working directory.
func WriteHistoryExport(entries []models.HistoryEntry, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("history_%d.%s", time.Now().Unix(), Extension(format))
	}

	data, err := ExportHistory(entries, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	Thumbnails int
}

// WriteMarkdownExport writes {dir}/README.md and, when withThumbnails is set,
// downloads each video's thumbnail into {dir}/thumbnails/{videoID}.jpg.
//
// A failed thumbnail download is reported to warn and skipped.
func WriteMarkdownExport(entries []models.HistoryEntry, outputDir string, withThumbnails bool, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("history_%d", time.Now().Unix())
	}
	if warn == nil {
		warn = io.Discard
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	thumbs := map[string]string{}

	if withThumbnails {
		thumbDir := filepath.Join(outputDir, "thumbnails")
		if err := os.MkdirAll(thumbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
		}

		for _, h := range entries {
			url := h.Thumbnail
			if h.Video != nil && h.Video.Thumbnail != "" {
				url = h.Video.Thumbnail
			}
			if url == "" || h.VideoID == "" {
				continue
			}
			if _, done := thumbs[h.VideoID]; done {
				continue
			}

			data, err := DownloadImage(url)
			if err != nil {
				fmt.Fprintf(warn, "Warning: thumbnail for %s: %v\n", h.VideoID, err)
				continue
			}
			name := filepath.Join("thumbnails", h.VideoID+".jpg")
			if err := os.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save thumbnail for %s: %v\n", h.VideoID, err)
				continue
			}
			thumbs[h.VideoID] = name
			result.Files = append(result.Files, filepath.Join(outputDir, name))
		}
		result.Thumbnails = len(thumbs)
	}

	mdData, err := ExportToMarkdown(entries, thumbs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}
