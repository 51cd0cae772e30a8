// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/vtx/internal/models"
)

// Call records one request made against [MockReporter].
type Call struct {
	Kind    string // view, watchtime or history
	VideoID string
	Viewer  models.Viewer
	Seconds int
}

// MockReporter is a test double for [tracker.Reporter] that records every call.
//
// Err, when set, is returned from every call after it is recorded.
type MockReporter struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

func (m *MockReporter) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.Err
}

func (m *MockReporter) RegisterView(ctx context.Context, videoID string, viewer models.Viewer) error {
	return m.record(Call{Kind: "view", VideoID: videoID, Viewer: viewer})
}

func (m *MockReporter) AddWatchTime(ctx context.Context, videoID string, seconds int) error {
	return m.record(Call{Kind: "watchtime", VideoID: videoID, Seconds: seconds})
}

func (m *MockReporter) AddHistory(ctx context.Context, videoID string) error {
	return m.record(Call{Kind: "history", VideoID: videoID})
}

// Calls returns a copy of the recorded calls, optionally filtered by kind.
func (m *MockReporter) Calls(kind string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, 0, len(m.calls))
	for _, c := range m.calls {
		if kind == "" || c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Deltas returns the seconds of every watchtime call, in order.
func (m *MockReporter) Deltas() []int {
	var out []int
	for _, c := range m.Calls("watchtime") {
		out = append(out, c.Seconds)
	}
	return out
}

// Reset drops recorded calls.
func (m *MockReporter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// FFlags is a view flag store whose reads and writes always fail.
type FFlags struct{}

func (FFlags) HasViewed(ctx context.Context, videoID string, viewer models.Viewer) (bool, error) {
	return false, errors.New("flag lookup failed")
}

func (FFlags) MarkViewed(ctx context.Context, videoID string, viewer models.Viewer) error {
	return errors.New("flag write failed")
}

// FailingWriter accepts OK writes and fails every write after that.
type FailingWriter struct {
	OK     int
	writes int
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if w.writes >= w.OK {
		return 0, errors.New("write failed")
	}
	w.writes++
	return len(p), nil
}

// RoundTripFunc adapts a function to [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Respond returns a transport that answers every request with resp and err.
func Respond(resp *http.Response, err error) RoundTripFunc {
	return func(*http.Request) (*http.Response, error) { return resp, err }
}

// BrokenBody is a response body whose reads always fail.
type BrokenBody struct{}

func (BrokenBody) Read([]byte) (int, error) { return 0, errors.New("read failed") }
func (BrokenBody) Close() error             { return nil }

// AssertFileExists reports a test error when nothing exists at path.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

// AssertDirExists reports a test error unless path is a directory.
func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s (err %v)", path, err)
	}
}

// MustReadFile returns the contents of path or stops the test.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}
