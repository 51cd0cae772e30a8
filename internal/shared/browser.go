package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is swapped in tests to avoid launching a browser.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// VideoPageURL builds the frontend URL for a video page.
//
// A positive resumeAt adds the "resume" query parameter (in seconds) understood by the player page.
func VideoPageURL(frontendURL, videoID string, resumeAt int) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("%w: video id is required", ErrMissingArgument)
	}

	base, err := url.Parse(strings.TrimRight(frontendURL, "/"))
	if err != nil || base.Scheme == "" {
		return "", fmt.Errorf("%w: frontend url %q", ErrInvalidConfig, frontendURL)
	}

	base = base.JoinPath("video", videoID)
	if resumeAt > 0 {
		q := base.Query()
		q.Set("resume", strconv.Itoa(resumeAt))
		base.RawQuery = q.Encode()
	}
	return base.String(), nil
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
