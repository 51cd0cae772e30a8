package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vtx/internal/shared"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "http://localhost:5000/api"

// authMode controls how a request treats the stored bearer token.
type authMode int

const (
	authNone     authMode = iota // never attach
	authOptional                 // attach when a valid token is stored
	authRequired                 // fail with [shared.ErrNotAuthenticated] without one
)

// BackendOpts configures a [BackendService].
type BackendOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore
	RateLimit  float64 // requests per second, <= 0 disables limiting
	Logger     *log.Logger
}

// BackendService talks to the video platform's REST API.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewBackendService creates a client for the backend at opts.BaseURL.
func NewBackendService(opts BackendOpts) *BackendService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &BackendService{
		baseURL:    baseURL,
		httpClient: client,
		tokens:     opts.Tokens,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// BaseURL returns the API root requests are sent to.
func (b *BackendService) BaseURL() string { return b.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is a non-2xx backend response. It matches [shared.ErrAPIRequest] with [errors.Is].
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// errorBody is the backend's error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SetLogger replaces the logger used for request and session messages.
func (b *BackendService) SetLogger(l *log.Logger) {
	b.logger = l
}

// Get performs a GET request to the specified path and returns the raw response.
func (b *BackendService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return b.raw(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (b *BackendService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return b.raw(ctx, http.MethodPost, path, data)
}

// Delete performs a DELETE request and returns the raw response.
func (b *BackendService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return b.raw(ctx, http.MethodDelete, path, nil)
}

// raw sends a request with the optional bearer token and returns the response whatever its status,
// except for an expired session, which still clears the stored token.
func (b *BackendService) raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	resp, err := b.send(ctx, method, path, jsonBody(data), authOptional)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.status,
		Headers:    resp.headers,
		Body:       resp.body,
	}

	var jsonData any
	if err := json.Unmarshal(resp.body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if err := b.checkExpired(ctx, resp); err != nil {
		return apiResp, err
	}
	return apiResp, nil
}

type response struct {
	status  int
	headers http.Header
	body    []byte
}

// requestBody is a request payload and its media type. The zero value sends no body.
type requestBody struct {
	r           io.Reader
	contentType string
}

func jsonBody(data []byte) requestBody {
	if data == nil {
		return requestBody{}
	}
	return requestBody{r: bytes.NewReader(data), contentType: "application/json"}
}

// send waits on the rate limiter, attaches the token per mode and reads the whole body.
func (b *BackendService) send(ctx context.Context, method, path string, body requestBody, mode authMode) (*response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body.r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body.contentType != "" {
		req.Header.Set("Content-Type", body.contentType)
	}

	if err := b.authorize(ctx, req, mode); err != nil {
		return nil, err
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	b.logger.Debug("request", "method", method, "path", path)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &response{status: resp.StatusCode, headers: resp.Header, body: respBody}, nil
}

// authorize sets the Authorization header from the stored token.
//
// A locally expired token is cleared before any request is made.
func (b *BackendService) authorize(ctx context.Context, req *http.Request, mode authMode) error {
	if mode == authNone || b.tokens == nil {
		if mode == authRequired {
			return shared.ErrNotAuthenticated
		}
		return nil
	}

	tok, err := storeTokenSource{ctx: ctx, store: b.tokens}.Token()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		if mode == authRequired {
			return err
		}
		return nil
	case err != nil:
		return err
	}

	// exact exp check; oauth2's Valid() treats the last 10s as expired
	if (TokenClaims{ExpiresAt: tok.Expiry}).Expired(time.Now()) {
		b.expire(ctx)
		if mode == authRequired {
			return shared.ErrTokenExpired
		}
		return nil
	}

	tok.SetAuthHeader(req)
	return nil
}

// checkExpired handles 401 TOKEN_EXPIRED by dropping the stored token.
func (b *BackendService) checkExpired(ctx context.Context, resp *response) error {
	if resp.status != http.StatusUnauthorized {
		return nil
	}
	var eb errorBody
	if err := json.Unmarshal(resp.body, &eb); err != nil || eb.Code != "TOKEN_EXPIRED" {
		return nil
	}
	b.expire(ctx)
	return shared.ErrTokenExpired
}

func (b *BackendService) expire(ctx context.Context) {
	if b.tokens == nil {
		return
	}
	b.logger.Warn("session expired, clearing stored token")
	if err := b.tokens.ClearToken(ctx); err != nil {
		b.logger.Error("failed to clear expired token", "error", err)
	}
}

// doJSON sends in (when non-nil) as JSON and decodes a 2xx response into out (when non-nil).
func (b *BackendService) doJSON(ctx context.Context, method, path string, in, out any, mode authMode) error {
	var data []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		data = encoded
	}

	return b.do(ctx, method, path, jsonBody(data), out, mode)
}

// do sends body, maps error statuses to [StatusError] and decodes a 2xx response into out (when non-nil).
func (b *BackendService) do(ctx context.Context, method, path string, body requestBody, out any, mode authMode) error {
	resp, err := b.send(ctx, method, path, body, mode)
	if err != nil {
		return err
	}
	if err := b.checkExpired(ctx, resp); err != nil {
		return err
	}

	if resp.status < 200 || resp.status >= 300 {
		var eb errorBody
		_ = json.Unmarshal(resp.body, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		return &StatusError{Method: method, Path: path, StatusCode: resp.status, Code: eb.Code, Message: msg}
	}

	if out != nil && len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
