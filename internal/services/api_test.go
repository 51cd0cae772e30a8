package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/vtx/internal/repositories"
	"github.com/desertthunder/vtx/internal/shared"
	tu "github.com/desertthunder/vtx/internal/testing"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

// sessionStore returns a viewer repository holding token, or logged out when token is empty.
func sessionStore(t *testing.T, token string) *repositories.ViewerRepository {
	t.Helper()
	store := repositories.NewMemoryStore()
	if token != "" {
		if err := store.Set(context.Background(), "token", token); err != nil {
			t.Fatalf("failed to seed token: %v", err)
		}
	}
	return repositories.NewViewerRepository(store)
}

func TestBackendServiceRaw(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		srv := NewBackendService(BackendOpts{})
		if srv.BaseURL() != DefaultBaseURL {
			t.Errorf("BaseURL() = %s, want %s", srv.BaseURL(), DefaultBaseURL)
		}
		if srv.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient")
		}

		client := &http.Client{Timeout: time.Second}
		srv = NewBackendService(BackendOpts{BaseURL: "http://vtx.test/api/", HTTPClient: client})
		if srv.BaseURL() != "http://vtx.test/api" || srv.httpClient != client {
			t.Errorf("custom opts not applied: %s", srv.BaseURL())
		}
	})

	t.Run("round trips", func(t *testing.T) {
		type seen struct{ method, path, contentType, body string }
		var got seen
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			got = seen{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)}

			w.Header().Set("X-Request-Id", "req-1")
			switch r.URL.Path {
			case "/videos":
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode([]map[string]string{{"_id": "v1"}})
			case "/videos/v1/view":
				w.WriteHeader(http.StatusCreated)
			case "/history":
				w.WriteHeader(http.StatusNoContent)
			default:
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("no route"))
			}
		}))
		defer server.Close()
		srv := NewBackendService(BackendOpts{BaseURL: server.URL})
		ctx := context.Background()

		tt := []struct {
			name   string
			call   func() (*APIResponse, error)
			want   seen
			status int
			json   bool
		}{
			{
				name:   "get json",
				call:   func() (*APIResponse, error) { return srv.Get(ctx, "/videos") },
				want:   seen{method: http.MethodGet, path: "/videos"},
				status: http.StatusOK,
				json:   true,
			},
			{
				name:   "post body",
				call:   func() (*APIResponse, error) { return srv.Post(ctx, "/videos/v1/view", []byte(`{"viewerId":"g1"}`)) },
				want:   seen{http.MethodPost, "/videos/v1/view", "application/json", `{"viewerId":"g1"}`},
				status: http.StatusCreated,
			},
			{
				name:   "delete",
				call:   func() (*APIResponse, error) { return srv.Delete(ctx, "/history") },
				want:   seen{method: http.MethodDelete, path: "/history"},
				status: http.StatusNoContent,
			},
			{
				name:   "error status is returned, not raised",
				call:   func() (*APIResponse, error) { return srv.Get(ctx, "/nowhere") },
				want:   seen{method: http.MethodGet, path: "/nowhere"},
				status: http.StatusNotFound,
			},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				resp, err := tc.call()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.want {
					t.Errorf("server saw %+v, want %+v", got, tc.want)
				}
				if resp.StatusCode != tc.status || resp.IsJSON != tc.json {
					t.Errorf("response = %d json=%v, want %d json=%v", resp.StatusCode, resp.IsJSON, tc.status, tc.json)
				}
				if resp.Headers.Get("X-Request-Id") != "req-1" {
					t.Error("response headers not preserved")
				}
			})
		}
	})

	t.Run("transport failures", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		tt := []struct {
			name    string
			ctx     context.Context
			path    string
			client  *http.Client
			wantErr string
		}{
			{"bad path", context.Background(), "/videos\x00", nil, "failed to create request"},
			{"dial error", context.Background(), "/videos", &http.Client{Transport: tu.Respond(nil, errors.New("connection refused"))}, "request failed"},
			{
				"unreadable body", context.Background(), "/videos",
				&http.Client{Transport: tu.Respond(&http.Response{StatusCode: http.StatusOK, Body: tu.BrokenBody{}, Header: http.Header{}}, nil)},
				"failed to read response",
			},
			{"canceled context", canceled, "/videos", nil, "context canceled"},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				srv := NewBackendService(BackendOpts{BaseURL: "http://vtx.test", HTTPClient: tc.client})
				_, err := srv.Get(tc.ctx, tc.path)
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("Get() error = %v, want %q", err, tc.wantErr)
				}
			})
		}
	})

	t.Run("Authorization", func(t *testing.T) {
		t.Run("Attaches Stored Token", func(t *testing.T) {
			token := signToken(t, jwt.MapClaims{"id": "u1", "exp": time.Now().Add(time.Hour).Unix()})
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer server.Close()

			srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, token)})
			if _, err := srv.Get(context.Background(), "/videos"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != "Bearer "+token {
				t.Errorf("expected bearer header, got %q", got)
			}
		})

		t.Run("Token Close To Expiry Is Still Sent", func(t *testing.T) {
			token := signToken(t, jwt.MapClaims{"id": "u1", "exp": time.Now().Add(5 * time.Second).Unix()})
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.Write([]byte("[]"))
			}))
			defer server.Close()

			viewers := sessionStore(t, token)
			srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: viewers})
			if _, err := srv.History(context.Background()); err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if got != "Bearer "+token {
				t.Errorf("expected bearer header, got %q", got)
			}
			if stored, _ := viewers.Token(context.Background()); stored != token {
				t.Error("token should stay stored until exp has passed")
			}
		})

		t.Run("Opaque Tokens Are Sent As-Is", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer server.Close()

			srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, "opaque")})
			srv.Get(context.Background(), "/videos")
			if got != "Bearer opaque" {
				t.Errorf("expected opaque bearer header, got %q", got)
			}
		})

		t.Run("No Header When Logged Out", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer server.Close()

			srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, "")})
			if _, err := srv.Get(context.Background(), "/videos"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != "" {
				t.Errorf("expected no Authorization header, got %q", got)
			}
		})

		t.Run("TOKEN_EXPIRED Clears Stored Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"code":"TOKEN_EXPIRED","message":"jwt expired"}`))
			}))
			defer server.Close()

			viewers := sessionStore(t, "opaque")
			srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: viewers})
			resp, err := srv.Get(context.Background(), "/history")

			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Error("expected the raw response alongside the error")
			}
			if tok, _ := viewers.Token(context.Background()); tok != "" {
				t.Errorf("expected token cleared, got %q", tok)
			}
		})

		t.Run("Other 401s Keep The Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"bad token"}`))
			}))
			defer server.Close()

			viewers := sessionStore(t, "opaque")
			srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: viewers})
			if _, err := srv.Get(context.Background(), "/history"); err != nil {
				t.Fatalf("expected no error from raw request, got %v", err)
			}
			if tok, _ := viewers.Token(context.Background()); tok != "opaque" {
				t.Errorf("expected token kept, got %q", tok)
			}
		})
	})
}
