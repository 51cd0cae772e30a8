package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func userToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"id": "u1", "exp": time.Now().Add(time.Hour).Unix()})
}

func TestComments(t *testing.T) {
	ctx := context.Background()

	t.Run("list is public", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("GET /comments/v1", http.StatusOK,
			`[{"_id":"c1","text":"nice","user":{"_id":"u2","name":"Bo"},"video":"v1","createdAt":"2025-03-01T10:00:00Z"}]`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, "")})

		comments, err := srv.Comments(ctx, "v1")
		if err != nil {
			t.Fatalf("Comments() error = %v", err)
		}
		if len(comments) != 1 || comments[0].Author() != "Bo" || comments[0].CreatedAt.IsZero() {
			t.Errorf("comments = %+v", comments)
		}
		if b.last().Auth != "" {
			t.Errorf("guest request carried %q", b.last().Auth)
		}
	})

	t.Run("list of an unknown video", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("GET /comments/nope", http.StatusNotFound, `{"message":"Video not found"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL})

		if _, err := srv.Comments(ctx, "nope"); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})

	t.Run("add trims and posts text", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("POST /comments/v1", http.StatusCreated, `{"_id":"c9","text":"hello","video":"v1"}`)
		token := userToken(t)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, token)})

		c, err := srv.AddComment(ctx, "v1", "  hello \n")
		if err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
		if c.ID != "c9" {
			t.Errorf("comment = %+v", c)
		}

		req := b.last()
		if req.Body["text"] != "hello" || req.Auth != "Bearer "+token {
			t.Errorf("request = %+v", req)
		}
	})

	t.Run("add rejects blank text without a request", func(t *testing.T) {
		b, server := newBackend(t)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		if _, err := srv.AddComment(ctx, "v1", "   "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if b.count() != 0 {
			t.Errorf("expected no requests, got %d", b.count())
		}
	})

	t.Run("add requires a session", func(t *testing.T) {
		b, server := newBackend(t)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, "")})

		if _, err := srv.AddComment(ctx, "v1", "hi"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if b.count() != 0 {
			t.Errorf("expected no requests, got %d", b.count())
		}
	})

	t.Run("delete", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("DELETE /comments/item/gone", http.StatusNotFound, `{"message":"Comment not found"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		if err := srv.DeleteComment(ctx, "c1"); err != nil {
			t.Fatalf("DeleteComment() error = %v", err)
		}
		if req := b.last(); req.Method != http.MethodDelete || req.Path != "/comments/item/c1" {
			t.Errorf("request = %s %s", req.Method, req.Path)
		}

		if err := srv.DeleteComment(ctx, "gone"); !errors.Is(err, shared.ErrCommentNotFound) {
			t.Errorf("expected ErrCommentNotFound, got %v", err)
		}
	})
}

func TestVideoManagement(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdateVideo sends only set fields", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("PUT /videos/v1", http.StatusOK, `{"_id":"v1","title":"Renamed"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		video, err := srv.UpdateVideo(ctx, "v1", models.VideoUpdate{Title: "Renamed"})
		if err != nil {
			t.Fatalf("UpdateVideo() error = %v", err)
		}
		if video.Title != "Renamed" {
			t.Errorf("video = %+v", video)
		}

		req := b.last()
		if req.Body["title"] != "Renamed" {
			t.Errorf("body = %v", req.Body)
		}
		if _, ok := req.Body["description"]; ok {
			t.Errorf("empty description should be omitted: %v", req.Body)
		}
	})

	t.Run("UpdateVideo with nothing to change", func(t *testing.T) {
		b, server := newBackend(t)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		if _, err := srv.UpdateVideo(ctx, "v1", models.VideoUpdate{Title: " "}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if b.count() != 0 {
			t.Errorf("expected no requests, got %d", b.count())
		}
	})

	t.Run("DeleteVideo", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("DELETE /videos/gone", http.StatusNotFound, `{"message":"Video not found"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		if err := srv.DeleteVideo(ctx, "v1"); err != nil {
			t.Fatalf("DeleteVideo() error = %v", err)
		}
		if req := b.last(); req.Method != http.MethodDelete || req.Path != "/videos/v1" {
			t.Errorf("request = %s %s", req.Method, req.Path)
		}
		if err := srv.DeleteVideo(ctx, "gone"); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})

	t.Run("UploadVideo streams fields and file", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("POST /videos", http.StatusCreated, `{"_id":"v7","title":"Clip"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		file := FilePart{Name: "/tmp/clips/clip.MP4", Body: strings.NewReader("frames")}
		video, err := srv.UploadVideo(ctx, "Clip", "short one", file)
		if err != nil {
			t.Fatalf("UploadVideo() error = %v", err)
		}
		if video.ID != "v7" {
			t.Errorf("video = %+v", video)
		}

		req := b.last()
		if req.Fields["title"] != "Clip" || req.Fields["description"] != "short one" {
			t.Errorf("fields = %v", req.Fields)
		}
		got := req.Files["video"]
		if got.Name != "clip.MP4" || got.ContentType != "video/mp4" || got.Data != "frames" {
			t.Errorf("file = %+v", got)
		}
	})

	t.Run("UploadVideo checks input locally", func(t *testing.T) {
		tt := map[string]struct {
			title string
			file  FilePart
			want  error
		}{
			"no title":     {file: FilePart{Name: "a.mp4", Body: strings.NewReader("x")}, want: shared.ErrMissingArgument},
			"no file body": {title: "A", file: FilePart{Name: "a.mp4"}, want: shared.ErrMissingArgument},
			"not a video":  {title: "A", file: FilePart{Name: "notes.txt", Body: strings.NewReader("x")}, want: shared.ErrInvalidInput},
		}
		for name, tc := range tt {
			t.Run(name, func(t *testing.T) {
				b, server := newBackend(t)
				srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

				if _, err := srv.UploadVideo(ctx, tc.title, "", tc.file); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
				if b.count() != 0 {
					t.Errorf("expected no requests, got %d", b.count())
				}
			})
		}
	})

	t.Run("UploadVideo surfaces a failing file read", func(t *testing.T) {
		_, server := newBackend(t)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		file := FilePart{Name: "a.mp4", Body: iotest.ErrReader(errors.New("disk gone"))}
		if _, err := srv.UploadVideo(ctx, "A", "", file); err == nil {
			t.Error("expected an error when the file cannot be read")
		}
	})

	t.Run("UpdateThumbnail", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("PUT /videos/gone/thumbnail", http.StatusNotFound, `{"message":"Video not found"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		img := FilePart{Name: "cover.png", Body: strings.NewReader("png")}
		if err := srv.UpdateThumbnail(ctx, "v1", img); err != nil {
			t.Fatalf("UpdateThumbnail() error = %v", err)
		}
		req := b.last()
		if req.Method != http.MethodPut || req.Path != "/videos/v1/thumbnail" {
			t.Errorf("request = %s %s", req.Method, req.Path)
		}
		if got := req.Files["thumbnail"]; got.ContentType != "image/png" || got.Data != "png" {
			t.Errorf("file = %+v", got)
		}

		img.Body = strings.NewReader("png")
		if err := srv.UpdateThumbnail(ctx, "gone", img); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
		if err := srv.UpdateThumbnail(ctx, "v1", FilePart{Name: "clip.mp4", Body: strings.NewReader("x")}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for a video file, got %v", err)
		}
	})
}

func TestAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Register", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("POST /auth/register", http.StatusCreated, `{"user":{"_id":"u5","name":"Cy"},"message":"Check your email"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		resp, err := srv.Register(ctx, "Cy", "cy@example.com", "pw")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if resp.User == nil || resp.User.Identifier() != "u5" || resp.Message != "Check your email" {
			t.Errorf("response = %+v", resp)
		}

		req := b.last()
		if req.Body["email"] != "cy@example.com" || req.Body["password"] != "pw" {
			t.Errorf("body = %v", req.Body)
		}
		if req.Auth != "" {
			t.Errorf("register should not send the stored token, got %q", req.Auth)
		}
	})

	t.Run("Register rejected", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("POST /auth/register", http.StatusBadRequest, `{"message":"User already exists"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL})

		_, err := srv.Register(ctx, "Cy", "cy@example.com", "pw")
		if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "User already exists") {
			t.Errorf("expected ErrAuthFailed with the backend message, got %v", err)
		}
	})

	t.Run("code flows", func(t *testing.T) {
		tt := map[string]struct {
			call func(s *BackendService) (*models.Message, error)
			path string
			body map[string]any
		}{
			"verify": {
				call: func(s *BackendService) (*models.Message, error) { return s.VerifyOTP(ctx, "a@b.c", "123456") },
				path: "/auth/verify-otp",
				body: map[string]any{"email": "a@b.c", "code": "123456"},
			},
			"resend": {
				call: func(s *BackendService) (*models.Message, error) { return s.ResendOTP(ctx, "a@b.c") },
				path: "/auth/resend-otp",
				body: map[string]any{"email": "a@b.c"},
			},
			"forgot": {
				call: func(s *BackendService) (*models.Message, error) { return s.ForgotPassword(ctx, "a@b.c") },
				path: "/users/forgot-password",
				body: map[string]any{"email": "a@b.c"},
			},
			"reset": {
				call: func(s *BackendService) (*models.Message, error) {
					return s.ResetPassword(ctx, "a@b.c", "654321", "new-pw")
				},
				path: "/users/reset-password",
				body: map[string]any{"email": "a@b.c", "code": "654321", "newPassword": "new-pw"},
			},
		}
		for name, tc := range tt {
			t.Run(name, func(t *testing.T) {
				b, server := newBackend(t)
				b.handle("POST "+tc.path, http.StatusOK, `{"success":true,"message":"done"}`)
				srv := NewBackendService(BackendOpts{BaseURL: server.URL})

				m, err := tc.call(srv)
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if !m.Success || m.Message != "done" {
					t.Errorf("message = %+v", m)
				}

				req := b.last()
				if req.Method != http.MethodPost || req.Path != tc.path {
					t.Errorf("request = %s %s", req.Method, req.Path)
				}
				for k, v := range tc.body {
					if req.Body[k] != v {
						t.Errorf("body[%s] = %v, want %v", k, req.Body[k], v)
					}
				}
			})
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("POST /auth/verify-otp", http.StatusBadRequest, `{"message":"Invalid or expired OTP"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL})

		if _, err := srv.VerifyOTP(ctx, "a@b.c", "000000"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("missing fields fail locally", func(t *testing.T) {
		b, server := newBackend(t)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL})

		if _, err := srv.ResetPassword(ctx, "a@b.c", "", "pw"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := srv.Register(ctx, "", "a@b.c", "pw"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if b.count() != 0 {
			t.Errorf("expected no requests, got %d", b.count())
		}
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("PUT /users/me", http.StatusOK, `{"_id":"u1","name":"Ann B","bio":"hi"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		user, err := srv.UpdateProfile(ctx, models.ProfileUpdate{Name: "Ann B", Bio: "hi"})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if user.Name != "Ann B" || user.Bio != "hi" {
			t.Errorf("user = %+v", user)
		}
		if _, err := srv.UpdateProfile(ctx, models.ProfileUpdate{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("ChangePassword", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("PUT /users/me", http.StatusOK, `{"message":"Password updated"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		m, err := srv.ChangePassword(ctx, models.PasswordChange{CurrentPassword: "old", NewPassword: "new"})
		if err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}
		if m.Message != "Password updated" {
			t.Errorf("message = %+v", m)
		}
		if req := b.last(); req.Body["currentPassword"] != "old" || req.Body["newPassword"] != "new" {
			t.Errorf("body = %v", req.Body)
		}
	})

	t.Run("avatar", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("POST /users/me/avatar", http.StatusOK, `{"success":true,"avatar":"https://cdn.example/a.png"}`)
		b.handle("DELETE /users/me/avatar", http.StatusOK, `{"success":true}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		url, err := srv.UploadAvatar(ctx, FilePart{Name: "me.jpg", Body: strings.NewReader("jpg")})
		if err != nil {
			t.Fatalf("UploadAvatar() error = %v", err)
		}
		if url != "https://cdn.example/a.png" {
			t.Errorf("url = %q", url)
		}
		if got := b.last().Files["avatar"]; got.ContentType != "image/jpeg" || got.Data != "jpg" {
			t.Errorf("file = %+v", got)
		}

		if err := srv.RemoveAvatar(ctx); err != nil {
			t.Fatalf("RemoveAvatar() error = %v", err)
		}
	})

	t.Run("avatar rejected by the backend", func(t *testing.T) {
		b, server := newBackend(t)
		b.handle("DELETE /users/me/avatar", http.StatusOK, `{"success":false,"message":"no avatar"}`)
		srv := NewBackendService(BackendOpts{BaseURL: server.URL, Tokens: sessionStore(t, userToken(t))})

		if err := srv.RemoveAvatar(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestFilePart(t *testing.T) {
	tt := map[string]struct {
		name, kind string
		want       error
	}{
		"mp4 video":         {name: "a.mp4", kind: "video"},
		"upper case webm":   {name: "A.WEBM", kind: "video"},
		"jpeg image":        {name: "a.jpeg", kind: "image"},
		"image as video":    {name: "a.png", kind: "video", want: shared.ErrInvalidInput},
		"no extension":      {name: "clip", kind: "video", want: shared.ErrInvalidInput},
		"video as an image": {name: "a.mov", kind: "image", want: shared.ErrInvalidInput},
	}
	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			p := FilePart{Name: tc.name, Body: strings.NewReader("")}
			if err := p.requireMedia(tc.kind); !errors.Is(err, tc.want) {
				t.Errorf("requireMedia(%s) = %v, want %v", tc.kind, err, tc.want)
			}
		})
	}
}

func TestProgressReader(t *testing.T) {
	var calls [][2]int64
	p := &ProgressReader{
		R:      iotest.OneByteReader(strings.NewReader("abc")),
		Total:  3,
		OnRead: func(sent, total int64) { calls = append(calls, [2]int64{sent, total}) },
	}

	data, err := io.ReadAll(p)
	if err != nil || string(data) != "abc" {
		t.Fatalf("ReadAll() = %q, %v", data, err)
	}
	if len(calls) != 3 || calls[2] != [2]int64{3, 3} {
		t.Errorf("calls = %v", calls)
	}
}

func TestMultipartBodyStop(t *testing.T) {
	body, stop := multipartBody(map[string]string{"title": "x"}, FilePart{Field: "video", Name: "a.mp4", Body: strings.NewReader("data")})
	if !strings.HasPrefix(body.contentType, "multipart/form-data; boundary=") {
		t.Errorf("content type = %q", body.contentType)
	}

	// nothing reads the body; stop must release the writer
	stop()
	if _, err := body.r.Read(make([]byte, 1)); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("read after stop = %v, want io.ErrClosedPipe", err)
	}
}
