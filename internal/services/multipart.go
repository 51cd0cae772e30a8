package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/desertthunder/vtx/internal/shared"
)

// MaxUploadBytes is the largest video file the backend accepts.
const MaxUploadBytes = 200 << 20

// FilePart is one file field of a multipart request.
type FilePart struct {
	Field string
	Name  string    // file name sent to the backend; its extension picks the media type
	Body  io.Reader // streamed, never buffered whole
}

// mediaTypes covers the upload formats the system mime table may not know.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// mediaType guesses the part's media type from its file name.
func (p FilePart) mediaType() string {
	ext := strings.ToLower(filepath.Ext(p.Name))
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// requireMedia rejects files whose extension does not map to the wanted top-level type ("video", "image").
func (p FilePart) requireMedia(kind string) error {
	if p.Body == nil {
		return fmt.Errorf("%w: no %s file", shared.ErrMissingArgument, kind)
	}
	if !strings.HasPrefix(p.mediaType(), kind+"/") {
		return fmt.Errorf("%w: %s is not a %s file", shared.ErrInvalidInput, p.Name, kind)
	}
	return nil
}

// multipartBody streams fields and files through a pipe. The returned stop func must be called once the
// request is done so an unread body does not leave the writer blocked.
func multipartBody(fields map[string]string, files ...FilePart) (requestBody, func()) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeParts(mw, fields, files))
	}()

	return requestBody{r: pr, contentType: mw.FormDataContentType()}, func() { pr.Close() }
}

func writeParts(mw *multipart.Writer, fields map[string]string, files []FilePart) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     f.Field,
			"filename": filepath.Base(f.Name),
		}))
		h.Set("Content-Type", f.mediaType())

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("failed to stream %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

// doMultipart sends fields and files as multipart/form-data and decodes the reply into out.
func (b *BackendService) doMultipart(ctx context.Context, method, path string, fields map[string]string, out any, mode authMode, files ...FilePart) error {
	body, stop := multipartBody(fields, files...)
	defer stop()
	return b.do(ctx, method, path, body, out, mode)
}

// ProgressReader reports the running byte count of a read as it happens.
type ProgressReader struct {
	R      io.Reader
	Total  int64
	OnRead func(sent, total int64)
	sent   int64
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.OnRead != nil {
			p.OnRead(p.sent, p.Total)
		}
	}
	return n, err
}
