package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/desertthunder/scribe/internal/models"
)

// TranscribeFailedMessage is shown when an upload fails without a backend message.
const TranscribeFailedMessage = "Failed to transcribe audio. Please try again."

// ProgressFunc receives the number of request body bytes written so far and the total body size.
type ProgressFunc func(sent, total int64)

// Upload describes one audio file to transcribe.
type Upload struct {
	Path     string
	Filename string
	MIMEType string
	Quality  models.Quality
	Guest    bool
	Progress ProgressFunc
}

// Transcribe streams the file as multipart/form-data to POST /transcribe, or POST /guest/transcribe for
// guests, and waits for the transcript. The file is read from disk and never buffered whole.
func (c *Client) Transcribe(ctx context.Context, u Upload) (*models.TranscribeResult, error) {
	req, err := c.newUploadRequest(ctx, u)
	if err != nil {
		return nil, err
	}

	hc := c.http
	if u.Guest {
		hc = c.plain
	}

	var result models.TranscribeResult
	if err := c.send(hc, req, &result, TranscribeFailedMessage); err != nil {
		return nil, err
	}
	if result.Filename == "" {
		result.Filename = uploadFilename(u)
	}
	return &result, nil
}

func uploadFilename(u Upload) string {
	if u.Filename != "" {
		return u.Filename
	}
	return filepath.Base(u.Path)
}

// newUploadRequest frames the file between a multipart prefix and suffix so Content-Length is known and
// GetBody can reopen the file for a replay.
func (c *Client) newUploadRequest(ctx context.Context, u Upload) (*http.Request, error) {
	info, err := os.Stat(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}

	quality := u.Quality
	if quality == "" {
		quality = models.QualityHigh
	}

	prefix, suffix, contentType, err := multipartFrame(uploadFilename(u), u.MIMEType, string(quality))
	if err != nil {
		return nil, err
	}
	total := int64(len(prefix)) + info.Size() + int64(len(suffix))

	open := func() (io.ReadCloser, error) {
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		r := io.MultiReader(bytes.NewReader(prefix), f, bytes.NewReader(suffix))
		return &progressBody{r: r, c: f, total: total, fn: u.Progress}, nil
	}

	body, err := open()
	if err != nil {
		return nil, err
	}

	path := "/transcribe"
	if u.Guest {
		path = "/guest/transcribe"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total
	req.GetBody = open
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartFrame renders the form fields and file part header, returning the bytes before and after the
// file content.
func multipartFrame(filename, mimeType, quality string) (prefix, suffix []byte, contentType string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("quality", quality); err != nil {
		return nil, nil, "", fmt.Errorf("failed to write form field: %w", err)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mimeType)
	if _, err := w.CreatePart(h); err != nil {
		return nil, nil, "", fmt.Errorf("failed to create file part: %w", err)
	}

	prefix = append([]byte(nil), buf.Bytes()...)
	buf.Reset()

	if err := w.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	suffix = append([]byte(nil), buf.Bytes()...)
	return prefix, suffix, w.FormDataContentType(), nil
}

// progressBody reports bytes read by the transport.
type progressBody struct {
	r     io.Reader
	c     io.Closer
	total int64
	sent  atomic.Int64
	fn    ProgressFunc
}

func (p *progressBody) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}

func (p *progressBody) Close() error {
	return p.c.Close()
}
