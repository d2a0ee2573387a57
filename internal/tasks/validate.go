package tasks

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
)

// Upload size ceilings. A file larger than the ceiling for the session mode is rejected.
const (
	GuestMaxBytes   int64 = 5 << 20
	AccountMaxBytes int64 = 100 << 20
)

// Validation messages shown to the user.
const (
	InvalidTypeMessage     = "Invalid file type. Please upload an audio file (.m4a, .mp3, .wav)"
	GuestTooLargeMessage   = "File too large for guest mode. Maximum is 5MB. Create an account for files up to 100MB."
	AccountTooLargeMessage = "File is too large. Maximum size is 100MB."
	EmptyFileMessage       = "File is empty."
)

var (
	// AllowedExtensions lists accepted audio file extensions.
	AllowedExtensions = []string{".m4a", ".mp3", ".wav"}

	// AllowedMIMETypes lists accepted audio MIME types.
	AllowedMIMETypes = []string{"audio/m4a", "audio/x-m4a", "audio/mp3", "audio/mpeg", "audio/wav", "audio/wave", "audio/x-wav"}

	extensionMIME = map[string]string{
		".m4a": "audio/x-m4a",
		".mp3": "audio/mpeg",
		".wav": "audio/wav",
	}
)

// ValidationError is a client-side upload rejection. It unwraps to [shared.ErrInvalidFile] or
// [shared.ErrFileTooLarge], and also to [shared.ErrUpgradeRequired] when an account would lift the limit.
type ValidationError struct {
	Message         string
	UpgradeRequired bool
	err             error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.UpgradeRequired {
		return []error{e.err, shared.ErrUpgradeRequired}
	}
	return []error{e.err}
}

// FileInfo describes a validated upload.
type FileInfo struct {
	Path     string
	Name     string
	Size     int64
	MIMEType string
}

// MaxUploadBytes returns the upload ceiling for a session mode.
func MaxUploadBytes(mode session.Mode) int64 {
	if mode == session.Guest {
		return GuestMaxBytes
	}
	return AccountMaxBytes
}

// Validate checks type and size of the file at path for the given session mode without contacting the backend.
//
// A file passes the type check if either its extension or its sniffed content type is an accepted audio type.
func Validate(path string, mode session.Mode) (*FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", shared.ErrInvalidInput, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	sniffed, err := sniff(path)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(AllowedExtensions, ext) && !slices.Contains(AllowedMIMETypes, sniffed) {
		return nil, &ValidationError{Message: InvalidTypeMessage, err: shared.ErrInvalidFile}
	}

	if st.Size() == 0 {
		return nil, &ValidationError{Message: EmptyFileMessage, err: shared.ErrInvalidFile}
	}

	if st.Size() > MaxUploadBytes(mode) {
		if mode == session.Guest {
			return nil, &ValidationError{Message: GuestTooLargeMessage, UpgradeRequired: true, err: shared.ErrFileTooLarge}
		}
		return nil, &ValidationError{Message: AccountTooLargeMessage, err: shared.ErrFileTooLarge}
	}

	return &FileInfo{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     st.Size(),
		MIMEType: resolveMIME(ext, sniffed),
	}, nil
}

// sniff returns the media type detected from the first 512 bytes of the file.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(buf[:n]))
	if err != nil {
		return "", nil
	}
	return mediaType, nil
}

func resolveMIME(ext, sniffed string) string {
	if slices.Contains(AllowedMIMETypes, sniffed) {
		return sniffed
	}
	if m, ok := extensionMIME[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
