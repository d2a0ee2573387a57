package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
)

// Transcriber sends an audio file to the backend. Implemented by [services.Client].
type Transcriber interface {
	Transcribe(ctx context.Context, u services.Upload) (*models.TranscribeResult, error)
}

// ModeSource reports whether the user is a guest or signed in. Implemented by [session.Manager].
type ModeSource interface {
	Mode() session.Mode
}

// Uploader validates an audio file, uploads it and reports blended progress.
type Uploader struct {
	client   Transcriber
	session  ModeSource
	interval time.Duration
	logger   *log.Logger
}

// NewUploader creates an Uploader. interval sets the simulation tick; zero uses [DefaultSimulationInterval].
func NewUploader(client Transcriber, sess ModeSource, interval time.Duration, logger *log.Logger) *Uploader {
	return &Uploader{client: client, session: sess, interval: interval, logger: logger}
}

// DefaultQuality returns the quality preselected for the session mode.
func DefaultQuality(mode session.Mode) models.Quality {
	if mode == session.Guest {
		return models.QualityMedium
	}
	return models.QualityHigh
}

// Upload transcribes the file at path.
//
// Validation happens before any request. Progress values are sent on progress as [ProgressUpdate]s with Step in
// 0-100; Step 100 is sent only after the backend returned the transcript. On failure or cancellation the simulation
// stops and a single [UploadFailed] update is sent.
func (u *Uploader) Upload(ctx context.Context, path string, quality models.Quality, progress chan<- ProgressUpdate) (*models.TranscribeResult, error) {
	mode := u.session.Mode()
	if mode == session.Anonymous {
		return nil, fmt.Errorf("%w: sign in or continue as guest to upload", shared.ErrNotAuthenticated)
	}

	info, err := Validate(path, mode)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, validateUpdate(info))

	if quality == "" {
		quality = DefaultQuality(mode)
	}

	tracker := NewProgressTracker(ctx, u.interval, func(v int) {
		sendProgress(progress, progressUpdate(v))
	})

	u.debug("uploading", "file", info.Name, "size", info.Size, "quality", quality, "mode", mode)
	res, err := u.client.Transcribe(ctx, services.Upload{
		Path:     info.Path,
		Filename: info.Name,
		MIMEType: info.MIMEType,
		Quality:  quality,
		Guest:    mode == session.Guest,
		Progress: tracker.Uploaded,
	})
	if err != nil {
		tracker.Stop()
		sendProgress(progress, uploadFailedUpdate(tracker.Value(), err))
		u.debug("upload failed", "file", info.Name, "error", err)
		return nil, err
	}

	tracker.Complete()
	sendProgress(progress, uploadCompleteUpdate(res))
	u.debug("upload complete", "file", info.Name, "id", res.ID, "database_id", res.DatabaseID)
	return res, nil
}

func (u *Uploader) debug(msg string, kv ...any) {
	if u.logger != nil {
		u.logger.Debug(msg, kv...)
	}
}
