package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// uploadQuality picks the flag value, then the configured default for accounts, then the mode default.
func (r *Runner) uploadQuality(cmd *cli.Command, mode session.Mode) (models.Quality, error) {
	if q := cmd.String("quality"); q != "" {
		return models.ParseQuality(q)
	}
	if mode == session.Authenticated && r.config.Upload.DefaultQuality != "" {
		return models.ParseQuality(r.config.Upload.DefaultQuality)
	}
	return tasks.DefaultQuality(mode), nil
}

// Upload validates and transcribes an audio file, printing progress as it goes.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	if cmd.Bool("guest") && r.session.Mode() == session.Anonymous {
		if err := r.session.EnterGuest(); err != nil {
			return err
		}
	}
	mode := r.session.Mode()
	if mode == session.Anonymous {
		return fmt.Errorf("%w: log in or pass --guest", shared.ErrNotAuthenticated)
	}

	quality, err := r.uploadQuality(cmd, mode)
	if err != nil {
		return err
	}

	r.logger.Info("starting upload", "path", path, "quality", quality, "mode", mode)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		var last string
		for update := range progressCh {
			if update.Message == last {
				continue
			}
			last = update.Message
			switch update.Phase {
			case tasks.ValidateUpload:
				r.writePlain("🔎 %s\n", update.Message)
			case tasks.UploadFile, tasks.ProcessAudio:
				r.writePlain("📤 %3d%% %s\n", update.Percent(), update.Message)
			case tasks.UploadComplete:
				r.writePlain("✅ %s\n", update.Message)
			case tasks.UploadFailed:
				r.writePlain("❌ %s\n", update.Message)
			}
		}
	}()

	result, err := r.uploader.Upload(ctx, path, quality, progressCh)
	close(progressCh)
	<-printed

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainln("")
	r.writePlainHeader("Transcription Complete!")
	r.writePlain("File: %s\n", result.Filename)
	if mode == session.Authenticated {
		r.writePlain("Transcript: %d (%s)\n", result.DatabaseID, result.ID)
		return r.writePlain("Run 'scribe transcripts show %d' to read it.\n", result.DatabaseID)
	}
	r.writePlain("Guest transcripts are not saved.\n\n")
	return r.writePlain("%s\n", result.Text)
}
