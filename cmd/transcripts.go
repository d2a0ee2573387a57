package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/desertthunder/scribe/internal/formatter"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func parseID(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: transcript id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: transcript id must be a positive number, got %q", shared.ErrInvalidArgument, s)
	}
	return id, nil
}

// loadTranscript refreshes the library and returns the transcript named by the id argument.
func (r *Runner) loadTranscript(ctx context.Context, cmd *cli.Command) (models.TranscriptSummary, error) {
	if err := r.requireAuth(); err != nil {
		return models.TranscriptSummary{}, err
	}
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return models.TranscriptSummary{}, err
	}
	if _, err := r.library.Refresh(ctx); err != nil {
		return models.TranscriptSummary{}, err
	}
	t, ok := r.library.Find(id)
	if !ok {
		return models.TranscriptSummary{}, fmt.Errorf("%w: %d", shared.ErrTranscriptNotFound, id)
	}
	return t, nil
}

// TranscriptsList prints every transcript, newest first.
func (r *Runner) TranscriptsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	items, err := r.library.Refresh(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		return r.writePlain("No transcripts yet. Upload one with 'scribe upload <file>'.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Transcripts (%d)", len(items)))
	for _, t := range items {
		created := ""
		if !t.CreatedAt.IsZero() {
			created = humanize.Time(t.CreatedAt.Time)
		}
		r.writePlain("%5d  %-40s  %s\n", t.DatabaseID, shared.Truncate(t.Filename, 40), created)
	}
	return nil
}

// TranscriptsShow prints a transcript as "[MM:SS] Speaker: text" lines.
func (r *Runner) TranscriptsShow(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}

	v, err := r.library.Open(ctx, t.DatabaseID)
	if err != nil {
		return err
	}

	text := v.Text
	if !cmd.Bool("raw") {
		data, err := formatter.ExportToText(v.Document())
		if err != nil {
			return err
		}
		text = string(data)
	}

	if cmd.Bool("copy") {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		return r.writePlain("✓ Copied %s to the clipboard\n", t.Filename)
	}

	r.writePlainHeader(t.Filename)
	return r.writePlain("%s\n", strings.TrimRight(text, "\n"))
}

// TranscriptsRename changes the filename of a transcript.
func (r *Runner) TranscriptsRename(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}
	name := cmd.StringArg("name")
	if err := r.library.Rename(ctx, t.DatabaseID, name); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed %q to %q\n", t.Filename, strings.TrimSpace(name))
}

// TranscriptsDelete removes a transcript after confirmation.
func (r *Runner) TranscriptsDelete(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}

	err = r.library.Delete(ctx, t.DatabaseID, r.confirmer(cmd.Bool("yes")))
	if errors.Is(err, shared.ErrCancelled) {
		return r.writePlain("Cancelled\n")
	}
	if err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", t.Filename)
}

// TranscriptsSpeakers lists the speaker labels of a transcript with their display names.
func (r *Runner) TranscriptsSpeakers(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}
	v, err := r.library.Open(ctx, t.DatabaseID)
	if err != nil {
		return err
	}

	labels := v.Detail.Labels()
	if cmd.Bool("json") {
		names := make(map[string]string, len(labels))
		for _, l := range labels {
			names[l] = v.Detail.Speakers.DisplayName(l)
		}
		return r.writeJSON(names, true)
	}

	if len(labels) == 0 {
		return r.writePlain("No speakers detected\n")
	}
	for _, l := range labels {
		r.writePlain("%-4s %s\n", l, v.Detail.Speakers.DisplayName(l))
	}
	return nil
}

// TranscriptsSpeaker names a speaker label.
func (r *Runner) TranscriptsSpeaker(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}
	label := strings.TrimSpace(cmd.StringArg("label"))
	if label == "" {
		return fmt.Errorf("%w: label", shared.ErrMissingArgument)
	}

	if _, err := r.library.Open(ctx, t.DatabaseID); err != nil {
		return err
	}
	stored, err := r.library.RenameSpeaker(ctx, label, cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Speaker %s is now %s\n", label, stored)
}

// TranscriptsExport renders one transcript with the local formatter.
func (r *Runner) TranscriptsExport(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	path, err := r.library.Export(ctx, t.DatabaseID, f, cmd.String("output"))
	if err != nil {
		return err
	}

	if r.exportLog != nil {
		rec := &models.ExportRecord{TranscriptID: t.DatabaseID, Filename: t.Filename, Format: string(f), Path: path}
		if err := r.exportLog.Create(rec); err != nil {
			r.logger.Warn("failed to record export", "path", path, "error", err)
		}
	}
	return r.writePlain("✓ Exported %s to %s\n", t.Filename, path)
}

// TranscriptsExportAll exports every transcript and writes a manifest.
func (r *Runner) TranscriptsExportAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     f,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
	}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = int(n)
	}
	if rate := cmd.Float("rate"); rate > 0 {
		opts.RateLimit = rate
	}
	if r.exportLog != nil {
		opts.Recorder = r.exportLog
	}

	r.logger.Info("starting bulk export", "format", f, "workers", opts.NumWorkers)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchTranscripts:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportTranscript:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	result, err := r.exporter.BulkExport(ctx, progressCh, nil, opts)
	close(progressCh)
	<-printed

	if err != nil {
		return err
	}

	r.writePlainln("")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalTranscripts)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d transcripts:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.Filename, res.ErrorMessage)
			}
		}
	}
	return nil
}

// TranscriptsExports prints the local export log.
func (r *Runner) TranscriptsExports(ctx context.Context, cmd *cli.Command) error {
	if r.exportLog == nil {
		return fmt.Errorf("%w: no database configured", shared.ErrMissingConfig)
	}

	records, err := r.exportLog.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if len(records) == 0 {
		return r.writePlain("No exports yet\n")
	}
	for _, rec := range records {
		r.writePlain("%s  %-8s %s  (%s)\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.Format, rec.Path,
			humanize.Time(rec.CreatedAt))
	}
	return nil
}
