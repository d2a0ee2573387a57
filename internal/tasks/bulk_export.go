package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scribe/internal/formatter"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	"golang.org/x/time/rate"
)

// ManifestName is the file written at the root of every bulk export.
const ManifestName = "export_manifest.json"

// TranscriptSource provides transcripts to export. Implemented by [services.Client].
type TranscriptSource interface {
	ListTranscripts(ctx context.Context) ([]models.TranscriptSummary, error)
	Utterances(ctx context.Context, databaseID int) (*models.TranscriptDetail, error)
	DownloadTranscript(ctx context.Context, transcriptID, format string) ([]byte, error)
}

// ExportRecorder persists a record of every exported file. Implemented by repositories.ExportLogRepository.
type ExportRecorder interface {
	Create(rec *models.ExportRecord) error
}

// BulkExportOpts contains configuration for bulk transcript exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: txt)
	OutputDir  string           // Base output directory (default: scribe_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Backend requests per second (default: 5)
	Recorder   ExportRecorder   // Optional export log
}

// BulkExportResult summarizes a bulk export and is written as the manifest.
type BulkExportResult struct {
	TotalTranscripts  int                      `json:"total_transcripts"`
	SuccessfulExports int                      `json:"successful_exports"`
	FailedExports     int                      `json:"failed_exports"`
	Format            formatter.Format         `json:"format"`
	OutputDirectory   string                   `json:"output_directory"`
	ExportedAt        time.Time                `json:"exported_at"`
	Results           []TranscriptExportResult `json:"results"`
	ManifestPath      string                   `json:"-"`
}

// TranscriptExportResult is the outcome for one transcript.
type TranscriptExportResult struct {
	DatabaseID   int    `json:"id"`
	TranscriptID string `json:"transcript_id"`
	Filename     string `json:"filename"`
	Success      bool   `json:"success"`
	File         string `json:"file,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
	Error        error  `json:"-"`
}

type exportJob struct {
	summary models.TranscriptSummary
	doc     *formatter.Document
}

// Exporter writes transcripts to disk.
type Exporter struct {
	source TranscriptSource
	logger *log.Logger
}

// NewExporter creates an Exporter reading from source.
func NewExporter(source TranscriptSource, logger *log.Logger) *Exporter {
	return &Exporter{source: source, logger: logger}
}

// Document fetches everything needed to render one transcript. The plain text is downloaded only when the
// transcript has no utterances.
func (e *Exporter) Document(ctx context.Context, t models.TranscriptSummary) (*formatter.Document, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: transcript source not initialized", shared.ErrServiceUnavailable)
	}

	detail, err := e.source.Utterances(ctx, t.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utterances: %w", err)
	}

	doc := &formatter.Document{Summary: t, Detail: *detail}
	if len(detail.Utterances) == 0 && t.ID != "" {
		text, err := e.source.DownloadTranscript(ctx, t.ID, "txt")
		if err != nil {
			return nil, fmt.Errorf("failed to download transcript text: %w", err)
		}
		doc.Text = string(text)
	}
	return doc, nil
}

// BulkExport exports transcripts concurrently with rate limiting and progress tracking.
//
// A nil items slice exports every transcript in the library. Partial failures are recorded in the result and the
// manifest; only setup errors are returned.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	items []models.TranscriptSummary,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: transcript source not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("scribe_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if items == nil {
		sendProgress(prog, fetchTranscriptsUpdate(0, 1))
		list, err := e.source.ListTranscripts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list transcripts: %w", err)
		}
		items = list
		sendProgress(prog, fetchTranscriptsUpdate(1, 1))
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalTranscripts: len(items),
		Format:           opts.Format,
		OutputDirectory:  opts.OutputDir,
		ExportedAt:       time.Now().UTC(),
		Results:          make([]TranscriptExportResult, 0, len(items)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(items))
	results := make(chan TranscriptExportResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchTranscriptUpdate(i+1, len(items), item))
			doc, err := e.Document(ctx, item)
			if err != nil {
				results <- exportResult(item, err)
				continue
			}
			jobs <- exportJob{summary: item, doc: doc}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			e.record(opts, res)
			sendProgress(prog, exportCompletedUpdate(completed, len(items), res.Filename, res.File))
		} else {
			result.FailedExports++
			res.ErrorMessage = res.Error.Error()
			sendProgress(prog, exportFailedUpdate(completed, len(items), res.Filename, res.Error))
		}
		result.Results = append(result.Results, res)
	}

	slices.SortFunc(result.Results, func(a, b TranscriptExportResult) int {
		return cmp.Compare(a.DatabaseID, b.DatabaseID)
	})

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes transcripts from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- TranscriptExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportSingle(job, opts)
	}
}

// ExportPath returns the file a transcript is written to inside dir.
func ExportPath(dir string, t models.TranscriptSummary, f formatter.Format) string {
	name := fmt.Sprintf("%d_%s%s", t.DatabaseID, formatter.SafeFilename(t.Filename), f.Extension())
	return filepath.Join(dir, name)
}

func exportSingle(j exportJob, opts BulkExportOpts) TranscriptExportResult {
	path, err := formatter.WriteExport(j.doc, opts.Format, ExportPath(opts.OutputDir, j.summary, opts.Format))
	if err != nil {
		return exportResult(j.summary, fmt.Errorf("%s export failed: %w", opts.Format, err))
	}

	res := exportResult(j.summary, nil)
	res.Success = true
	res.File = path
	return res
}

func exportResult(t models.TranscriptSummary, err error) TranscriptExportResult {
	return TranscriptExportResult{
		DatabaseID:   t.DatabaseID,
		TranscriptID: t.ID,
		Filename:     t.Filename,
		Error:        err,
	}
}

// record writes an export log entry. Failures are logged, never fatal.
func (e *Exporter) record(opts BulkExportOpts, res TranscriptExportResult) {
	if opts.Recorder == nil {
		return
	}
	err := opts.Recorder.Create(&models.ExportRecord{
		TranscriptID: res.DatabaseID,
		Filename:     res.Filename,
		Format:       string(opts.Format),
		Path:         res.File,
	})
	if err != nil && e.logger != nil {
		e.logger.Warn("failed to record export", "file", res.File, "error", err)
	}
}
