package tasks

import (
	"fmt"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/dustin/go-humanize"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Percent returns Step as a share of Total in the range 0-100.
func (u ProgressUpdate) Percent() int {
	if u.Total <= 0 {
		return 0
	}
	return u.Step * 100 / u.Total
}

// Operation phase enumeration
type Phase int

const (
	ValidateUpload Phase = iota
	UploadFile
	ProcessAudio
	UploadComplete
	UploadFailed
	FetchTranscripts
	FetchTranscript
	ExportTranscript
)

func (p Phase) String() string {
	switch p {
	case ValidateUpload:
		return "validate_upload"
	case UploadFile:
		return "upload_file"
	case ProcessAudio:
		return "process_audio"
	case UploadComplete:
		return "upload_complete"
	case UploadFailed:
		return "upload_failed"
	case FetchTranscripts:
		return "fetch_transcripts"
	case FetchTranscript:
		return "fetch_transcript"
	case ExportTranscript:
		return "export_transcript"
	default:
		return ""
	}
}

func validateUpdate(info *FileInfo) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateUpload,
		Total:   ProgressComplete,
		Message: fmt.Sprintf("Validated %s (%s)", info.Name, humanize.IBytes(uint64(info.Size))),
		Data:    info,
	}
}

// progressUpdate reports the blended upload/processing percentage.
func progressUpdate(value int) ProgressUpdate {
	phase := ProcessAudio
	if value < ProgressUploadCeiling {
		phase = UploadFile
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    value,
		Total:   ProgressComplete,
		Message: StageLabel(value),
	}
}

func uploadCompleteUpdate(res *models.TranscribeResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadComplete,
		Step:    ProgressComplete,
		Total:   ProgressComplete,
		Message: fmt.Sprintf("Transcribed %s", res.Filename),
		Data:    res,
	}
}

func uploadFailedUpdate(value int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFailed,
		Step:    value,
		Total:   ProgressComplete,
		Message: fmt.Sprintf("Upload failed: %v", err),
	}
}

func fetchTranscriptsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTranscripts,
		Step:    step,
		Total:   total,
		Message: "Fetching transcript list...",
	}
}

func fetchTranscriptUpdate(step, total int, t models.TranscriptSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTranscript,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching: %s...", step, total, t.Filename),
	}
}

func exportCompletedUpdate(step, total int, name, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportTranscript,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s -> %s", step, total, name, path),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportTranscript,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
