// package formatter renders transcripts to export formats (plain text, Markdown, CSV, SubRip, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
)

// Format is an export format name.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatSRT      Format = "srt"
	FormatJSON     Format = "json"
)

// Formats lists every supported export format.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatSRT, FormatJSON}

// ParseFormat accepts a format name or its common aliases ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "srt":
		return FormatSRT, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatSRT:
		return ".srt"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// Document is everything an exporter needs about one transcript.
//
// Text is the backend's plain text rendition, used when there are no utterances.
type Document struct {
	Summary models.TranscriptSummary
	Detail  models.TranscriptDetail
	Text    string
}

// FormatTimestamp renders a millisecond offset as "MM:SS", or "H:MM:SS" past the hour.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// formatSRTTimestamp renders a millisecond offset as "HH:MM:SS,mmm".
func formatSRTTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// Export renders doc in format f.
func Export(doc *Document, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return ExportToText(doc)
	case FormatMarkdown:
		return ExportToMarkdown(doc)
	case FormatCSV:
		return ExportToCSV(doc)
	case FormatSRT:
		return ExportToSRT(doc)
	case FormatJSON:
		return ExportToJSON(doc)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// ExportToText writes one "[MM:SS] Name: text" line per utterance.
func ExportToText(doc *Document) ([]byte, error) {
	if len(doc.Detail.Utterances) == 0 {
		return []byte(doc.Text), nil
	}

	var buf bytes.Buffer
	for _, u := range doc.Detail.Utterances {
		fmt.Fprintf(&buf, "[%s] %s: %s\n", FormatTimestamp(u.Start), doc.Detail.Speakers.DisplayName(u.Speaker), u.Text)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, metadata and the speaker turns.
func ExportToMarkdown(doc *Document) ([]byte, error) {
	var buf bytes.Buffer

	title := doc.Summary.Filename
	if title == "" {
		title = doc.Summary.ID
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if !doc.Summary.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", doc.Summary.CreatedAt.Format("2006-01-02 15:04"))
	}

	labels := doc.Detail.Labels()
	if len(labels) > 0 {
		names := make([]string, len(labels))
		for i, l := range labels {
			names[i] = doc.Detail.Speakers.DisplayName(l)
		}
		fmt.Fprintf(&buf, "**Speakers**: %s\n", strings.Join(names, ", "))
	}
	buf.WriteString("\n## Transcript\n\n")

	if len(doc.Detail.Utterances) == 0 {
		buf.WriteString(strings.TrimSpace(doc.Text))
		buf.WriteString("\n")
		return buf.Bytes(), nil
	}

	for _, u := range doc.Detail.Utterances {
		fmt.Fprintf(&buf, "**%s** `%s`: %s\n\n", doc.Detail.Speakers.DisplayName(u.Speaker), FormatTimestamp(u.Start), u.Text)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts utterances to CSV with columns: Start, End, Label, Speaker, Text
func ExportToCSV(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Start", "End", "Label", "Speaker", "Text"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, u := range doc.Detail.Utterances {
		record := []string{
			strconv.FormatInt(u.Start, 10),
			strconv.FormatInt(u.End, 10),
			u.Speaker,
			doc.Detail.Speakers.DisplayName(u.Speaker),
			u.Text,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToSRT renders utterances as SubRip cues. Utterances without an end offset last until the next one starts.
func ExportToSRT(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	utts := doc.Detail.Utterances

	for i, u := range utts {
		end := u.End
		if end <= u.Start {
			if i+1 < len(utts) {
				end = utts[i+1].Start
			} else {
				end = u.Start + 2000
			}
		}
		fmt.Fprintf(&buf, "%d\n%s --> %s\n%s: %s\n\n",
			i+1, formatSRTTimestamp(u.Start), formatSRTTimestamp(end), doc.Detail.Speakers.DisplayName(u.Speaker), u.Text)
	}
	return buf.Bytes(), nil
}

type jsonDocument struct {
	ID         string                `json:"id"`
	DatabaseID int                   `json:"database_id"`
	Filename   string                `json:"filename"`
	CreatedAt  models.Timestamp      `json:"created_at"`
	Speakers   models.SpeakerMapping `json:"speakers"`
	Utterances []models.Utterance    `json:"utterances"`
	Text       string                `json:"text,omitempty"`
}

// ExportToJSON writes the summary, speaker mapping and utterances as indented JSON.
func ExportToJSON(doc *Document) ([]byte, error) {
	speakers := doc.Detail.Speakers
	if speakers == nil {
		speakers = models.SpeakerMapping{}
	}
	utts := doc.Detail.Utterances
	if utts == nil {
		utts = []models.Utterance{}
	}
	return shared.MarshalJSON(jsonDocument{
		ID:         doc.Summary.ID,
		DatabaseID: doc.Summary.DatabaseID,
		Filename:   doc.Summary.Filename,
		CreatedAt:  doc.Summary.CreatedAt,
		Speakers:   speakers,
		Utterances: utts,
		Text:       doc.Text,
	}, true)
}

// SafeFilename turns a transcript name into a filesystem-safe base name without extension.
func SafeFilename(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "transcript"
	}
	return b.String()
}

// WriteExport renders doc in format f and writes it to path, returning the path written.
//
// An empty path defaults to "<safe filename><ext>" in the working directory.
func WriteExport(doc *Document, f Format, path string) (string, error) {
	if path == "" {
		path = SafeFilename(doc.Summary.Filename) + f.Extension()
	}

	data, err := Export(doc, f)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
