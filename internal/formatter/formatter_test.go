package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	th "github.com/desertthunder/scribe/internal/testing"
)

func sampleDocument() *Document {
	return &Document{
		Summary: models.TranscriptSummary{
			DatabaseID: 4,
			ID:         "ab12cd34_standup",
			Filename:   "Team Standup.m4a",
			CreatedAt:  models.Timestamp{Time: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
		},
		Detail: models.TranscriptDetail{
			Utterances: []models.Utterance{
				{Speaker: "A", Text: "Morning, everyone.", Start: 0, End: 1500},
				{Speaker: "B", Text: "Hi, quick update, the build is green.", Start: 65_250, End: 68_000},
			},
			Speakers: models.SpeakerMapping{"A": "Alice"},
		},
		Text: "A: Morning, everyone.\nB: Hi, quick update, the build is green.",
	}
}

func TestFormatTimestamp(t *testing.T) {
	tc := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{1_999, "00:01"},
		{65_250, "01:05"},
		{3_600_000, "1:00:00"},
		{3_725_000, "1:02:05"},
		{-5, "00:00"},
	}

	for _, tt := range tc {
		if got := FormatTimestamp(tt.ms); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %s, want %s", tt.ms, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "md": FormatMarkdown, "CSV": FormatCSV, "srt": FormatSRT, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleDocument())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "[00:00] Alice: Morning, everyone.") {
			t.Errorf("text missing mapped speaker line, got: %s", output)
		}
		if !strings.Contains(output, "[01:05] Speaker B: Hi") {
			t.Errorf("text missing fallback speaker line, got: %s", output)
		}
	})

	t.Run("ExportToText Without Utterances", func(t *testing.T) {
		doc := sampleDocument()
		doc.Detail.Utterances = nil

		data, _ := ExportToText(doc)
		if string(data) != doc.Text {
			t.Errorf("expected raw text, got %q", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleDocument())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Team Standup.m4a\n") {
			t.Errorf("markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Speakers**: Alice, Speaker B") {
			t.Errorf("markdown missing speakers, got: %s", output)
		}
		if !strings.Contains(output, "**Created**: 2025-03-01 09:30") {
			t.Errorf("markdown missing created date, got: %s", output)
		}
		if !strings.Contains(output, "**Alice** `00:00`: Morning, everyone.") {
			t.Errorf("markdown missing utterance, got: %s", output)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleDocument())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Start,End,Label,Speaker,Text" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[2] != `65250,68000,B,Speaker B,"Hi, quick update, the build is green."` {
			t.Errorf("unexpected CSV row: %s", lines[2])
		}
	})

	t.Run("ExportToSRT", func(t *testing.T) {
		doc := sampleDocument()
		doc.Detail.Utterances[0].End = 0

		data, err := ExportToSRT(doc)
		if err != nil {
			t.Fatalf("ExportToSRT failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "1\n00:00:00,000 --> 00:01:05,250\nAlice: Morning, everyone.") {
			t.Errorf("SRT should extend a missing end to the next start, got: %s", output)
		}
		if !strings.Contains(output, "2\n00:01:05,250 --> 00:01:08,000\n") {
			t.Errorf("SRT missing second cue, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleDocument())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["database_id"].(float64) != 4 || decoded["filename"] != "Team Standup.m4a" {
			t.Errorf("unexpected JSON %v", decoded)
		}
	})
}

func TestSafeFilename(t *testing.T) {
	tc := map[string]string{
		"Team Standup.m4a": "Team_Standup",
		"a/b\\c:d.mp3":     "abcd",
		"":                 "transcript",
		"日本語.wav":          "transcript",
	}
	for in, want := range tc {
		if got := SafeFilename(in); got != want {
			t.Errorf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("Writes File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "standup.md")

		got, err := WriteExport(sampleDocument(), FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "## Transcript") {
			t.Error("written file missing markdown body")
		}
	})

	t.Run("Default Path", func(t *testing.T) {
		dir := t.TempDir()
		wd := th.MustGetwd(t)
		th.MustChdir(t, dir)
		defer th.MustChdir(t, wd)

		got, err := WriteExport(sampleDocument(), FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "Team_Standup.csv" {
			t.Errorf("unexpected default path %s", got)
		}
		th.AssertFileExists(t, filepath.Join(dir, got))
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		if err := WriteManifest(map[string]int{"total": 2}, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, path), `"total": 2`) {
			t.Error("manifest missing content")
		}
	})
}
