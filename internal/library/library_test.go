package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/scribe/internal/formatter"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/shared"
	tu "github.com/desertthunder/scribe/internal/testing"
)

type fakeBackend struct {
	items      []models.TranscriptSummary
	detail     *models.TranscriptDetail
	text       string
	failRename error
	failDelete error
	failLabel  error
	calls      tu.Counter
}

func (f *fakeBackend) ListTranscripts(ctx context.Context) ([]models.TranscriptSummary, error) {
	f.calls.Inc("list")
	return f.items, nil
}

func (f *fakeBackend) DownloadTranscript(ctx context.Context, transcriptID, format string) ([]byte, error) {
	f.calls.Inc("download")
	return []byte(fmt.Sprintf("%s:%s:%s", transcriptID, format, f.text)), nil
}

func (f *fakeBackend) RenameTranscript(ctx context.Context, databaseID int, filename string) error {
	f.calls.Inc("rename")
	return f.failRename
}

func (f *fakeBackend) DeleteTranscript(ctx context.Context, databaseID int) error {
	f.calls.Inc("delete")
	return f.failDelete
}

func (f *fakeBackend) Utterances(ctx context.Context, databaseID int) (*models.TranscriptDetail, error) {
	f.calls.Inc("utterances")
	d := models.TranscriptDetail{
		Utterances: append([]models.Utterance(nil), f.detail.Utterances...),
		Speakers:   f.detail.Speakers.Clone(),
	}
	return &d, nil
}

func (f *fakeBackend) UpdateSpeaker(ctx context.Context, databaseID int, label, displayName string) (string, error) {
	f.calls.Inc("speaker")
	if f.failLabel != nil {
		return "", f.failLabel
	}
	return displayName, nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		items: []models.TranscriptSummary{
			{DatabaseID: 2, ID: "b_standup", Filename: "standup.mp3"},
			{DatabaseID: 1, ID: "a_interview", Filename: "interview.m4a"},
		},
		detail: &models.TranscriptDetail{
			Utterances: []models.Utterance{
				{Speaker: "A", Text: "Welcome", Start: 0},
				{Speaker: "B", Text: "Thanks", Start: 1200},
			},
			Speakers: models.SpeakerMapping{"A": "Host"},
		},
		text: "Welcome Thanks",
	}
}

func newLoaded(t *testing.T, b *fakeBackend) *Library {
	t.Helper()
	l := New(b, nil)
	if _, err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return l
}

func confirm(answer bool) (Confirmer, *int) {
	asked := 0
	return ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		asked++
		return answer, nil
	}), &asked
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("Add Prepends", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		l.Add(models.TranscriptSummary{DatabaseID: 3, ID: "c_new", Filename: "new.wav"})

		items := l.Items()
		if len(items) != 3 || items[0].DatabaseID != 3 {
			t.Errorf("expected new transcript first, got %+v", items)
		}
	})

	t.Run("Open Loads Text And Utterances", func(t *testing.T) {
		b := newFakeBackend()
		l := newLoaded(t, b)

		v, err := l.Open(ctx, 2)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if v.Text != "b_standup:txt:Welcome Thanks" {
			t.Errorf("unexpected text %q", v.Text)
		}
		if len(v.Detail.Utterances) != 2 || v.Detail.Speakers.DisplayName("A") != "Host" {
			t.Errorf("unexpected detail %+v", v.Detail)
		}

		v.Detail.Speakers["A"] = "mutated"
		current, _ := l.Viewer()
		if current.Detail.Speakers["A"] != "Host" {
			t.Error("viewer snapshot shares state with the library")
		}
	})

	t.Run("Open Unknown Transcript", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		if _, err := l.Open(ctx, 99); !errors.Is(err, shared.ErrTranscriptNotFound) {
			t.Errorf("expected ErrTranscriptNotFound, got %v", err)
		}
	})

	t.Run("Rename Updates List And Viewer", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		l.Open(ctx, 2)

		if err := l.Rename(ctx, 2, "  daily standup  "); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		item, _ := l.Find(2)
		v, _ := l.Viewer()
		if item.Filename != "daily standup" || v.Summary.Filename != "daily standup" {
			t.Errorf("expected rename applied, got list %q viewer %q", item.Filename, v.Summary.Filename)
		}
	})

	t.Run("Rename Rolls Back On Failure", func(t *testing.T) {
		b := newFakeBackend()
		b.failRename = &services.APIError{StatusCode: 500, Message: "Failed to rename transcript"}
		l := newLoaded(t, b)
		l.Open(ctx, 2)
		before := l.Items()

		err := l.Rename(ctx, 2, "renamed")
		if err == nil {
			t.Fatal("expected error")
		}
		if !reflect.DeepEqual(l.Items(), before) {
			t.Errorf("list not rolled back: %+v", l.Items())
		}
		if v, _ := l.Viewer(); v.Summary.Filename != "standup.mp3" {
			t.Errorf("viewer not rolled back: %q", v.Summary.Filename)
		}
	})

	t.Run("Rename Rejects Empty Name", func(t *testing.T) {
		b := newFakeBackend()
		l := newLoaded(t, b)
		if err := l.Rename(ctx, 2, "   "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if b.calls.Get("rename") != 0 {
			t.Error("expected no rename call")
		}
	})

	t.Run("Delete Requires Confirmation", func(t *testing.T) {
		b := newFakeBackend()
		l := newLoaded(t, b)

		if err := l.Delete(ctx, 2, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		c, asked := confirm(false)
		if err := l.Delete(ctx, 2, c); !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
		if *asked != 1 {
			t.Errorf("expected one confirmation prompt, got %d", *asked)
		}
		if b.calls.Get("delete") != 0 || len(l.Items()) != 2 {
			t.Error("declined delete must not call the backend or change the list")
		}
	})

	t.Run("Delete Closes Viewer", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		l.Open(ctx, 2)

		c, _ := confirm(true)
		if err := l.Delete(ctx, 2, c); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok := l.Viewer(); ok {
			t.Error("expected viewer closed")
		}
		if _, ok := l.Find(2); ok {
			t.Error("expected transcript removed from list")
		}
	})

	t.Run("Delete Other Keeps Viewer", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		l.Open(ctx, 2)

		c, _ := confirm(true)
		if err := l.Delete(ctx, 1, c); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if v, ok := l.Viewer(); !ok || v.Summary.DatabaseID != 2 {
			t.Error("expected viewer to stay open")
		}
	})

	t.Run("Delete Failure Keeps Item", func(t *testing.T) {
		b := newFakeBackend()
		b.failDelete = shared.ErrServiceUnavailable
		l := newLoaded(t, b)
		l.Open(ctx, 2)

		c, _ := confirm(true)
		if err := l.Delete(ctx, 2, c); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, ok := l.Find(2); !ok {
			t.Error("item removed despite failure")
		}
		if _, ok := l.Viewer(); !ok {
			t.Error("viewer closed despite failure")
		}
	})

	t.Run("Rename Speaker", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		if _, err := l.RenameSpeaker(ctx, "B", "Guest"); !errors.Is(err, ErrNoViewer) {
			t.Errorf("expected ErrNoViewer, got %v", err)
		}

		l.Open(ctx, 2)
		name, err := l.RenameSpeaker(ctx, "B", "Guest")
		if err != nil {
			t.Fatalf("RenameSpeaker() error = %v", err)
		}
		v, _ := l.Viewer()
		if name != "Guest" || v.Detail.Speakers.DisplayName("B") != "Guest" {
			t.Errorf("expected speaker B renamed, got %v", v.Detail.Speakers)
		}
	})

	t.Run("Rename Speaker Rolls Back", func(t *testing.T) {
		b := newFakeBackend()
		b.failLabel = shared.ErrServiceUnavailable
		l := newLoaded(t, b)
		l.Open(ctx, 2)
		before, _ := l.Viewer()

		if _, err := l.RenameSpeaker(ctx, "A", "Moderator"); err == nil {
			t.Fatal("expected error")
		}
		if _, err := l.RenameSpeaker(ctx, "B", "Guest"); err == nil {
			t.Fatal("expected error")
		}

		after, _ := l.Viewer()
		if !reflect.DeepEqual(after.Detail.Speakers, before.Detail.Speakers) {
			t.Errorf("speakers not rolled back: %v, want %v", after.Detail.Speakers, before.Detail.Speakers)
		}
	})

	t.Run("Download", func(t *testing.T) {
		l := newLoaded(t, newFakeBackend())
		data, err := l.Download(ctx, 1, "json")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if !strings.HasPrefix(string(data), "a_interview:json") {
			t.Errorf("unexpected download %q", data)
		}
	})

	t.Run("Export Uses Open Viewer", func(t *testing.T) {
		b := newFakeBackend()
		l := newLoaded(t, b)
		l.Open(ctx, 2)
		l.RenameSpeaker(ctx, "B", "Guest")
		before := b.calls.Get("utterances")

		path := filepath.Join(t.TempDir(), "out.md")
		if _, err := l.Export(ctx, 2, formatter.FormatMarkdown, path); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if b.calls.Get("utterances") != before {
			t.Error("expected export to reuse the open viewer")
		}
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "**Guest**") || !strings.Contains(content, "**Host**") {
			t.Errorf("unexpected export:\n%s", content)
		}
	})

	t.Run("Export Fetches Closed Transcript", func(t *testing.T) {
		b := newFakeBackend()
		l := newLoaded(t, b)

		path := filepath.Join(t.TempDir(), "out.srt")
		if _, err := l.Export(ctx, 1, formatter.FormatSRT, path); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if b.calls.Get("utterances") != 1 {
			t.Error("expected utterances fetched")
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "Host: Welcome") {
			t.Errorf("unexpected export:\n%s", content)
		}
	})
}
