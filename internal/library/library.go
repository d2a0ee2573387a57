// Package library keeps the local transcript list and the open transcript viewer in sync with the backend.
//
// Mutations that change what the user sees (rename, speaker relabel) are applied locally first and rolled back
// when the backend rejects them. Deletion is never optimistic and requires an explicit [Confirmer] answer.
package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scribe/internal/formatter"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
	"golang.org/x/sync/errgroup"
)

// ErrNoViewer is returned by viewer operations when no transcript is open.
var ErrNoViewer = errors.New("no transcript open")

// Backend is the subset of [services.Client] used by the library.
type Backend interface {
	ListTranscripts(ctx context.Context) ([]models.TranscriptSummary, error)
	DownloadTranscript(ctx context.Context, transcriptID, format string) ([]byte, error)
	RenameTranscript(ctx context.Context, databaseID int, filename string) error
	DeleteTranscript(ctx context.Context, databaseID int) error
	Utterances(ctx context.Context, databaseID int) (*models.TranscriptDetail, error)
	UpdateSpeaker(ctx context.Context, databaseID int, label, displayName string) (string, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to [Confirmer].
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Viewer is the state of an open transcript.
type Viewer struct {
	Summary models.TranscriptSummary
	Text    string
	Detail  models.TranscriptDetail
}

// Document returns the viewer contents for export.
func (v *Viewer) Document() *formatter.Document {
	return &formatter.Document{Summary: v.Summary, Detail: v.Detail, Text: v.Text}
}

func (v *Viewer) clone() *Viewer {
	c := *v
	c.Detail.Utterances = slices.Clone(v.Detail.Utterances)
	c.Detail.Speakers = v.Detail.Speakers.Clone()
	return &c
}

// Library holds the transcript list and at most one open viewer.
type Library struct {
	mu      sync.Mutex
	backend Backend
	items   []models.TranscriptSummary
	viewer  *Viewer
	logger  *log.Logger
}

// New creates an empty Library.
func New(backend Backend, logger *log.Logger) *Library {
	return &Library{backend: backend, logger: logger}
}

// Refresh replaces the local list with the backend's.
func (l *Library) Refresh(ctx context.Context) ([]models.TranscriptSummary, error) {
	items, err := l.backend.ListTranscripts(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.items = slices.Clone(items)
	l.mu.Unlock()
	return items, nil
}

// Items returns a snapshot of the list.
func (l *Library) Items() []models.TranscriptSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Find returns the list entry with databaseID.
func (l *Library) Find(databaseID int) (models.TranscriptSummary, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(databaseID); i >= 0 {
		return l.items[i], true
	}
	return models.TranscriptSummary{}, false
}

// Add prepends a freshly created transcript.
func (l *Library) Add(t models.TranscriptSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(t.DatabaseID); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
	}
	l.items = slices.Insert(l.items, 0, t)
}

func (l *Library) index(databaseID int) int {
	return slices.IndexFunc(l.items, func(t models.TranscriptSummary) bool {
		return t.DatabaseID == databaseID
	})
}

func (l *Library) lookup(databaseID int) (models.TranscriptSummary, error) {
	t, ok := l.Find(databaseID)
	if !ok {
		return t, fmt.Errorf("%w: %d", shared.ErrTranscriptNotFound, databaseID)
	}
	return t, nil
}

// Open fetches the text and utterances of a transcript and makes it the current viewer.
func (l *Library) Open(ctx context.Context, databaseID int) (*Viewer, error) {
	t, err := l.lookup(databaseID)
	if err != nil {
		return nil, err
	}

	v := &Viewer{Summary: t}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := l.backend.DownloadTranscript(gctx, t.ID, "txt")
		if err != nil {
			return err
		}
		v.Text = string(text)
		return nil
	})
	g.Go(func() error {
		detail, err := l.backend.Utterances(gctx, databaseID)
		if err != nil {
			return err
		}
		v.Detail = *detail
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if v.Detail.Speakers == nil {
		v.Detail.Speakers = models.SpeakerMapping{}
	}

	l.mu.Lock()
	l.viewer = v
	l.mu.Unlock()
	return v.clone(), nil
}

// Viewer returns a snapshot of the open transcript.
func (l *Library) Viewer() (*Viewer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.viewer == nil {
		return nil, false
	}
	return l.viewer.clone(), true
}

// Close closes the viewer.
func (l *Library) Close() {
	l.mu.Lock()
	l.viewer = nil
	l.mu.Unlock()
}

// Rename changes a transcript's filename. The list and viewer show the new name immediately and revert to the old
// one if the backend rejects it.
func (l *Library) Rename(ctx context.Context, databaseID int, filename string) error {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return fmt.Errorf("%w: filename cannot be empty", shared.ErrInvalidInput)
	}

	t, err := l.lookup(databaseID)
	if err != nil {
		return err
	}
	previous := t.Filename
	if previous == filename {
		return nil
	}

	l.setFilename(databaseID, previous, filename)
	if err := l.backend.RenameTranscript(ctx, databaseID, filename); err != nil {
		l.setFilename(databaseID, filename, previous)
		l.debug("rename rolled back", "id", databaseID, "error", err)
		return err
	}
	return nil
}

// setFilename swaps from for to wherever it is still shown, leaving concurrent edits alone.
func (l *Library) setFilename(databaseID int, from, to string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(databaseID); i >= 0 && l.items[i].Filename == from {
		l.items[i].Filename = to
	}
	if l.viewer != nil && l.viewer.Summary.DatabaseID == databaseID && l.viewer.Summary.Filename == from {
		l.viewer.Summary.Filename = to
	}
}

// Delete removes a transcript after c approves. The list entry is removed only once the backend confirms, and the
// viewer closes if it showed the transcript.
func (l *Library) Delete(ctx context.Context, databaseID int, c Confirmer) error {
	if c == nil {
		return fmt.Errorf("%w: deletion requires confirmation", shared.ErrMissingArgument)
	}

	t, err := l.lookup(databaseID)
	if err != nil {
		return err
	}

	ok, err := c.Confirm(ctx, fmt.Sprintf("Delete %q? This cannot be undone.", t.Filename))
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrCancelled
	}

	if err := l.backend.DeleteTranscript(ctx, databaseID); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(databaseID); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
	}
	if l.viewer != nil && l.viewer.Summary.DatabaseID == databaseID {
		l.viewer = nil
	}
	return nil
}

// RenameSpeaker maps label to name in the open transcript. The viewer updates immediately and reverts if the
// backend rejects the change.
func (l *Library) RenameSpeaker(ctx context.Context, label, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: speaker name cannot be empty", shared.ErrInvalidInput)
	}

	l.mu.Lock()
	if l.viewer == nil {
		l.mu.Unlock()
		return "", ErrNoViewer
	}
	databaseID := l.viewer.Summary.DatabaseID
	previous, existed := l.viewer.Detail.Speakers[label]
	l.viewer.Detail.Speakers[label] = name
	l.mu.Unlock()

	stored, err := l.backend.UpdateSpeaker(ctx, databaseID, label, name)

	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.viewer
	if v == nil || v.Summary.DatabaseID != databaseID || v.Detail.Speakers[label] != name {
		return stored, err
	}
	if err != nil {
		if existed {
			v.Detail.Speakers[label] = previous
		} else {
			delete(v.Detail.Speakers, label)
		}
		l.debug("speaker rename rolled back", "id", databaseID, "label", label, "error", err)
		return "", err
	}
	v.Detail.Speakers[label] = stored
	return stored, nil
}

// Download returns the backend artifact of a transcript in "txt" or "json".
func (l *Library) Download(ctx context.Context, databaseID int, format string) ([]byte, error) {
	t, err := l.lookup(databaseID)
	if err != nil {
		return nil, err
	}
	return l.backend.DownloadTranscript(ctx, t.ID, format)
}

// Export renders a transcript with the local formatter and writes it to path. The open viewer is reused when it
// shows the transcript.
func (l *Library) Export(ctx context.Context, databaseID int, f formatter.Format, path string) (string, error) {
	if v, ok := l.Viewer(); ok && v.Summary.DatabaseID == databaseID {
		return formatter.WriteExport(v.Document(), f, path)
	}

	t, err := l.lookup(databaseID)
	if err != nil {
		return "", err
	}
	doc, err := tasks.NewExporter(l.backend, l.logger).Document(ctx, t)
	if err != nil {
		return "", err
	}
	return formatter.WriteExport(doc, f, path)
}

func (l *Library) debug(msg string, kv ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, kv...)
	}
}
