package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
)

var qualities = []models.Quality{models.QualityLow, models.QualityMedium, models.QualityHigh}

func newUploadInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "path/to/recording.mp3"
	in.CharLimit = 1024
	return in
}

// enterUpload opens the upload form with the quality preferred for the session.
func (m *Model) enterUpload() {
	m.clearStatus()
	m.view = UploadView
	m.uploadInput = newUploadInput()
	m.uploadInput.Focus()
	m.lastUpdate = tasks.ProgressUpdate{}

	mode := m.deps.Session.Mode()
	m.quality = tasks.DefaultQuality(mode)
	if mode == session.Authenticated && m.deps.Panel != nil && m.deps.Panel.Loaded() {
		if q := m.deps.Panel.Current().Quality; q != "" {
			m.quality = q
		}
	}
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if m.uploading && m.cancelUpload != nil {
			m.cancelUpload()
			return m, nil
		}
		m.view = Route(m.deps.Session.Current())
		return m, nil
	case m.uploading:
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.quality = nextQuality(m.quality)
		return m, nil
	case key.Matches(msg, m.keys.enter):
		path := strings.TrimSpace(m.uploadInput.Value())
		if path == "" {
			return m, nil
		}
		return m, m.startUpload(path, m.quality)
	}

	var cmd tea.Cmd
	m.uploadInput, cmd = m.uploadInput.Update(msg)
	return m, cmd
}

func nextQuality(q models.Quality) models.Quality {
	for i, candidate := range qualities {
		if candidate == q {
			return qualities[(i+1)%len(qualities)]
		}
	}
	return models.QualityHigh
}

// startUpload runs the upload in the background. Progress arrives on progressChan, the final result on
// uploadDone once the channel is closed.
func (m *Model) startUpload(path string, quality models.Quality) tea.Cmd {
	m.clearStatus()
	m.uploading = true
	m.uploadPath = path
	m.lastUpdate = tasks.ProgressUpdate{}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelUpload = cancel

	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan Msg, 1)
	m.progressChan = progressCh
	m.uploadDone = done

	uploader := m.deps.Uploader
	go func() {
		defer close(progressCh)
		res, err := uploader.Upload(ctx, path, quality, progressCh)
		done <- uploadCompleteMsg(res, err)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progressCh, done))
}

func waitForProgress(ch <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) handleUploadComplete(msg Msg) (tea.Model, tea.Cmd) {
	m.uploading = false
	if m.cancelUpload != nil {
		m.cancelUpload()
		m.cancelUpload = nil
	}

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.status = "Upload cancelled"
			return m, nil
		}
		m.fail(msg.err, services.TranscribeFailedMessage)
		return m, nil
	}

	res := msg.data.(*models.TranscribeResult)
	if m.deps.Session.Mode() != session.Authenticated {
		m.guestResult = res
		m.view = GuestDashboardView
		m.refreshGuest()
		m.status = "Transcription complete"
		return m, nil
	}

	filename := res.Filename
	if filename == "" {
		filename = filepath.Base(m.uploadPath)
	}
	m.deps.Library.Add(res.Summary(filename, time.Now()))
	m.view = DashboardView
	m.status = "Transcription complete"
	return m, m.syncLibrary()
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(title(m.palette, "Upload"))
	b.WriteString("\n")
	b.WriteString("Audio file (.m4a, .mp3, .wav)\n")
	b.WriteString(m.uploadInput.View())
	b.WriteString("\n\nQuality: " + m.palette.ok.Render(string(m.quality)) + "\n")
	if m.lastUpdate.Total > 0 || m.uploading {
		b.WriteString("\n")
		b.WriteString(m.progress.ViewAs(float64(m.lastUpdate.Percent()) / 100))
		b.WriteString("\n")
		label := m.lastUpdate.Message
		if label == "" {
			label = "Starting"
		}
		if m.uploading {
			label = m.spinner.View() + " " + label
		}
		b.WriteString(label + "\n")
	}
	if errors.Is(m.err, shared.ErrUpgradeRequired) {
		b.WriteString("\n" + m.palette.warn.Render("Create an account to upload files up to 100 MB.") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.helpView(m.keys.enter, key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "quality")),
		m.keys.back))
	return b.String()
}
