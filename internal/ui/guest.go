package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/chat"
	"github.com/desertthunder/scribe/internal/formatter"
	"github.com/desertthunder/scribe/internal/models"
)

// guestDocument renders the last guest transcription. Guests have no speaker names.
func (m *Model) guestDocument() *formatter.Document {
	return &formatter.Document{
		Summary: models.TranscriptSummary{Filename: m.uploadPath},
		Detail:  models.TranscriptDetail{Utterances: m.guestResult.Utterances},
		Text:    m.guestResult.Text,
	}
}

func (m *Model) guestText() string {
	if m.guestResult == nil {
		return ""
	}
	if m.guestResult.Text != "" {
		return m.guestResult.Text
	}
	data, err := formatter.ExportToText(m.guestDocument())
	if err != nil {
		return ""
	}
	return string(data)
}

func (m *Model) refreshGuest() {
	if m.guestResult == nil || m.view != GuestDashboardView {
		return
	}
	data, err := formatter.ExportToText(m.guestDocument())
	if err != nil {
		m.viewport.SetContent(err.Error())
		return
	}
	m.viewport.SetContent(string(data))
	m.viewport.GotoTop()
}

func (m *Model) handleGuestKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.upload):
		m.enterUpload()
		return m, nil
	case key.Matches(msg, m.keys.chat):
		if m.guestResult == nil {
			return m, nil
		}
		return m, m.openChat(chat.Target{Guest: true, TranscriptText: m.guestText()}, GuestDashboardView)
	case key.Matches(msg, m.keys.logout), key.Matches(msg, m.keys.back):
		m.deps.Session.ExitGuest()
		m.reset()
		m.view = Route(m.deps.Session.Current())
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) renderGuestDashboard() string {
	var b strings.Builder
	b.WriteString(title(m.palette, "Scribe (guest)"))
	b.WriteString("\n")
	if m.guestResult == nil {
		b.WriteString("Upload a recording of up to 5 MB to get a transcript.\n")
		b.WriteString(m.palette.help.Render("Guest transcripts are not saved. Log in to keep them."))
		b.WriteString("\n\n")
		b.WriteString(m.helpView(m.keys.upload, m.keys.logout, m.keys.quit))
		return b.String()
	}

	b.WriteString(m.palette.box.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.helpView(m.keys.chat, m.keys.upload,
		key.NewBinding(key.WithKeys("L"), key.WithHelp("L/esc", "exit guest mode")), m.keys.quit))
	return b.String()
}
