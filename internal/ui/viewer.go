package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/chat"
	"github.com/desertthunder/scribe/internal/formatter"
)

func (m *Model) handleViewerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		return m.handlePromptKeys(msg)
	}
	if m.viewer == nil {
		m.view = DashboardView
		return m, nil
	}
	id := m.viewer.Summary.DatabaseID

	switch {
	case key.Matches(msg, m.keys.back):
		m.deps.Library.Close()
		m.viewer = nil
		m.view = DashboardView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.rename):
		m.prompt = newPrompt(promptRename, id, "New name:", m.viewer.Summary.Filename)
		return m, nil
	case key.Matches(msg, m.keys.speaker):
		m.prompt = newPrompt(promptSpeaker, id, "Speaker (LABEL=Name):", m.firstLabel()+"=")
		return m, nil
	case key.Matches(msg, m.keys.delete):
		m.prompt = newPrompt(promptDelete, id,
			fmt.Sprintf("Delete %q? This cannot be undone. (y/n)", m.viewer.Summary.Filename), "")
		return m, nil
	case key.Matches(msg, m.keys.export):
		m.clearStatus()
		return m, m.exportTranscript(id, formatter.FormatMarkdown)
	case msg.String() == "y":
		m.copyTranscript()
		return m, nil
	case key.Matches(msg, m.keys.chat):
		target := chat.Target{DatabaseID: id, TranscriptText: m.viewer.Text}
		return m, m.openChat(target, ViewerView)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) firstLabel() string {
	if labels := m.viewer.Detail.Labels(); len(labels) > 0 {
		return labels[0]
	}
	return ""
}

func (m *Model) copyTranscript() {
	data, err := formatter.ExportToText(m.viewer.Document())
	if err == nil {
		err = clipboard.WriteAll(string(data))
	}
	if err != nil {
		m.fail(err, "Could not copy to clipboard")
		return
	}
	m.status = "Copied to clipboard"
}

// refreshViewer re-renders the open transcript into the viewport.
func (m *Model) refreshViewer() {
	if m.viewer == nil {
		return
	}
	data, err := formatter.ExportToText(m.viewer.Document())
	if err != nil {
		m.viewport.SetContent(err.Error())
		return
	}
	m.viewport.SetContent(string(data))
}

func (m *Model) renderViewer() string {
	if m.viewer == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(title(m.palette, "%s", m.viewer.Summary.Filename))
	b.WriteString("\n")
	b.WriteString(m.palette.box.Render(m.viewport.View()))
	b.WriteString(m.renderPrompt())
	b.WriteString("\n")
	b.WriteString(m.helpView(m.keys.back, m.keys.chat, m.keys.rename, m.keys.speaker, m.keys.delete,
		m.keys.export, key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy"))))
	return b.String()
}
