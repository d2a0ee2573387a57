package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/formatter"
	"github.com/desertthunder/scribe/internal/library"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
)

func newTranscriptList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Transcripts"
	l.SetShowHelp(false)
	return l
}

type promptKind int

const (
	promptRename promptKind = iota
	promptSpeaker
	promptDelete
)

// promptState is a one-line question shown over the dashboard or viewer.
type promptState struct {
	kind       promptKind
	databaseID int
	question   string
	input      textinput.Model
}

func newPrompt(kind promptKind, databaseID int, question, value string) *promptState {
	in := textinput.New()
	in.CharLimit = 256
	in.SetValue(value)
	in.Focus()
	return &promptState{kind: kind, databaseID: databaseID, question: question, input: in}
}

func (m *Model) selectedTranscript() (transcriptItem, bool) {
	item, ok := m.transcripts.SelectedItem().(transcriptItem)
	return item, ok
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		return m.handlePromptKeys(msg)
	}
	if m.transcripts.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.transcripts, cmd = m.transcripts.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.selectedTranscript(); ok {
			return m, m.openTranscript(item.transcript.DatabaseID)
		}
		return m, nil
	case key.Matches(msg, m.keys.upload):
		m.enterUpload()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.settings):
		m.enterSettings()
		return m, m.loadSettings()
	case key.Matches(msg, m.keys.refresh):
		m.clearStatus()
		return m, m.fetchTranscripts()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.rename):
		if item, ok := m.selectedTranscript(); ok {
			m.prompt = newPrompt(promptRename, item.transcript.DatabaseID, "New name:", item.transcript.Filename)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if item, ok := m.selectedTranscript(); ok {
			m.prompt = newPrompt(promptDelete, item.transcript.DatabaseID,
				fmt.Sprintf("Delete %q? This cannot be undone. (y/n)", item.transcript.Filename), "")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.transcripts, cmd = m.transcripts.Update(msg)
	return m, cmd
}

// handlePromptKeys drives the active prompt. Delete prompts only answer to y and n.
func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	if p.kind == promptDelete {
		switch {
		case key.Matches(msg, m.keys.yes):
			m.prompt = nil
			return m, m.deleteTranscript(p.databaseID)
		case key.Matches(msg, m.keys.no):
			m.prompt = nil
			m.status = shared.ErrCancelled.Error()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = nil
		return m, nil
	case tea.KeyEnter:
		m.prompt = nil
		value := p.input.Value()
		if p.kind == promptRename {
			return m, m.renameTranscript(p.databaseID, value)
		}
		label, name, ok := strings.Cut(value, "=")
		if !ok {
			m.err = fmt.Errorf("%w: expected LABEL=Name", shared.ErrInvalidInput)
			return m, nil
		}
		return m, m.renameSpeaker(strings.TrimSpace(label), name)
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return m, cmd
}

func (m *Model) openTranscript(databaseID int) tea.Cmd {
	m.clearStatus()
	m.busy = true
	lib, ctx := m.deps.Library, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		v, err := lib.Open(ctx, databaseID)
		return transcriptOpenedMsg(v, err)
	})
}

// renameTranscript shows the new name right away. [MsgTranscriptChanged] resyncs with the library, which has
// rolled back if the backend refused.
func (m *Model) renameTranscript(databaseID int, filename string) tea.Cmd {
	m.clearStatus()
	if strings.TrimSpace(filename) != "" {
		m.showFilename(databaseID, strings.TrimSpace(filename))
	}
	lib, ctx := m.deps.Library, m.ctx
	return func() tea.Msg {
		if err := lib.Rename(ctx, databaseID, filename); err != nil {
			return transcriptChangedMsg("", err)
		}
		return transcriptChangedMsg("Renamed", nil)
	}
}

func (m *Model) renameSpeaker(label, name string) tea.Cmd {
	m.clearStatus()
	if m.viewer != nil && strings.TrimSpace(name) != "" {
		if m.viewer.Detail.Speakers == nil {
			m.viewer.Detail.Speakers = models.SpeakerMapping{}
		}
		m.viewer.Detail.Speakers[label] = strings.TrimSpace(name)
		m.refreshViewer()
	}
	lib, ctx := m.deps.Library, m.ctx
	return func() tea.Msg {
		stored, err := lib.RenameSpeaker(ctx, label, name)
		if err != nil {
			return transcriptChangedMsg("", err)
		}
		return transcriptChangedMsg(fmt.Sprintf("Speaker %s is now %s", label, stored), nil)
	}
}

func (m *Model) deleteTranscript(databaseID int) tea.Cmd {
	m.clearStatus()
	lib, ctx := m.deps.Library, m.ctx
	confirmed := library.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	return func() tea.Msg {
		return transcriptDeletedMsg(databaseID, lib.Delete(ctx, databaseID, confirmed))
	}
}

func (m *Model) exportTranscript(databaseID int, f formatter.Format) tea.Cmd {
	lib, ctx := m.deps.Library, m.ctx
	return func() tea.Msg {
		return exportedMsg(lib.Export(ctx, databaseID, f, ""))
	}
}

func (m *Model) logout() tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		// The session end hook delivers the transition back to the login view.
		_ = client.Logout()
		return nil
	}
}

func (m *Model) showFilename(databaseID int, filename string) {
	items := m.transcripts.Items()
	for i, it := range items {
		if ti, ok := it.(transcriptItem); ok && ti.transcript.DatabaseID == databaseID {
			ti.transcript.Filename = filename
			m.transcripts.SetItem(i, ti)
		}
	}
	if m.viewer != nil && m.viewer.Summary.DatabaseID == databaseID {
		m.viewer.Summary.Filename = filename
	}
}

// syncLibrary copies the library's list and viewer into the model.
func (m *Model) syncLibrary() tea.Cmd {
	cmd := m.transcripts.SetItems(transcriptItems(m.deps.Library.Items()))
	if v, ok := m.deps.Library.Viewer(); ok {
		m.viewer = v
		m.refreshViewer()
	} else if m.viewer != nil {
		m.viewer = nil
		if m.view == ViewerView {
			m.view = DashboardView
		}
	}
	return cmd
}

func (m *Model) handleLibraryMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTranscriptOpened:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err, "Failed to load transcript")
			return m, nil
		}
		m.viewer = msg.data.(*library.Viewer)
		m.view = ViewerView
		m.viewport.GotoTop()
		m.refreshViewer()
		return m, nil

	case MsgTranscriptChanged:
		cmd := m.syncLibrary()
		if msg.err != nil {
			m.fail(msg.err, "Update failed")
			return m, cmd
		}
		m.status = msg.data.(string)
		return m, cmd

	case MsgTranscriptDeleted:
		if msg.err != nil {
			if errors.Is(msg.err, shared.ErrCancelled) {
				m.status = msg.err.Error()
				return m, nil
			}
			m.fail(msg.err, "Failed to delete transcript")
			return m, nil
		}
		cmd := m.syncLibrary()
		m.status = "Transcript deleted"
		return m, cmd

	case MsgExported:
		if msg.err != nil {
			m.fail(msg.err, "Export failed")
			return m, nil
		}
		m.status = "Exported to " + msg.data.(string)
	}
	return m, nil
}

func (m *Model) renderPrompt() string {
	if m.prompt == nil {
		return ""
	}
	if m.prompt.kind == promptDelete {
		return "\n" + m.palette.warn.Render(m.prompt.question)
	}
	return "\n" + m.prompt.question + " " + m.prompt.input.View()
}

func (m *Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(m.transcripts.View())
	b.WriteString(m.renderPrompt())
	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " Loading...")
	}
	b.WriteString("\n")
	b.WriteString(m.helpView(m.keys.enter, m.keys.upload, m.keys.rename, m.keys.delete, m.keys.settings,
		m.keys.refresh, m.keys.logout, m.keys.quit))
	return b.String()
}
