package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/chat"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/services"
)

func newChatInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "Ask about this transcript..."
	in.CharLimit = 2000
	return in
}

// openChat starts a chat about target and returns to back on esc.
func (m *Model) openChat(target chat.Target, back ViewState) tea.Cmd {
	var settings chat.SettingsSource
	if !target.Guest {
		settings = m.deps.Client
	}
	m.chat = chat.New(m.deps.Client, settings, target, m.deps.Logger)
	m.chatBack = back
	m.chatInput = newChatInput()
	m.view = ChatView
	m.clearStatus()
	m.busy = true
	m.refreshChat()

	controller, ctx := m.chat, m.ctx
	return tea.Batch(m.chatInput.Focus(), m.spinner.Tick, func() tea.Msg {
		return chatUpdatedMsg(controller.Open(ctx))
	})
}

func (m *Model) handleChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.chat == nil {
		m.view = m.chatBack
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.chat = nil
		m.busy = false
		m.view = m.chatBack
		m.refreshViewer()
		m.refreshGuest()
		return m, nil
	case key.Matches(msg, m.keys.clear):
		return m, m.clearChat()
	case key.Matches(msg, m.keys.enter):
		return m, m.sendChat()
	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *Model) sendChat() tea.Cmd {
	text := strings.TrimSpace(m.chatInput.Value())
	if text == "" {
		return nil
	}
	if m.chat.State() == chat.AwaitingResponse {
		m.err = chat.ErrBusy
		return nil
	}

	m.clearStatus()
	m.chatInput.Reset()
	m.busy = true
	controller, ctx := m.chat, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		_, err := controller.Send(ctx, text)
		return chatUpdatedMsg(err)
	})
}

func (m *Model) clearChat() tea.Cmd {
	if m.chat.State() == chat.AwaitingResponse {
		m.err = chat.ErrBusy
		return nil
	}
	m.clearStatus()
	m.busy = true
	controller, ctx := m.chat, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return chatUpdatedMsg(controller.Clear(ctx))
	})
}

func (m *Model) handleChatUpdated(msg Msg) (tea.Model, tea.Cmd) {
	m.busy = false
	if m.chat == nil {
		return m, nil
	}
	if msg.err != nil {
		fallback := services.SendFailedMessage
		if m.chat.Target().Guest {
			fallback = services.GuestChatFailedMessage
		}
		if errors.Is(msg.err, chat.ErrBusy) {
			m.err = msg.err
		} else {
			m.fail(msg.err, fallback)
		}
	}
	m.refreshChat()
	return m, nil
}

// refreshChat re-renders the message log. Pending messages stay visible until the reply settles.
func (m *Model) refreshChat() {
	if m.chat == nil || m.view != ChatView {
		return
	}
	var b strings.Builder
	for _, msg := range m.chat.Messages() {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(m.palette.user.Render("You"))
		default:
			b.WriteString(m.palette.assistant.Render("AI"))
		}
		if msg.Pending {
			b.WriteString(m.palette.help.Render(" (sending)"))
		}
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderChat() string {
	var b strings.Builder
	name := "Chat"
	if m.viewer != nil {
		name = "Chat: " + m.viewer.Summary.Filename
	}
	b.WriteString(title(m.palette, "%s", name))
	b.WriteString("\n")
	b.WriteString(m.palette.box.Render(m.viewport.View()))
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " AI is thinking...\n")
	}
	b.WriteString(m.chatInput.View())
	b.WriteString("\n")
	b.WriteString(m.helpView(m.keys.enter, m.keys.clear, m.keys.back))
	return b.String()
}
