package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/shared"
)

const loginFailedMessage = "Login failed"

var errMissingCredentials = fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)

func newLoginInputs() []textinput.Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 128
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return []textinput.Model{username, password}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.guest):
		m.clearStatus()
		if err := m.deps.Session.EnterGuest(); err != nil {
			m.fail(err, "Could not start a guest session")
			return m, nil
		}
		m.view = GuestDashboardView
		return m, nil

	case msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		m.loginInputs[m.loginFocus].Blur()
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		return m, m.loginInputs[m.loginFocus].Focus()

	case key.Matches(msg, m.keys.enter):
		if m.loginFocus == 0 {
			m.loginInputs[0].Blur()
			m.loginFocus = 1
			return m, m.loginInputs[1].Focus()
		}
		return m, m.submitLogin()
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

func (m *Model) submitLogin() tea.Cmd {
	username := strings.TrimSpace(m.loginInputs[0].Value())
	password := m.loginInputs[1].Value()
	if username == "" || password == "" {
		m.status = ""
		m.err = errMissingCredentials
		return nil
	}

	m.clearStatus()
	m.busy = true
	client, ctx := m.deps.Client, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		_, err := client.Login(ctx, username, password)
		return loggedInMsg(err)
	})
}

func (m *Model) handleLoggedIn(msg Msg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.fail(msg.err, loginFailedMessage)
		m.loginInputs[1].Reset()
		return m, nil
	}

	m.loginInputs = newLoginInputs()
	m.loginFocus = 0
	m.view = Route(m.deps.Session.Current())
	m.status = "Logged in"
	return m, tea.Batch(m.fetchTranscripts(), m.loadSettings())
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(title(m.palette, "Scribe"))
	b.WriteString("\n")
	b.WriteString("Log in to transcribe and chat with your recordings.\n\n")
	for _, in := range m.loginInputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " Logging in...")
	}
	b.WriteString("\n")
	b.WriteString(m.helpView(m.keys.enter, m.keys.next, m.keys.guest))
	return b.String()
}
