package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/models"
)

const (
	fieldQuality = iota
	fieldTheme
	fieldSystemPrompt
	fieldDefaultPrompt
)

var settingsLabels = []string{"Quality (low, medium, high)", "Theme (light, dark, system)", "System prompt template", "Default chat prompt"}

func newSettingsInputs(s models.UserSettings) []textinput.Model {
	inputs := make([]textinput.Model, len(settingsLabels))
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 4000
	}
	inputs[fieldQuality].SetValue(string(s.Quality))
	inputs[fieldTheme].SetValue(s.Theme)
	if s.SystemPromptTemplate != nil {
		inputs[fieldSystemPrompt].SetValue(*s.SystemPromptTemplate)
	}
	if s.DefaultUserPrompt != nil {
		inputs[fieldDefaultPrompt].SetValue(*s.DefaultUserPrompt)
	}
	inputs[fieldQuality].Placeholder = "high"
	inputs[fieldTheme].Placeholder = "system"
	inputs[fieldSystemPrompt].Placeholder = "Use {transcript} for the transcript text"
	inputs[fieldDefaultPrompt].Placeholder = "Summarize this recording"
	inputs[0].Focus()
	return inputs
}

func (m *Model) enterSettings() {
	m.clearStatus()
	m.view = SettingsView
	m.settingsFocus = 0
	m.settingsInputs = newSettingsInputs(m.deps.Panel.Current())
}

func (m *Model) loadSettings() tea.Cmd {
	panel, ctx := m.deps.Panel, m.ctx
	if panel == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := panel.Load(ctx)
		return settingsLoadedMsg(s, err)
	}
}

// formSettings reads the form on top of the current settings so fields without an input survive a save.
func (m *Model) formSettings() models.UserSettings {
	s := m.deps.Panel.Current()
	s.Quality = models.Quality(m.settingsInputs[fieldQuality].Value())
	s.Theme = m.settingsInputs[fieldTheme].Value()
	system := m.settingsInputs[fieldSystemPrompt].Value()
	prompt := m.settingsInputs[fieldDefaultPrompt].Value()
	s.SystemPromptTemplate = &system
	s.DefaultUserPrompt = &prompt
	return s
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		return m, nil
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyDown, msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp:
		step := 1
		if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
			step = len(m.settingsInputs) - 1
		}
		m.settingsInputs[m.settingsFocus].Blur()
		m.settingsFocus = (m.settingsFocus + step) % len(m.settingsInputs)
		return m, m.settingsInputs[m.settingsFocus].Focus()
	case key.Matches(msg, m.keys.save):
		return m, m.saveSettings(false)
	case key.Matches(msg, m.keys.reset):
		return m, m.saveSettings(true)
	}

	var cmd tea.Cmd
	m.settingsInputs[m.settingsFocus], cmd = m.settingsInputs[m.settingsFocus].Update(msg)
	return m, cmd
}

func (m *Model) saveSettings(reset bool) tea.Cmd {
	m.clearStatus()
	m.busy = true
	panel, ctx := m.deps.Panel, m.ctx
	form := m.formSettings()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		if reset {
			return settingsSavedMsg(panel.Reset(ctx))
		}
		return settingsSavedMsg(panel.Save(ctx, form))
	})
}

func (m *Model) handleSettingsMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.busy = false
	s := msg.data.(models.UserSettings)

	if msg.kind == MsgSettingsLoaded {
		if msg.err != nil {
			if m.view == SettingsView {
				m.fail(msg.err, "Failed to load settings")
			} else if m.deps.Logger != nil {
				m.deps.Logger.Warn("failed to load settings", "error", msg.err)
			}
			return m, nil
		}
		if m.view == SettingsView {
			m.settingsInputs = newSettingsInputs(s)
			m.settingsFocus = 0
		}
		return m, nil
	}

	if msg.err != nil {
		// The form keeps what the user typed. Current settings were not touched.
		m.fail(msg.err, "Failed to save settings")
		return m, nil
	}
	m.settingsInputs = newSettingsInputs(s)
	m.settingsFocus = 0
	m.status = "Settings saved"
	return m, nil
}

func (m *Model) renderSettings() string {
	var b strings.Builder
	b.WriteString(title(m.palette, "Settings"))
	b.WriteString("\n")
	for i, in := range m.settingsInputs {
		label := settingsLabels[i]
		if i == m.settingsFocus {
			label = m.palette.user.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	if m.busy {
		b.WriteString(m.spinner.View() + " Saving...\n")
	}
	b.WriteString(m.helpView(m.keys.next, m.keys.save, m.keys.reset, m.keys.back))
	return b.String()
}
