package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	next     key.Binding
	yes      key.Binding
	no       key.Binding
	guest    key.Binding
	upload   key.Binding
	settings key.Binding
	refresh  key.Binding
	logout   key.Binding
	chat     key.Binding
	rename   key.Binding
	delete   key.Binding
	speaker  key.Binding
	export   key.Binding
	clear    key.Binding
	save     key.Binding
	reset    key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		guest:    key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "continue as guest")),
		upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		chat:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chat")),
		rename:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename")),
		delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		speaker:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "label speaker")),
		export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export markdown")),
		clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear chat")),
		save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		reset:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.upload, k.settings, k.refresh, k.logout},
		{k.chat, k.rename, k.delete, k.speaker, k.export},
		{k.quit},
	}
}
