package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	login    key.Binding
	generate key.Binding
	next     key.Binding
	prev     key.Binding
	activate key.Binding
	dismiss  key.Binding
	logout   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		login:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "login")),
		generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
		next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next genre")),
		prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous genre")),
		activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle artist")),
		dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "hide")),
		logout:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "logout")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.login, k.generate, k.logout},
		{k.next, k.prev, k.activate, k.dismiss},
		{k.quit},
	}
}
