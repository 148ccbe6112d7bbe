// Package ui  Shortcuts for keyboard actions
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the session screen.
type KeyMap struct {
	Start   key.Binding
	Pause   key.Binding
	Next    key.Binding
	Stop    key.Binding
	Order   key.Binding
	Topic   key.Binding
	Open    key.Binding
	LogUp   key.Binding
	LogDown key.Binding
	Help    key.Binding
	Quit    key.Binding

	// active while a prompt is open
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s", "esc"),
			key.WithHelp("s", "stop"),
		),
		Order: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "name/random"),
		),
		Topic: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "edit topic"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open folder"),
		),
		LogUp: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "older log"),
		),
		LogDown: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "newer log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Start, k.Pause, k.Next, k.Stop, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Next, k.Stop},
		{k.Open, k.Order, k.Topic},
		{k.LogUp, k.LogDown},
		{k.Help, k.Quit},
	}
}
