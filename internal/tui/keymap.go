package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"snakeql/internal/env"
)

// KeyMap defines the key bindings of the game screens.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Pause   key.Binding
	Restart key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Pause, k.Restart, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Pause, k.Restart, k.Quit},
	}
}

// DefaultKeyMap returns the default bindings: arrows or WASD to steer.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "right"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// watchKeyMap drops the steering bindings.
func watchKeyMap() KeyMap {
	k := DefaultKeyMap()
	k.Up.SetEnabled(false)
	k.Down.SetEnabled(false)
	k.Left.SetEnabled(false)
	k.Right.SetEnabled(false)
	k.Restart.SetEnabled(false)
	return k
}

// Direction maps a steering key to a heading.
func (k KeyMap) Direction(msg tea.KeyMsg) (env.Direction, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return env.DirUp, true
	case key.Matches(msg, k.Down):
		return env.DirDown, true
	case key.Matches(msg, k.Left):
		return env.DirLeft, true
	case key.Matches(msg, k.Right):
		return env.DirRight, true
	}
	return 0, false
}
