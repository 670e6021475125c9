package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"snakeql/internal/env"
)

// FrameMsg carries one training tick to the monitor.
type FrameMsg struct {
	Snap    env.Snapshot
	Episode int
	Record  int
	Mean    float64
}

// DoneMsg tells the monitor that training has ended.
type DoneMsg struct {
	Err error
}

// MonitorModel draws a training run. Frames are pushed from the training
// goroutine with Program.Send; quitting calls stop.
type MonitorModel struct {
	frame    FrameMsg
	hasFrame bool
	stop     func()
	keys     KeyMap
	help     help.Model
	done     bool
	err      error
}

// NewMonitorModel creates the model. stop is called once when the user quits.
func NewMonitorModel(stop func()) MonitorModel {
	keys := watchKeyMap()
	keys.Pause.SetEnabled(false)
	return MonitorModel{stop: stop, keys: keys, help: help.New()}
}

// Init does nothing; frames drive the screen.
func (m MonitorModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if m.stop != nil {
				m.stop()
				m.stop = nil
			}
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case FrameMsg:
		m.frame = msg
		m.hasFrame = true
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// Frame returns the last frame received.
func (m MonitorModel) Frame() (FrameMsg, bool) { return m.frame, m.hasFrame }

// Err returns the error training ended with.
func (m MonitorModel) Err() error { return m.err }

// View renders the latest frame.
func (m MonitorModel) View() string {
	if m.done {
		return ""
	}
	if !m.hasFrame {
		return "waiting for the first tick...\n"
	}

	f := m.frame
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("TRAINING  episode %d", f.Episode)))
	b.WriteString("\n")
	b.WriteString(RenderBoard(f.Snap))
	b.WriteString("\n")
	b.WriteString(RenderStatus(f.Snap, f.Record))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  Mean: %.2f", f.Mean)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}
