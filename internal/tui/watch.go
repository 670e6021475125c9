package tui

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"snakeql/internal/env"
	"snakeql/internal/nn"
)

// DefaultAITPS is the tick rate used when a network plays.
const DefaultAITPS = 50

// WatchModel lets a trained network play greedily, one game after another.
type WatchModel struct {
	game *env.Game
	net  *nn.QNet
	keys KeyMap
	help help.Model
	tps  int

	seed     int64
	games    int
	total    int
	record   int
	paused   bool
	quitting bool
}

// NewWatchModel creates the model. Game n is played with seed+n.
func NewWatchModel(net *nn.QNet, opts env.Options, seed int64, tps int) WatchModel {
	if tps <= 0 {
		tps = DefaultAITPS
	}
	g := env.NewGame(opts, env.RelativeSteering{}, rand.New(rand.NewSource(seed)))
	return WatchModel{
		game: g,
		net:  net,
		keys: watchKeyMap(),
		help: help.New(),
		tps:  tps,
		seed: seed,
	}
}

// Init starts the tick loop.
func (m WatchModel) Init() tea.Cmd {
	return tickCmd(m.tps)
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case TickMsg:
		if !m.paused {
			m.step()
		}
		return m, tickCmd(m.tps)
	}
	return m, nil
}

func (m *WatchModel) step() {
	if m.game.Done {
		m.game.Reseed(m.seed + int64(m.games))
		return
	}
	obs := env.Features(m.game)
	m.game.Step(env.ActionControl(env.Action(m.net.Best(obs.Floats()))))
	if m.game.Done {
		m.games++
		m.total += m.game.Score
		if m.game.Score > m.record {
			m.record = m.game.Score
		}
	}
}

// Games returns the number of finished games.
func (m WatchModel) Games() int { return m.games }

// Record returns the best score seen.
func (m WatchModel) Record() int { return m.record }

// View renders the board and running statistics.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.game.Snapshot()
	mean := 0.0
	if m.games > 0 {
		mean = float64(m.total) / float64(m.games)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("S N A K E  ai  game %d", m.games+1)))
	b.WriteString("\n")
	b.WriteString(RenderBoard(snap))
	b.WriteString("\n")
	b.WriteString(RenderStatus(snap, m.record))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  Mean: %.2f", mean)))
	b.WriteString("\n")
	if m.paused {
		b.WriteString(bannerStyle.Render("PAUSED"))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// RunWatch starts the watch program and blocks until it is quit.
func RunWatch(net *nn.QNet, opts env.Options, seed int64, tps int) error {
	p := tea.NewProgram(NewWatchModel(net, opts, seed, tps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
