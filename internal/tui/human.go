package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"snakeql/internal/env"
	"snakeql/internal/storage"
)

// DefaultHumanTPS is the tick rate of the keyboard-driven game.
const DefaultHumanTPS = 15

// ScoreSaver persists the final score of a game.
type ScoreSaver interface {
	SaveScore(variant string, score, episode int) (int64, error)
}

// HumanModel is the Bubble Tea model for the keyboard-driven game.
type HumanModel struct {
	game  *env.Game
	store ScoreSaver
	keys  KeyMap
	help  help.Model
	tps   int

	seed  int64
	games int // finished games restarted so far

	pending    env.Direction
	hasPending bool
	record     int
	paused     bool
	quitting   bool
	scoreSaved bool // whether the score of the current game over was saved
}

// NewHumanModel creates the model. store may be nil; record is the best
// score so far. game is expected to be seeded with seed; the game started
// by the n-th restart is played with seed+n.
func NewHumanModel(game *env.Game, store ScoreSaver, seed int64, tps, record int) HumanModel {
	if tps <= 0 {
		tps = DefaultHumanTPS
	}
	return HumanModel{
		game:   game,
		store:  store,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		tps:    tps,
		seed:   seed,
		record: record,
	}
}

// Init starts the tick loop.
func (m HumanModel) Init() tea.Cmd {
	return tickCmd(m.tps)
}

// Update handles messages.
func (m HumanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case TickMsg:
		return m.handleTick()
	}
	return m, nil
}

func (m HumanModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		if !m.game.Done {
			m.paused = !m.paused
		}
		return m, nil
	case key.Matches(msg, m.keys.Restart):
		if m.game.Done {
			m.games++
			m.game.Reseed(m.seed + int64(m.games))
			m.scoreSaved = false
			m.hasPending = false
		}
		return m, nil
	}

	// Only the last key pressed before a tick counts.
	if dir, ok := m.keys.Direction(msg); ok && !m.paused {
		m.pending = dir
		m.hasPending = true
	}
	return m, nil
}

func (m HumanModel) handleTick() (tea.Model, tea.Cmd) {
	if m.paused || m.game.Done {
		return m, tickCmd(m.tps)
	}

	var control env.Control
	if m.hasPending {
		control = env.KeyControl(m.pending)
		m.hasPending = false
	}
	m.game.Step(control)

	if m.game.Done && !m.scoreSaved {
		if m.store != nil {
			//nolint:errcheck // best-effort save, the game continues regardless
			m.store.SaveScore(storage.VariantHuman, m.game.Score, 0)
		}
		m.scoreSaved = true
		if m.game.Score > m.record {
			m.record = m.game.Score
		}
	}
	return m, tickCmd(m.tps)
}

// Game returns the underlying game.
func (m HumanModel) Game() *env.Game { return m.game }

// Paused reports whether the game is paused.
func (m HumanModel) Paused() bool { return m.paused }

// Record returns the best score seen, including the current session.
func (m HumanModel) Record() int { return m.record }

// View renders the board, score line and help.
func (m HumanModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.game.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("S N A K E"))
	b.WriteString("\n")
	b.WriteString(RenderBoard(snap))
	b.WriteString("\n")
	b.WriteString(RenderStatus(snap, m.record))
	b.WriteString("\n")

	switch {
	case snap.Done:
		b.WriteString(bannerStyle.Render(deathBanner(snap.Death) + "  (r to restart)"))
	case m.paused:
		b.WriteString(bannerStyle.Render("PAUSED"))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// RunHuman starts the keyboard-driven game and blocks until it is quit.
func RunHuman(game *env.Game, store ScoreSaver, seed int64, tps, record int) error {
	p := tea.NewProgram(NewHumanModel(game, store, seed, tps, record), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
