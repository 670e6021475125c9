package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"snakeql/internal/env"
)

// ReplayModel plays a recorded episode back one action per tick.
type ReplayModel struct {
	replay   *env.Replay
	game     *env.Game
	step     int
	keys     KeyMap
	help     help.Model
	tps      int
	paused   bool
	quitting bool
}

// NewReplayModel creates the model at the start of the episode.
func NewReplayModel(r *env.Replay, tps int) ReplayModel {
	if tps <= 0 {
		tps = DefaultAITPS
	}
	keys := watchKeyMap()
	keys.Restart.SetEnabled(true)
	return ReplayModel{replay: r, game: r.Playback(), keys: keys, help: help.New(), tps: tps}
}

// Init starts the tick loop.
func (m ReplayModel) Init() tea.Cmd {
	return tickCmd(m.tps)
}

// Update handles messages.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Restart):
			m.game = m.replay.Playback()
			m.step = 0
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case TickMsg:
		if !m.paused && !m.Finished() {
			m.game.Step(env.ActionControl(m.replay.Actions[m.step]))
			m.step++
		}
		return m, tickCmd(m.tps)
	}
	return m, nil
}

// Finished reports whether every recorded action was played.
func (m ReplayModel) Finished() bool {
	return m.step >= len(m.replay.Actions) || m.game.Done
}

// Game returns the game being replayed.
func (m ReplayModel) Game() *env.Game { return m.game }

// View renders the board and playback position.
func (m ReplayModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.game.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("REPLAY  episode %d  seed %d  step %d/%d",
		m.replay.Episode, m.replay.Seed, m.step, len(m.replay.Actions))))
	b.WriteString("\n")
	b.WriteString(RenderBoard(snap))
	b.WriteString("\n")
	b.WriteString(RenderStatus(snap, m.replay.FinalStats.Score))
	b.WriteString("\n")
	switch {
	case m.Finished():
		b.WriteString(bannerStyle.Render(deathBanner(snap.Death) + "  (r to replay)"))
	case m.paused:
		b.WriteString(bannerStyle.Render("PAUSED"))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// RunReplay plays a replay file and blocks until it is quit.
func RunReplay(r *env.Replay, tps int) error {
	p := tea.NewProgram(NewReplayModel(r, tps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
