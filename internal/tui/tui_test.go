package tui

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"snakeql/internal/env"
	"snakeql/internal/nn"
	"snakeql/internal/storage"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type fakeStore struct {
	variants []string
	scores   []int
}

func (f *fakeStore) SaveScore(variant string, score, episode int) (int64, error) {
	f.variants = append(f.variants, variant)
	f.scores = append(f.scores, score)
	return int64(len(f.scores)), nil
}

func TestKeyMapDirection(t *testing.T) {
	keys := DefaultKeyMap()
	tests := []struct {
		msg  tea.KeyMsg
		want env.Direction
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, env.DirUp},
		{tea.KeyMsg{Type: tea.KeyDown}, env.DirDown},
		{tea.KeyMsg{Type: tea.KeyLeft}, env.DirLeft},
		{tea.KeyMsg{Type: tea.KeyRight}, env.DirRight},
		{runeKey("w"), env.DirUp},
		{runeKey("s"), env.DirDown},
		{runeKey("a"), env.DirLeft},
		{runeKey("d"), env.DirRight},
	}
	for _, tt := range tests {
		got, ok := keys.Direction(tt.msg)
		if !ok || got != tt.want {
			t.Errorf("Direction(%q) = %v, %v; want %v", tt.msg.String(), got, ok, tt.want)
		}
	}

	if _, ok := keys.Direction(runeKey("x")); ok {
		t.Error("Unbound key should not steer")
	}
	if _, ok := watchKeyMap().Direction(tea.KeyMsg{Type: tea.KeyUp}); ok {
		t.Error("Watch key map should not steer")
	}
}

func TestRenderBoard(t *testing.T) {
	board := env.Board{Width: 120, Height: 80, Block: 20}
	snap := env.Snapshot{
		Board: board,
		Snake: []env.Point{{X: 40, Y: 20}, {X: 20, Y: 20}, {X: 0, Y: 20}},
		Food:  env.Point{X: 100, Y: 60},
	}

	out := RenderBoard(snap)
	lines := strings.Split(out, "\n")

	wantW, wantH := BoardSize(board)
	if len(lines) != wantH {
		t.Fatalf("Expected %d lines, got %d:\n%s", wantH, len(lines), out)
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != wantW {
			t.Errorf("Line %d is %d wide, want %d", i, w, wantW)
		}
	}

	if n := strings.Count(out, headCell); n != 1 {
		t.Errorf("Expected one head, got %d", n)
	}
	if n := strings.Count(out, bodyCell); n != 2 {
		t.Errorf("Expected two body cells, got %d", n)
	}
	if n := strings.Count(out, foodCell); n != 1 {
		t.Errorf("Expected one food, got %d", n)
	}
	if !strings.Contains(lines[2], headCell) {
		t.Errorf("Head should be on the second grid row:\n%s", out)
	}
}

func TestRenderBoardSkipsOffBoardHead(t *testing.T) {
	board := env.Board{Width: 60, Height: 60, Block: 20}
	snap := env.Snapshot{
		Board: board,
		Snake: []env.Point{{X: 60, Y: 0}, {X: 40, Y: 0}},
		Food:  env.NoFood,
	}
	out := RenderBoard(snap)
	if strings.Contains(out, headCell) || strings.Contains(out, foodCell) {
		t.Errorf("Off-board head and missing food should not be drawn:\n%s", out)
	}
}

func newHuman(t *testing.T, store ScoreSaver) HumanModel {
	t.Helper()
	board := env.Board{Width: 100, Height: 100, Block: 20}
	game := env.NewHumanGame(board, 3, false, rand.New(rand.NewSource(5)))
	return NewHumanModel(game, store, 5, 15, 0)
}

func send(m tea.Model, msgs ...tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func TestHumanKeySteersOnNextTick(t *testing.T) {
	m := newHuman(t, nil)
	start := m.Game().Head()

	next, _ := send(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Game().Head() != start {
		t.Fatal("Key press alone must not move the snake")
	}

	next, _ = send(next, TickMsg{})
	got := next.(HumanModel).Game().Head()
	want := env.Point{X: start.X, Y: start.Y - 20}
	if got != want {
		t.Errorf("Head = %v, want %v", got, want)
	}
}

func TestHumanLastKeyWins(t *testing.T) {
	m := newHuman(t, nil)
	start := m.Game().Head()

	next, _ := send(m, tea.KeyMsg{Type: tea.KeyUp}, runeKey("s"), TickMsg{})
	got := next.(HumanModel).Game().Head()
	if want := (env.Point{X: start.X, Y: start.Y + 20}); got != want {
		t.Errorf("Head = %v, want %v", got, want)
	}
}

func TestHumanPause(t *testing.T) {
	m := newHuman(t, nil)

	next, _ := send(m, runeKey("p"), TickMsg{}, TickMsg{})
	hm := next.(HumanModel)
	if !hm.Paused() {
		t.Fatal("Expected paused")
	}
	if hm.Game().Frame != 0 {
		t.Errorf("Paused game advanced to frame %d", hm.Game().Frame)
	}

	next, _ = send(next, runeKey("p"), TickMsg{})
	if next.(HumanModel).Game().Frame != 1 {
		t.Error("Expected the game to resume")
	}
}

func TestHumanSavesScoreOnceAndRestarts(t *testing.T) {
	store := &fakeStore{}
	var m tea.Model = newHuman(t, store)

	for i := 0; i < 10; i++ {
		m, _ = send(m, TickMsg{})
	}
	hm := m.(HumanModel)
	if !hm.Game().Done {
		t.Fatal("Expected the snake to hit the wall")
	}
	if len(store.scores) != 1 || store.variants[0] != storage.VariantHuman {
		t.Fatalf("Expected one human score, got %v %v", store.variants, store.scores)
	}
	if !strings.Contains(hm.View(), "GAME OVER") {
		t.Error("Expected game over banner")
	}

	m, _ = send(m, runeKey("r"))
	if g := m.(HumanModel).Game(); g.Done || g.Frame != 0 {
		t.Fatal("Expected a fresh game after restart")
	}

	for i := 0; i < 10; i++ {
		m, _ = send(m, TickMsg{})
	}
	if len(store.scores) != 2 {
		t.Errorf("Expected a second saved score, got %d", len(store.scores))
	}
}

func TestHumanRestartsAreSeeded(t *testing.T) {
	board := env.Board{Width: 100, Height: 100, Block: 20}
	play := func() []env.Point {
		var m tea.Model = newHuman(t, nil)
		var foods []env.Point
		for round := 0; round < 3; round++ {
			for i := 0; i < 10; i++ {
				m, _ = send(m, TickMsg{})
			}
			m, _ = send(m, runeKey("r"))
			foods = append(foods, m.(HumanModel).Game().Food)
		}
		return foods
	}

	first, second := play(), play()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Restart %d placed food at %v and %v", i+1, first[i], second[i])
		}
		want := env.NewHumanGame(board, 3, false, rand.New(rand.NewSource(5+int64(i+1)))).Food
		if first[i] != want {
			t.Errorf("Restart %d food %v, want %v from seed %d", i+1, first[i], want, 5+i+1)
		}
	}
}

func TestHumanRestartIgnoredWhilePlaying(t *testing.T) {
	m := newHuman(t, nil)
	next, _ := send(m, TickMsg{}, runeKey("r"))
	if next.(HumanModel).Game().Frame != 1 {
		t.Error("Restart should only apply after game over")
	}
}

func TestHumanQuit(t *testing.T) {
	m := newHuman(t, nil)
	next, cmd := send(m, runeKey("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if next.View() != "" {
		t.Error("Expected empty view after quit")
	}
}

func TestWatchPlaysGames(t *testing.T) {
	net := nn.NewQNet(env.ObsDim, 8, env.NumActions, rand.New(rand.NewSource(1)))
	var m tea.Model = NewWatchModel(net, env.Options{Board: env.Board{Width: 100, Height: 100, Block: 20}, StallFactor: 10}, 1, 50)

	for i := 0; i < 2000; i++ {
		m, _ = send(m, TickMsg{})
	}
	wm := m.(WatchModel)
	if wm.Games() == 0 {
		t.Error("Expected at least one finished game")
	}
	if !strings.Contains(wm.View(), "Mean:") {
		t.Error("Expected running mean in view")
	}
}

func TestWatchUsesStartLength(t *testing.T) {
	net := nn.NewQNet(env.ObsDim, 8, env.NumActions, rand.New(rand.NewSource(1)))
	opts := env.Options{Board: env.Board{Width: 200, Height: 200, Block: 20}, StartLength: 5, StallFactor: 10}
	m := NewWatchModel(net, opts, 1, 50)
	if n := len(m.game.Snake); n != 5 {
		t.Errorf("Expected 5 segments, got %d", n)
	}
}

func TestMonitor(t *testing.T) {
	stops := 0
	var m tea.Model = NewMonitorModel(func() { stops++ })

	if !strings.Contains(m.View(), "waiting") {
		t.Error("Expected waiting message before the first frame")
	}

	snap := env.NewAIGame(env.Board{Width: 100, Height: 100, Block: 20}, 100, rand.New(rand.NewSource(1))).Snapshot()
	m, _ = send(m, FrameMsg{Snap: snap, Episode: 7, Record: 3, Mean: 1.5})
	frame, ok := m.(MonitorModel).Frame()
	if !ok || frame.Episode != 7 {
		t.Fatalf("Unexpected frame %+v", frame)
	}
	if !strings.Contains(m.View(), "episode 7") {
		t.Error("Expected episode in view")
	}

	m, cmd := send(m, runeKey("q"))
	if stops != 1 || cmd == nil {
		t.Errorf("Quit should stop training once: stops=%d", stops)
	}
	send(m, runeKey("q"))
	if stops != 1 {
		t.Errorf("stop called %d times", stops)
	}
}

func TestMonitorDone(t *testing.T) {
	boom := errors.New("boom")
	m, cmd := send(NewMonitorModel(nil), DoneMsg{Err: boom})
	if cmd == nil {
		t.Fatal("Expected quit on done")
	}
	if !errors.Is(m.(MonitorModel).Err(), boom) {
		t.Errorf("Expected training error to be kept")
	}
}

func TestReplayModelReproducesEpisode(t *testing.T) {
	board := env.Board{Width: 120, Height: 120, Block: 20}
	g := env.NewAIGame(board, 20, rand.New(rand.NewSource(9)))
	rec := env.NewReplay(9, 1, env.ReplayConfigFor(g))
	pick := rand.New(rand.NewSource(4))
	for !g.Done {
		a := env.Action(pick.Intn(env.NumActions))
		rec.Record(a)
		g.Step(env.ActionControl(a))
	}
	rec.SetFinalStats(g.Stats(9))

	var m tea.Model = NewReplayModel(rec, 50)
	for i := 0; i < len(rec.Actions)+5; i++ {
		m, _ = send(m, TickMsg{})
	}
	rm := m.(ReplayModel)
	if !rm.Finished() {
		t.Fatal("Expected playback to finish")
	}
	if got := rm.Game().Stats(9); got != rec.FinalStats {
		t.Errorf("Replayed %+v, recorded %+v", got, rec.FinalStats)
	}

	m, _ = send(m, runeKey("r"))
	if g := m.(ReplayModel).Game(); g.Frame != 0 || g.Done {
		t.Error("Expected playback to restart")
	}
}
