package env

import (
	"math/rand"
)

// BlockSize is the edge length of one grid cell in board units.
const BlockSize = 20

// Default board size in board units (32x24 cells).
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Rewards handed out by Step.
const (
	RewardFood  = 10
	RewardDeath = -10
)

// Direction represents the snake's heading.
// Values are in clockwise order so turning is modular arithmetic.
type Direction int

const (
	DirRight Direction = iota
	DirDown
	DirLeft
	DirUp
)

func (d Direction) String() string {
	switch d {
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirUp:
		return "up"
	default:
		return "unknown"
	}
}

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction {
	return Direction((d + 2) % 4)
}

// Point is a cell origin on the board.
type Point struct {
	X, Y int
}

// NoFood marks the food slot when the board has no free cell left.
var NoFood = Point{X: -1, Y: -1}

// Move returns the point one step away in dir.
func (p Point) Move(dir Direction, step int) Point {
	switch dir {
	case DirUp:
		return Point{X: p.X, Y: p.Y - step}
	case DirRight:
		return Point{X: p.X + step, Y: p.Y}
	case DirDown:
		return Point{X: p.X, Y: p.Y + step}
	case DirLeft:
		return Point{X: p.X - step, Y: p.Y}
	}
	return p
}

// Board describes the playing field.
type Board struct {
	Width  int
	Height int
	Block  int
}

// DefaultBoard returns the 640x480 board with 20-unit cells.
func DefaultBoard() Board {
	return Board{Width: DefaultWidth, Height: DefaultHeight, Block: BlockSize}
}

// Contains reports whether p lies on the board.
func (b Board) Contains(p Point) bool {
	return p.X >= 0 && p.X <= b.Width-b.Block && p.Y >= 0 && p.Y <= b.Height-b.Block
}

// Cols returns the number of cells per row.
func (b Board) Cols() int { return b.Width / b.Block }

// Rows returns the number of cell rows.
func (b Board) Rows() int { return b.Height / b.Block }

// Cells enumerates every cell origin in row-major order.
func (b Board) Cells() []Point {
	cells := make([]Point, 0, b.Cols()*b.Rows())
	for y := 0; y <= b.Height-b.Block; y += b.Block {
		for x := 0; x <= b.Width-b.Block; x += b.Block {
			cells = append(cells, Point{X: x, Y: y})
		}
	}
	return cells
}

// Options configures a Game.
type Options struct {
	Board       Board
	StartLength int
	// StallFactor ends the episode once the frame counter exceeds
	// StallFactor * len(snake). Zero disables the cutoff.
	StallFactor int
}

// StepResult is returned by Step after each tick.
type StepResult struct {
	Reward int
	Done   bool
	Score  int
	Ate    bool
	Death  DeathReason
}

// Game is the snake engine shared by the human and AI variants.
type Game struct {
	Board       Board
	StartLength int
	StallFactor int

	// State
	Snake []Point // head is at index 0
	Dir   Direction
	Food  Point
	Score int
	Frame int // ticks since the last reset
	Done  bool
	Death DeathReason

	steering Steering
	rng      *rand.Rand
}

// NewGame creates a game driven by the given steering strategy and resets it.
func NewGame(opts Options, steering Steering, rng *rand.Rand) *Game {
	if opts.Board.Block == 0 {
		opts.Board = DefaultBoard()
	}
	if opts.StartLength <= 0 {
		opts.StartLength = 3
	}
	g := &Game{
		Board:       opts.Board,
		StartLength: opts.StartLength,
		StallFactor: opts.StallFactor,
		steering:    steering,
		rng:         rng,
	}
	g.Reset()
	return g
}

// NewHumanGame creates the keyboard-driven variant: absolute steering, no stall cutoff.
func NewHumanGame(board Board, startLength int, allowReversal bool, rng *rand.Rand) *Game {
	return NewGame(Options{Board: board, StartLength: startLength}, AbsoluteSteering{AllowReversal: allowReversal}, rng)
}

// NewAIGame creates the agent-driven variant: relative steering with the stall cutoff.
func NewAIGame(board Board, stallFactor int, rng *rand.Rand) *Game {
	return NewGame(Options{Board: board, StartLength: 3, StallFactor: stallFactor}, RelativeSteering{}, rng)
}

// Reset initializes the game to starting state
func (g *Game) Reset() {
	g.Score = 0
	g.Frame = 0
	g.Done = false
	g.Death = DeathNone

	// Spawn snake in center, facing right
	b := g.Board.Block
	head := Point{X: (g.Board.Width / 2) / b * b, Y: (g.Board.Height / 2) / b * b}
	g.Dir = DirRight

	g.Snake = make([]Point, g.StartLength)
	for i := 0; i < g.StartLength; i++ {
		g.Snake[i] = Point{X: head.X - i*b, Y: head.Y}
	}

	g.placeFood()
}

// Reseed replaces the food rng and resets, so an episode can be replayed from its seed.
func (g *Game) Reseed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
	g.Reset()
}

// Step advances the game by one tick with the given control.
func (g *Game) Step(control Control) StepResult {
	if g.Done {
		return g.result(0, false)
	}

	g.Frame++

	g.Dir = g.steering.Resolve(g.Dir, control)
	newHead := g.Snake[0].Move(g.Dir, g.Board.Block)
	g.Snake = append([]Point{newHead}, g.Snake...)

	if g.IsCollision(newHead) {
		g.Done = true
		g.Death = DeathSelf
		if !g.Board.Contains(newHead) {
			g.Death = DeathWall
		}
		return g.result(RewardDeath, false)
	}
	if g.StallFactor > 0 && g.Frame > g.StallFactor*len(g.Snake) {
		g.Done = true
		g.Death = DeathStall
		return g.result(RewardDeath, false)
	}

	if newHead == g.Food {
		g.Score++
		g.placeFood()
		return g.result(RewardFood, true)
	}

	// Move: drop tail
	g.Snake = g.Snake[:len(g.Snake)-1]
	return g.result(0, false)
}

func (g *Game) result(reward int, ate bool) StepResult {
	return StepResult{
		Reward: reward,
		Done:   g.Done,
		Score:  g.Score,
		Ate:    ate,
		Death:  g.Death,
	}
}

// IsCollision reports whether p is off the board or on a non-head segment.
func (g *Game) IsCollision(p Point) bool {
	if !g.Board.Contains(p) {
		return true
	}
	for _, s := range g.Snake[1:] {
		if s == p {
			return true
		}
	}
	return false
}

// placeFood places food at a random empty cell, ending the episode
// when the snake covers the whole board.
func (g *Game) placeFood() {
	occupied := make(map[Point]bool, len(g.Snake))
	for _, p := range g.Snake {
		occupied[p] = true
	}

	var empty []Point
	for _, p := range g.Board.Cells() {
		if !occupied[p] {
			empty = append(empty, p)
		}
	}

	if len(empty) == 0 {
		g.Food = NoFood
		g.Done = true
		g.Death = DeathBoardFull
		return
	}
	g.Food = empty[g.rng.Intn(len(empty))]
}

// Head returns the snake's head position
func (g *Game) Head() Point {
	return g.Snake[0]
}

// Tail returns the snake's tail position
func (g *Game) Tail() Point {
	return g.Snake[len(g.Snake)-1]
}

// Stats returns the episode statistics
func (g *Game) Stats(seed int64) EpisodeStats {
	return EpisodeStats{
		Score: g.Score,
		Ticks: g.Frame,
		Death: g.Death,
		Seed:  seed,
	}
}

// Snapshot is a copy of the game state handed to renderers.
type Snapshot struct {
	Board Board
	Snake []Point
	Food  Point
	Dir   Direction
	Score int
	Frame int
	Done  bool
	Death DeathReason
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	snake := make([]Point, len(g.Snake))
	copy(snake, g.Snake)
	return Snapshot{
		Board: g.Board,
		Snake: snake,
		Food:  g.Food,
		Dir:   g.Dir,
		Score: g.Score,
		Frame: g.Frame,
		Done:  g.Done,
		Death: g.Death,
	}
}
