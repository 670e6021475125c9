package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"snakeql/internal/env"
)

// Each board cell is drawn two columns wide so it looks square.
const (
	cellWidth = 2
	headCell  = "██"
	bodyCell  = "▓▓"
	foodCell  = "<>"
	emptyCell = "  "
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellBody
	cellHead
	cellFood
)

var cellStyles = map[cellKind]lipgloss.Style{
	cellEmpty: lipgloss.NewStyle(),
	cellBody:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	cellHead:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	cellFood:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

var cellGlyphs = map[cellKind]string{
	cellEmpty: emptyCell,
	cellBody:  bodyCell,
	cellHead:  headCell,
	cellFood:  foodCell,
}

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// BoardSize returns the rendered board size in terminal cells, border included.
func BoardSize(b env.Board) (width, height int) {
	return b.Cols()*cellWidth + 2, b.Rows() + 2
}

// RenderBoard draws the snapshot as a bordered grid.
// Adjacent cells of the same kind share one styled run.
func RenderBoard(s env.Snapshot) string {
	cols, rows := s.Board.Cols(), s.Board.Rows()
	grid := make([][]cellKind, rows)
	for y := range grid {
		grid[y] = make([]cellKind, cols)
	}

	set := func(p env.Point, k cellKind) {
		x, y := p.X/s.Board.Block, p.Y/s.Board.Block
		if s.Board.Contains(p) {
			grid[y][x] = k
		}
	}
	if s.Food != env.NoFood {
		set(s.Food, cellFood)
	}
	for i := len(s.Snake) - 1; i >= 1; i-- {
		set(s.Snake[i], cellBody)
	}
	if len(s.Snake) > 0 {
		set(s.Snake[0], cellHead)
	}

	var sb strings.Builder
	sb.Grow(rows * (cols*cellWidth + 1))
	for y := range grid {
		if y > 0 {
			sb.WriteRune('\n')
		}
		x := 0
		for x < cols {
			kind := grid[y][x]
			var run strings.Builder
			for x < cols && grid[y][x] == kind {
				run.WriteString(cellGlyphs[kind])
				x++
			}
			sb.WriteString(cellStyles[kind].Render(run.String()))
		}
	}
	return boardStyle.Render(sb.String())
}

// RenderStatus formats the score line under the board.
func RenderStatus(s env.Snapshot, record int) string {
	return statusStyle.Render(fmt.Sprintf("Score: %d  Record: %d  Length: %d", s.Score, record, len(s.Snake)))
}

func deathBanner(d env.DeathReason) string {
	switch d {
	case env.DeathBoardFull:
		return "BOARD CLEARED"
	case env.DeathWall:
		return "GAME OVER - hit the wall"
	case env.DeathSelf:
		return "GAME OVER - ran into itself"
	case env.DeathStall:
		return "GAME OVER - too slow"
	}
	return "GAME OVER"
}
