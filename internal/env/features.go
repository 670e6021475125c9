package env

// ObsDim is the length of the observation vector.
const ObsDim = 11

// Observation indices.
const (
	ObsDangerStraight = iota
	ObsDangerRight
	ObsDangerLeft
	ObsDirLeft
	ObsDirRight
	ObsDirUp
	ObsDirDown
	ObsFoodLeft
	ObsFoodRight
	ObsFoodUp
	ObsFoodDown
)

// Observation is the 0/1 feature vector the agent sees.
type Observation [ObsDim]int

// Floats converts the observation for the value network.
func (o Observation) Floats() []float64 {
	out := make([]float64, ObsDim)
	for i, v := range o {
		out[i] = float64(v)
	}
	return out
}

// Features builds the observation for the current game state.
// It reads the game only; the same state always yields the same vector.
func Features(g *Game) Observation {
	var o Observation
	head := g.Head()

	// Danger one cell away, relative to heading
	o[ObsDangerStraight] = boolToInt(g.IsDanger(ActionStraight))
	o[ObsDangerRight] = boolToInt(g.IsDanger(ActionRight))
	o[ObsDangerLeft] = boolToInt(g.IsDanger(ActionLeft))

	// Heading, one-hot
	o[ObsDirLeft] = boolToInt(g.Dir == DirLeft)
	o[ObsDirRight] = boolToInt(g.Dir == DirRight)
	o[ObsDirUp] = boolToInt(g.Dir == DirUp)
	o[ObsDirDown] = boolToInt(g.Dir == DirDown)

	// Food location relative to head
	o[ObsFoodLeft] = boolToInt(g.Food.X < head.X)
	o[ObsFoodRight] = boolToInt(g.Food.X > head.X)
	o[ObsFoodUp] = boolToInt(g.Food.Y < head.Y)
	o[ObsFoodDown] = boolToInt(g.Food.Y > head.Y)

	return o
}

// IsDanger checks if moving in the relative direction would collide
func (g *Game) IsDanger(rel Action) bool {
	next := g.Head().Move(Turn(g.Dir, rel), g.Board.Block)
	return g.IsCollision(next)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
