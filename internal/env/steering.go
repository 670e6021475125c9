package env

// Action represents a relative action
type Action int

const (
	ActionStraight Action = iota
	ActionRight
	ActionLeft
)

// NumActions is the size of the relative action space.
const NumActions = 3

func (a Action) String() string {
	switch a {
	case ActionStraight:
		return "straight"
	case ActionRight:
		return "right"
	case ActionLeft:
		return "left"
	default:
		return "unknown"
	}
}

// OneHot encodes the action as [straight, right, left].
func (a Action) OneHot() [NumActions]int {
	var v [NumActions]int
	if a >= 0 && a < NumActions {
		v[a] = 1
	}
	return v
}

// ActionFromOneHot decodes a [straight, right, left] vector.
// Anything that is not straight or right is treated as left.
func ActionFromOneHot(v [NumActions]int) Action {
	switch {
	case v[ActionStraight] == 1:
		return ActionStraight
	case v[ActionRight] == 1:
		return ActionRight
	default:
		return ActionLeft
	}
}

// Control is one tick of input. Key is used by absolute steering,
// Action by relative steering.
type Control struct {
	Key    Direction
	HasKey bool
	Action Action
}

// KeyControl builds a control for an arrow-key press.
func KeyControl(d Direction) Control {
	return Control{Key: d, HasKey: true}
}

// ActionControl builds a control for a relative action.
func ActionControl(a Action) Control {
	return Control{Action: a}
}

// Steering resolves the next heading from the current one and a control.
type Steering interface {
	Resolve(current Direction, c Control) Direction
}

// AbsoluteSteering follows arrow keys. Without a key press the heading is kept.
type AbsoluteSteering struct {
	AllowReversal bool
}

// Resolve implements Steering.
func (s AbsoluteSteering) Resolve(current Direction, c Control) Direction {
	if !c.HasKey {
		return current
	}
	if !s.AllowReversal && c.Key == current.Opposite() {
		return current
	}
	return c.Key
}

// RelativeSteering turns the heading by a relative action.
type RelativeSteering struct{}

// Resolve implements Steering.
func (RelativeSteering) Resolve(current Direction, c Control) Direction {
	return Turn(current, c.Action)
}

// Turn returns new direction after applying relative action
func Turn(dir Direction, action Action) Direction {
	switch action {
	case ActionRight:
		return Direction((dir + 1) % 4) // clockwise
	case ActionLeft:
		return Direction((dir + 3) % 4) // counter-clockwise
	default:
		return dir
	}
}
