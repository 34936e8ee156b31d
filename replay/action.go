package replay

import "fmt"

// Action is a ship's move for one turn. The numeric order is the class order
// of the one-hot labels and must stay stable.
type Action int

const (
	Hold Action = iota
	North
	South
	East
	West

	NumActions = 5
)

// Actions lists every action in label order.
var Actions = [NumActions]Action{Hold, North, South, East, West}

var actionNames = [NumActions]string{"hold", "north", "south", "east", "west"}

func (a Action) String() string {
	if a < 0 || int(a) >= NumActions {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseDirection maps a replay direction letter to an Action.
// "o" (stay) maps to Hold.
func ParseDirection(d string) (Action, error) {
	switch d {
	case "o":
		return Hold, nil
	case "n":
		return North, nil
	case "s":
		return South, nil
	case "e":
		return East, nil
	case "w":
		return West, nil
	}
	return Hold, fmt.Errorf("unknown direction %q", d)
}

// rotateOnce is one counter-clockwise quarter turn.
func (a Action) rotateOnce() Action {
	switch a {
	case North:
		return West
	case West:
		return South
	case South:
		return East
	case East:
		return North
	}
	return a
}

// Rotate applies k counter-clockwise quarter turns to a. Hold is a fixed
// point. Negative k turns clockwise.
func (a Action) Rotate(k int) Action {
	k = ((k % 4) + 4) % 4
	for i := 0; i < k; i++ {
		a = a.rotateOnce()
	}
	return a
}

// OneHot returns the label vector for a.
func (a Action) OneHot() [NumActions]float32 {
	var v [NumActions]float32
	v[a] = 1
	return v
}
