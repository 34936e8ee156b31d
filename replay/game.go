package replay

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Decode and Load. Use errors.Is to test for them;
// the returned errors carry the file/frame context.
var (
	// ErrMalformedReplay reports structurally invalid input (bad JSON,
	// inconsistent grid geometry).
	ErrMalformedReplay = errors.New("malformed replay")

	// ErrUnknownPlayer reports that the requested player is not in the replay.
	// Errors wrapping it also match ErrMalformedReplay.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrCorruptFrame reports a frame delta referencing geometry outside the grid.
	ErrCorruptFrame = errors.New("corrupt frame")

	// ErrUnsupportedFormat reports missing required top-level sections.
	ErrUnsupportedFormat = errors.New("unsupported replay format")
)

// unknownPlayerError matches both ErrUnknownPlayer and ErrMalformedReplay.
type unknownPlayerError struct {
	name string
}

func (e *unknownPlayerError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownPlayer, e.name)
}

func (e *unknownPlayerError) Is(target error) bool {
	return target == ErrUnknownPlayer || target == ErrMalformedReplay
}

// NoOwner marks a cell without a structure in Frame.Structures.
const NoOwner = -1

// ShipID identifies a ship. Ids are scoped per owner.
type ShipID int

// Ship is the state of a single ship at one frame.
type Ship struct {
	X, Y    int
	Carried float32
}

// Position is a grid coordinate.
type Position struct {
	X, Y int
}

// Player is one entry of the replay's player list.
type Player struct {
	Name    string
	ID      int
	Factory Position
}

// Constants holds the game constants the encoders depend on, plus the raw
// constant table for anything else.
type Constants struct {
	MoveCostRatio     float32
	MaxCellProduction float32
	// MaxEnergy is the ship carrying capacity (1000 when absent).
	MaxEnergy float32
	Raw       map[string]any
}

// Frame is an immutable snapshot of one turn.
type Frame struct {
	// Resources holds the per-cell amount, row-major (y*Width + x).
	Resources []float32
	// Structures holds the owning player id per cell, or NoOwner.
	Structures []int
	// Ships maps owner id -> ship id -> ship state (full live roster).
	Ships map[int]map[ShipID]Ship
	// Moves maps owner id -> ship id -> action. Every ship in Ships has an entry.
	Moves map[int]map[ShipID]Action
	// Energy is each player's banked amount.
	Energy map[int]int
}

// Game is a decoded replay seen from one target player.
type Game struct {
	Width, Height int
	Players       []Player
	// PlayerIDs maps a player name (as written in the replay) to its id.
	PlayerIDs map[string]int
	// PlayerID is the id of the target player passed to Decode.
	PlayerID  int
	Constants Constants
	Frames    []Frame
}

// NumFrames returns the number of decoded frames.
func (g *Game) NumFrames() int {
	return len(g.Frames)
}

// Roster returns the target player's ships at frame f (nil when none).
func (g *Game) Roster(f int) map[ShipID]Ship {
	return g.Frames[f].Ships[g.PlayerID]
}

// ClassCounts counts the target player's actions across the whole replay,
// indexed by Action.
func (g *Game) ClassCounts() [NumActions]int {
	var counts [NumActions]int
	for i := range g.Frames {
		for _, a := range g.Frames[i].Moves[g.PlayerID] {
			counts[a]++
		}
	}
	return counts
}

// ClassFrequencies returns ClassCounts normalised to sum to 1. All zeros when
// the player never had a ship.
func (g *Game) ClassFrequencies() [NumActions]float64 {
	counts := g.ClassCounts()
	var freqs [NumActions]float64
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return freqs
	}
	for i, c := range counts {
		freqs[i] = float64(c) / float64(total)
	}
	return freqs
}

// AcceptanceProbabilities returns min_frequency/class_frequency per action,
// where the minimum is over classes that occur. Classes that never occur get 0.
func AcceptanceProbabilities(freqs [NumActions]float64) [NumActions]float64 {
	minFreq := 0.0
	for _, f := range freqs {
		if f > 0 && (minFreq == 0 || f < minFreq) {
			minFreq = f
		}
	}
	var accept [NumActions]float64
	if minFreq == 0 {
		return accept
	}
	for i, f := range freqs {
		if f > 0 {
			accept[i] = minFreq / f
		}
	}
	return accept
}
