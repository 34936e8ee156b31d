package datasets

import (
	"fmt"
	"sort"

	"github.com/Noofbiz/haliteGen/replay"
)

// DefaultEncoder is used when Config.Encoder is empty.
const DefaultEncoder = "fourplane"

// Encoder writes the per-cell planes of one example into a batch slot.
type Encoder interface {
	Name() string
	// Planes is the depth of the maps tensor.
	Planes() int
	// MoveCosts reports whether the encoder fills the move_costs tensor.
	MoveCosts() bool
	Encode(dst slot, ex Example, c replay.Constants)
}

var encoders = map[string]Encoder{
	"fourplane":  fourPlane{},
	"threeplane": threePlane{},
}

// EncoderByName resolves one of the registered encoders.
func EncoderByName(name string) (Encoder, error) {
	enc, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown encoder %q (have %v)", name, EncoderNames())
	}
	return enc, nil
}

// EncoderNames lists the registered encoders.
func EncoderNames() []string {
	names := make([]string, 0, len(encoders))
	for n := range encoders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// fourPlane stacks resources, ships, structures and move costs.
type fourPlane struct{}

func (fourPlane) Name() string    { return "fourplane" }
func (fourPlane) Planes() int     { return 4 }
func (fourPlane) MoveCosts() bool { return true }

func (fourPlane) Encode(dst slot, ex Example, c replay.Constants) {
	w := ex.Window
	for i := 0; i < w.W*w.H; i++ {
		raw := w.Data[i*w.C+ChannelResources]
		res := raw / c.MaxCellProduction
		ships := w.Data[i*w.C+ChannelShips]
		structures := w.Data[i*w.C+ChannelStructures]
		// remaining cargo after paying this cell's move cost, in production units
		cost := (ex.Carried - raw/c.MoveCostRatio) / c.MaxCellProduction

		dst.resources[i] = res
		dst.ships[i] = ships
		dst.structures[i] = structures
		dst.moveCosts[i] = cost
		dst.maps[i*4+0] = res
		dst.maps[i*4+1] = ships
		dst.maps[i*4+2] = structures
		dst.maps[i*4+3] = cost
	}
}

// threePlane stacks resources, ships and structures.
type threePlane struct{}

func (threePlane) Name() string    { return "threeplane" }
func (threePlane) Planes() int     { return 3 }
func (threePlane) MoveCosts() bool { return false }

func (threePlane) Encode(dst slot, ex Example, c replay.Constants) {
	w := ex.Window
	for i := 0; i < w.W*w.H; i++ {
		res := w.Data[i*w.C+ChannelResources] / c.MaxCellProduction
		ships := w.Data[i*w.C+ChannelShips]
		structures := w.Data[i*w.C+ChannelStructures]

		dst.resources[i] = res
		dst.ships[i] = ships
		dst.structures[i] = structures
		dst.maps[i*3+0] = res
		dst.maps[i*3+1] = ships
		dst.maps[i*3+2] = structures
	}
}
