package datasets

import (
	"github.com/Noofbiz/haliteGen/replay"
	"github.com/Noofbiz/haliteGen/torus"
)

// Channels of the per-frame base grid and of the extracted windows.
const (
	ChannelResources = iota // raw cell amount
	ChannelShips            // +1 own ship, -1 enemy ship
	ChannelStructures       // +1 own structure, -1 enemy structure
	NumBaseChannels
)

// Example is one sampled ship: its egocentric window (base channels), its raw
// cargo and the action it took.
type Example struct {
	Window  torus.Grid
	Carried float32
	Label   replay.Action
}

// BaseGrid rasterises frame f of g from the target player's point of view.
func BaseGrid(g *replay.Game, f int) torus.Grid {
	frame := &g.Frames[f]
	grid := torus.New(g.Width, g.Height, NumBaseChannels)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := y*g.Width + x
			grid.Set(x, y, ChannelResources, frame.Resources[i])
			if owner := frame.Structures[i]; owner != replay.NoOwner {
				grid.Set(x, y, ChannelStructures, sign(owner == g.PlayerID))
			}
		}
	}
	for owner, roster := range frame.Ships {
		v := sign(owner == g.PlayerID)
		for _, s := range roster {
			grid.Set(s.X, s.Y, ChannelShips, v)
		}
	}
	return grid
}

func sign(own bool) float32 {
	if own {
		return 1
	}
	return -1
}

// Rotate turns the window k quarter turns counter-clockwise and permutes the
// label the same way, so that the example stays consistent.
func Rotate(window torus.Grid, label replay.Action, k int) (torus.Grid, replay.Action) {
	return torus.Rot90(window, k), label.Rotate(k)
}
