package replay

import (
	"fmt"
	"slices"
	"strconv"
)

// Decode parses a raw (uncompressed) replay and rebuilds every frame from the
// per-turn deltas, seen from the player named player.
//
// Frame i is frame i-1 (or the seed built from the production map and the
// factory locations) patched with delta i: cell updates, construct events and
// the full ship roster. Moves of type "m" are decoded; roster ships without
// one are assigned Hold by AssignImplicitHolds.
//
// Decoding stops at the first bad frame: no partial game is returned.
func Decode(raw []byte, player string) (*Game, error) {
	r, err := parseRaw(raw)
	if err != nil {
		return nil, err
	}
	return decodeRaw(r, player)
}

func decodeRaw(r *rawReplay, player string) (*Game, error) {
	pm := r.ProductionMap
	w, h := pm.Width, pm.Height
	if len(pm.Grid) != h {
		return nil, fmt.Errorf("%w: production grid has %d rows, want %d", ErrMalformedReplay, len(pm.Grid), h)
	}

	g := &Game{
		Width:     w,
		Height:    h,
		PlayerIDs: make(map[string]int, len(r.Players)),
		PlayerID:  -1,
	}

	for _, p := range r.Players {
		g.Players = append(g.Players, Player{
			Name:    p.Name,
			ID:      p.PlayerID,
			Factory: Position{X: p.Factory.X, Y: p.Factory.Y},
		})
		g.PlayerIDs[p.Name] = p.PlayerID
		if g.PlayerID < 0 && MatchesPlayer(p.Name, player) {
			g.PlayerID = p.PlayerID
		}
	}
	if g.PlayerID < 0 {
		return nil, &unknownPlayerError{name: player}
	}

	g.Constants = Constants{Raw: r.Constants, MaxEnergy: defaultMaxEnergy}
	g.Constants.MoveCostRatio, _ = constFloat(r.Constants, ConstMoveCostRatio)
	g.Constants.MaxCellProduction, _ = constFloat(r.Constants, ConstMaxCellProduction)
	if v, ok := constFloat(r.Constants, ConstMaxEnergy); ok && v > 0 {
		g.Constants.MaxEnergy = v
	}

	// Seed grids.
	resources := make([]float32, w*h)
	for y, row := range pm.Grid {
		if len(row) != w {
			return nil, fmt.Errorf("%w: production grid row %d has %d cells, want %d", ErrMalformedReplay, y, len(row), w)
		}
		for x, cell := range row {
			resources[y*w+x] = cell.Energy
		}
	}
	structures := make([]int, w*h)
	for i := range structures {
		structures[i] = NoOwner
	}
	for _, p := range g.Players {
		if !g.inBounds(p.Factory.X, p.Factory.Y) {
			return nil, fmt.Errorf("%w: factory of player %d at (%d,%d) outside %dx%d grid",
				ErrMalformedReplay, p.ID, p.Factory.X, p.Factory.Y, w, h)
		}
		structures[p.Factory.Y*w+p.Factory.X] = p.ID
	}
	prev := Frame{Resources: resources, Structures: structures}

	g.Frames = make([]Frame, 0, len(r.Frames))
	for i := range r.Frames {
		f, err := g.applyDelta(prev, &r.Frames[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		g.Frames = append(g.Frames, f)
		prev = f
	}
	return g, nil
}

func (g *Game) inBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// applyDelta copies prev's grids and patches them with one frame's delta.
func (g *Game) applyDelta(prev Frame, rf *rawFrame) (Frame, error) {
	f := Frame{
		Resources:  slices.Clone(prev.Resources),
		Structures: slices.Clone(prev.Structures),
		Ships:      make(map[int]map[ShipID]Ship, len(rf.Entities)),
		Moves:      make(map[int]map[ShipID]Action, len(rf.Moves)),
		Energy:     make(map[int]int, len(rf.Energy)),
	}

	for _, c := range rf.Cells {
		if !g.inBounds(c.X, c.Y) {
			return Frame{}, fmt.Errorf("%w: cell (%d,%d) outside %dx%d grid", ErrCorruptFrame, c.X, c.Y, g.Width, g.Height)
		}
		f.Resources[c.Y*g.Width+c.X] = c.Production
	}

	for _, e := range rf.Events {
		if e.Type != "construct" {
			continue
		}
		if !g.inBounds(e.Location.X, e.Location.Y) {
			return Frame{}, fmt.Errorf("%w: construct at (%d,%d) outside %dx%d grid",
				ErrCorruptFrame, e.Location.X, e.Location.Y, g.Width, g.Height)
		}
		f.Structures[e.Location.Y*g.Width+e.Location.X] = e.OwnerID
	}

	for ownerKey, entities := range rf.Entities {
		owner, err := parseOwner(ownerKey)
		if err != nil {
			return Frame{}, err
		}
		roster := make(map[ShipID]Ship, len(entities))
		for idKey, e := range entities {
			id, err := strconv.Atoi(idKey)
			if err != nil {
				return Frame{}, fmt.Errorf("%w: ship key %q is not an integer", ErrMalformedReplay, idKey)
			}
			if !g.inBounds(e.X, e.Y) {
				return Frame{}, fmt.Errorf("%w: ship %d of player %d at (%d,%d) outside %dx%d grid",
					ErrCorruptFrame, id, owner, e.X, e.Y, g.Width, g.Height)
			}
			roster[ShipID(id)] = Ship{X: e.X, Y: e.Y, Carried: e.Energy}
		}
		f.Ships[owner] = roster
	}

	for ownerKey, moves := range rf.Moves {
		owner, err := parseOwner(ownerKey)
		if err != nil {
			return Frame{}, err
		}
		decoded := make(map[ShipID]Action, len(moves))
		for _, m := range moves {
			if m.Type != "m" {
				continue
			}
			a, err := ParseDirection(m.Direction)
			if err != nil {
				return Frame{}, fmt.Errorf("%w: ship %d: %v", ErrMalformedReplay, m.ID, err)
			}
			decoded[ShipID(m.ID)] = a
		}
		f.Moves[owner] = decoded
	}

	for ownerKey, amount := range rf.Energy {
		owner, err := parseOwner(ownerKey)
		if err != nil {
			return Frame{}, err
		}
		f.Energy[owner] = amount
	}

	AssignImplicitHolds(f.Ships, f.Moves)
	return f, nil
}

// AssignImplicitHolds makes the move table match the roster: every rostered
// ship without a decoded move gets Hold, and moves of ships that are not in
// the roster are dropped. Both maps are modified in place.
func AssignImplicitHolds(ships map[int]map[ShipID]Ship, moves map[int]map[ShipID]Action) {
	for owner, roster := range ships {
		ownerMoves, ok := moves[owner]
		if !ok {
			ownerMoves = make(map[ShipID]Action, len(roster))
			moves[owner] = ownerMoves
		}
		for id := range roster {
			if _, ok := ownerMoves[id]; !ok {
				ownerMoves[id] = Hold
			}
		}
	}
	for owner, ownerMoves := range moves {
		roster := ships[owner]
		for id := range ownerMoves {
			if _, ok := roster[id]; !ok {
				delete(ownerMoves, id)
			}
		}
	}
}
