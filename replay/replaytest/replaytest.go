// Package replaytest builds small synthetic replays for tests in the replay,
// datasets and corpus packages.
package replaytest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// Player is a replay player entry.
type Player struct {
	Name               string
	ID                 int
	FactoryX, FactoryY int
}

// Ship is a roster entry.
type Ship struct {
	X, Y   int
	Energy float32
}

// Cell is a resource update.
type Cell struct {
	X, Y       int
	Production float32
}

// Construct is a structure construction event.
type Construct struct {
	X, Y    int
	OwnerID int
	ID      int
}

// Frame is one turn's delta.
type Frame struct {
	Cells      []Cell
	Constructs []Construct
	// Ships maps owner -> ship id -> ship.
	Ships map[int]map[int]Ship
	// Moves maps owner -> ship id -> direction letter (n, s, e, w, o).
	Moves  map[int]map[int]string
	Energy map[int]int
}

// Replay is a synthetic replay document.
type Replay struct {
	Width, Height int
	// Production is indexed [y][x]; nil means all zeros.
	Production [][]float32
	Players    []Player
	Constants  map[string]any
	Frames     []Frame
}

// New returns a replay of the given size with default constants
// (MOVE_COST_RATIO 10, MAX_CELL_PRODUCTION 1000, MAX_ENERGY 1000).
func New(width, height int, players ...Player) *Replay {
	return &Replay{
		Width:   width,
		Height:  height,
		Players: players,
		Constants: map[string]any{
			"MOVE_COST_RATIO":     10,
			"MAX_CELL_PRODUCTION": 1000,
			"MAX_ENERGY":          1000,
		},
	}
}

// AddFrame appends f and returns r for chaining.
func (r *Replay) AddFrame(f Frame) *Replay {
	r.Frames = append(r.Frames, f)
	return r
}

// Document returns the replay in its JSON object form.
func (r *Replay) Document() map[string]any {
	grid := make([][]map[string]any, r.Height)
	for y := range grid {
		grid[y] = make([]map[string]any, r.Width)
		for x := range grid[y] {
			var v float32
			if r.Production != nil {
				v = r.Production[y][x]
			}
			grid[y][x] = map[string]any{"energy": v}
		}
	}

	players := make([]map[string]any, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, map[string]any{
			"name":             p.Name,
			"player_id":        p.ID,
			"factory_location": map[string]any{"x": p.FactoryX, "y": p.FactoryY},
		})
	}

	frames := make([]map[string]any, 0, len(r.Frames))
	for _, f := range r.Frames {
		cells := make([]map[string]any, 0, len(f.Cells))
		for _, c := range f.Cells {
			cells = append(cells, map[string]any{"x": c.X, "y": c.Y, "production": c.Production})
		}
		events := make([]map[string]any, 0, len(f.Constructs))
		for _, c := range f.Constructs {
			events = append(events, map[string]any{
				"type":     "construct",
				"location": map[string]any{"x": c.X, "y": c.Y},
				"owner_id": c.OwnerID,
				"id":       c.ID,
			})
		}
		entities := make(map[string]map[string]any, len(f.Ships))
		for owner, ships := range f.Ships {
			roster := make(map[string]any, len(ships))
			for id, s := range ships {
				roster[strconv.Itoa(id)] = map[string]any{"x": s.X, "y": s.Y, "energy": s.Energy, "is_inspired": false}
			}
			entities[strconv.Itoa(owner)] = roster
		}
		moves := make(map[string][]map[string]any, len(f.Moves))
		for owner, ms := range f.Moves {
			list := make([]map[string]any, 0, len(ms))
			for id, d := range ms {
				list = append(list, map[string]any{"type": "m", "id": id, "direction": d})
			}
			moves[strconv.Itoa(owner)] = list
		}
		energy := make(map[string]int, len(f.Energy))
		for owner, e := range f.Energy {
			energy[strconv.Itoa(owner)] = e
		}
		frames = append(frames, map[string]any{
			"cells":    cells,
			"events":   events,
			"entities": entities,
			"moves":    moves,
			"energy":   energy,
		})
	}

	return map[string]any{
		"production_map": map[string]any{"width": r.Width, "height": r.Height, "grid": grid},
		"players":        players,
		"full_frames":    frames,
		"GAME_CONSTANTS": r.Constants,
	}
}

// JSON marshals the replay document.
func (r *Replay) JSON(t testing.TB) []byte {
	t.Helper()
	data, err := json.Marshal(r.Document())
	if err != nil {
		t.Fatalf("marshal replay: %v", err)
	}
	return data
}

// WriteFile writes the replay as plain JSON to dir/name and returns the path.
func (r *Replay) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, r.JSON(t), 0o644); err != nil {
		t.Fatalf("write replay %s: %v", path, err)
	}
	return path
}

// WriteZstdFile writes the replay zstd-compressed to dir/name and returns the path.
func (r *Replay) WriteZstdFile(t testing.TB, dir, name string) string {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer enc.Close()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, enc.EncodeAll(r.JSON(t), nil), 0o644); err != nil {
		t.Fatalf("write replay %s: %v", path, err)
	}
	return path
}
