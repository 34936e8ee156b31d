package replay_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Noofbiz/haliteGen/replay"
	"github.com/Noofbiz/haliteGen/replay/replaytest"
)

func twoPlayerReplay() *replaytest.Replay {
	return replaytest.New(4, 3,
		replaytest.Player{Name: "teccles v12", ID: 0, FactoryX: 1, FactoryY: 1},
		replaytest.Player{Name: "other v3", ID: 1, FactoryX: 3, FactoryY: 2},
	)
}

func mustDecode(t *testing.T, raw []byte, player string) *replay.Game {
	t.Helper()
	g, err := replay.Decode(raw, player)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return g
}

func TestDecode_ImplicitHoldForShipWithoutMove(t *testing.T) {
	r := twoPlayerReplay()
	r.AddFrame(replaytest.Frame{
		Ships: map[int]map[int]replaytest.Ship{0: {5: {X: 1, Y: 1}}},
		Moves: map[int]map[int]string{0: {5: "n"}},
	})
	r.AddFrame(replaytest.Frame{
		Ships: map[int]map[int]replaytest.Ship{0: {5: {X: 1, Y: 0}, 6: {X: 1, Y: 1}}},
		Moves: map[int]map[int]string{0: {5: "e"}},
	})

	g := mustDecode(t, r.JSON(t), "teccles")
	if g.NumFrames() != 2 {
		t.Fatalf("expected 2 frames, got %d", g.NumFrames())
	}
	if got := g.Frames[1].Moves[0][6]; got != replay.Hold {
		t.Fatalf("ship without a move at frame 1: got %v want hold", got)
	}
	if got := g.Frames[1].Moves[0][5]; got != replay.East {
		t.Fatalf("ship 5 at frame 1: got %v want east", got)
	}
	if got := g.Frames[0].Moves[0][5]; got != replay.North {
		t.Fatalf("ship 5 at frame 0: got %v want north", got)
	}
}

func TestDecode_RosterAndMovesAgree(t *testing.T) {
	r := twoPlayerReplay()
	r.AddFrame(replaytest.Frame{
		Ships: map[int]map[int]replaytest.Ship{
			0: {1: {X: 0, Y: 0}},
			1: {1: {X: 2, Y: 2}, 2: {X: 3, Y: 2}},
		},
		// ship 9 is not in the roster and must not leak into the move table
		Moves: map[int]map[int]string{0: {9: "w"}, 1: {2: "s"}},
	})

	g := mustDecode(t, r.JSON(t), "teccles")
	f := g.Frames[0]
	for owner, roster := range f.Ships {
		if len(f.Moves[owner]) != len(roster) {
			t.Fatalf("owner %d: %d moves for %d ships", owner, len(f.Moves[owner]), len(roster))
		}
		for id := range roster {
			if _, ok := f.Moves[owner][id]; !ok {
				t.Fatalf("owner %d ship %d has no move", owner, id)
			}
		}
	}
	if got := f.Moves[1][1]; got != replay.Hold {
		t.Errorf("enemy ship 1: got %v want hold", got)
	}
	if got := f.Moves[1][2]; got != replay.South {
		t.Errorf("enemy ship 2: got %v want south", got)
	}
}

func TestDecode_CopyOnWriteFrames(t *testing.T) {
	r := twoPlayerReplay()
	r.Production = [][]float32{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}
	r.AddFrame(replaytest.Frame{Cells: []replaytest.Cell{{X: 0, Y: 0, Production: 100}}})
	r.AddFrame(replaytest.Frame{
		Cells:      []replaytest.Cell{{X: 3, Y: 2, Production: 200}},
		Constructs: []replaytest.Construct{{X: 2, Y: 0, OwnerID: 1, ID: 7}},
	})

	g := mustDecode(t, r.JSON(t), "teccles")
	w := g.Width

	f0, f1 := g.Frames[0], g.Frames[1]
	if f0.Resources[0] != 100 || f0.Resources[2*w+3] != 12 {
		t.Fatalf("frame 0 resources unexpected: %v", f0.Resources)
	}
	if f1.Resources[0] != 100 || f1.Resources[2*w+3] != 200 {
		t.Fatalf("frame 1 resources unexpected: %v", f1.Resources)
	}
	if f1.Resources[1*w+1] != 6 {
		t.Fatalf("untouched cell changed: got %v", f1.Resources[1*w+1])
	}

	if f0.Structures[0*w+2] != replay.NoOwner {
		t.Fatalf("frame 0 must not see frame 1 construction")
	}
	if f1.Structures[0*w+2] != 1 {
		t.Fatalf("construct event not applied: got owner %d", f1.Structures[0*w+2])
	}
	// factories seed the structure grid
	if f0.Structures[1*w+1] != 0 || f0.Structures[2*w+3] != 1 {
		t.Fatalf("factory structures missing: %v", f0.Structures)
	}
}

func TestDecode_PlayerAndConstants(t *testing.T) {
	r := twoPlayerReplay()
	r.Constants["MOVE_COST_RATIO"] = 4
	r.AddFrame(replaytest.Frame{Energy: map[int]int{0: 5000, 1: 4000}})

	g := mustDecode(t, r.JSON(t), "other")
	if g.PlayerID != 1 {
		t.Fatalf("expected player id 1, got %d", g.PlayerID)
	}
	if g.Constants.MoveCostRatio != 4 || g.Constants.MaxCellProduction != 1000 || g.Constants.MaxEnergy != 1000 {
		t.Fatalf("unexpected constants: %+v", g.Constants)
	}
	if g.Frames[0].Energy[0] != 5000 {
		t.Fatalf("energy not decoded: %v", g.Frames[0].Energy)
	}
	// exact names match too
	if g := mustDecode(t, r.JSON(t), "teccles v12"); g.PlayerID != 0 {
		t.Fatalf("exact name match: got id %d", g.PlayerID)
	}
}

func TestDecode_UnknownPlayer(t *testing.T) {
	r := twoPlayerReplay().AddFrame(replaytest.Frame{})
	_, err := replay.Decode(r.JSON(t), "nobody")
	if !errors.Is(err, replay.ErrUnknownPlayer) {
		t.Fatalf("expected ErrUnknownPlayer, got %v", err)
	}
	if !errors.Is(err, replay.ErrMalformedReplay) {
		t.Fatalf("unknown player should also be a malformed replay, got %v", err)
	}
}

func TestDecode_MissingSections(t *testing.T) {
	for _, section := range []string{"production_map", "players", "full_frames", "GAME_CONSTANTS"} {
		doc := twoPlayerReplay().AddFrame(replaytest.Frame{}).Document()
		delete(doc, section)
		raw, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := replay.Decode(raw, "teccles"); !errors.Is(err, replay.ErrUnsupportedFormat) {
			t.Errorf("without %s: expected ErrUnsupportedFormat, got %v", section, err)
		}
	}

	r := twoPlayerReplay().AddFrame(replaytest.Frame{})
	delete(r.Constants, "MOVE_COST_RATIO")
	if _, err := replay.Decode(r.JSON(t), "teccles"); !errors.Is(err, replay.ErrUnsupportedFormat) {
		t.Errorf("without MOVE_COST_RATIO: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecode_CorruptFrame(t *testing.T) {
	cases := map[string]replaytest.Frame{
		"cell":      {Cells: []replaytest.Cell{{X: 4, Y: 0, Production: 1}}},
		"construct": {Constructs: []replaytest.Construct{{X: 0, Y: -1, OwnerID: 0}}},
		"ship":      {Ships: map[int]map[int]replaytest.Ship{0: {1: {X: 0, Y: 3}}}},
	}
	for name, bad := range cases {
		r := twoPlayerReplay()
		r.AddFrame(replaytest.Frame{})
		r.AddFrame(bad)
		g, err := replay.Decode(r.JSON(t), "teccles")
		if !errors.Is(err, replay.ErrCorruptFrame) {
			t.Errorf("%s: expected ErrCorruptFrame, got %v", name, err)
		}
		if g != nil {
			t.Errorf("%s: partial game returned", name)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := replay.Decode([]byte("{not json"), "teccles"); !errors.Is(err, replay.ErrMalformedReplay) {
		t.Fatalf("expected ErrMalformedReplay for bad JSON, got %v", err)
	}

	r := twoPlayerReplay().AddFrame(replaytest.Frame{})
	doc := r.Document()
	doc["production_map"].(map[string]any)["height"] = 5
	raw, _ := json.Marshal(doc)
	if _, err := replay.Decode(raw, "teccles"); !errors.Is(err, replay.ErrMalformedReplay) {
		t.Fatalf("expected ErrMalformedReplay for grid height mismatch, got %v", err)
	}

	r = twoPlayerReplay()
	r.AddFrame(replaytest.Frame{
		Ships: map[int]map[int]replaytest.Ship{0: {1: {X: 0, Y: 0}}},
		Moves: map[int]map[int]string{0: {1: "x"}},
	})
	if _, err := replay.Decode(r.JSON(t), "teccles"); !errors.Is(err, replay.ErrMalformedReplay) {
		t.Fatalf("expected ErrMalformedReplay for unknown direction, got %v", err)
	}
}

func TestLoad_PlainAndZstd(t *testing.T) {
	dir := t.TempDir()
	r := twoPlayerReplay()
	r.AddFrame(replaytest.Frame{
		Ships: map[int]map[int]replaytest.Ship{0: {3: {X: 2, Y: 1, Energy: 250}}},
		Moves: map[int]map[int]string{0: {3: "w"}},
	})

	for _, path := range []string{
		r.WriteFile(t, dir, "plain.json"),
		r.WriteZstdFile(t, dir, "packed.hlt"),
	} {
		g, err := replay.Load(path, "teccles")
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", path, err)
		}
		s := g.Roster(0)[3]
		if s.X != 2 || s.Y != 1 || s.Carried != 250 {
			t.Fatalf("Load(%s): unexpected ship %+v", path, s)
		}
		if g.Frames[0].Moves[0][3] != replay.West {
			t.Fatalf("Load(%s): unexpected move %v", path, g.Frames[0].Moves[0][3])
		}
	}
}

func TestClassFrequenciesAndAcceptance(t *testing.T) {
	r := twoPlayerReplay()
	for i := 0; i < 4; i++ {
		r.AddFrame(replaytest.Frame{
			Ships: map[int]map[int]replaytest.Ship{0: {1: {X: 0, Y: 0}, 2: {X: 1, Y: 0}}},
			Moves: map[int]map[int]string{0: {1: "n"}},
		})
	}
	g := mustDecode(t, r.JSON(t), "teccles")

	counts := g.ClassCounts()
	if counts[replay.North] != 4 || counts[replay.Hold] != 4 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	freqs := g.ClassFrequencies()
	if freqs[replay.North] != 0.5 || freqs[replay.Hold] != 0.5 {
		t.Fatalf("unexpected frequencies: %v", freqs)
	}

	accept := replay.AcceptanceProbabilities([replay.NumActions]float64{0.1, 0.6, 0.3, 0, 0})
	if accept[replay.Hold] != 1 {
		t.Errorf("rarest class must always be accepted, got %v", accept[replay.Hold])
	}
	if d := accept[replay.North] - 0.1/0.6; d > 1e-12 || d < -1e-12 {
		t.Errorf("north acceptance: got %v", accept[replay.North])
	}
	if accept[replay.East] != 0 {
		t.Errorf("absent class acceptance should be 0, got %v", accept[replay.East])
	}
}

func TestSummarize(t *testing.T) {
	r := twoPlayerReplay()
	r.AddFrame(replaytest.Frame{Ships: map[int]map[int]replaytest.Ship{1: {1: {X: 0, Y: 0}}}})
	r.AddFrame(replaytest.Frame{Ships: map[int]map[int]replaytest.Ship{0: {1: {X: 0, Y: 0}}, 1: {1: {X: 0, Y: 0}}}})

	s, err := replay.Summarize(r.JSON(t))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.NumFrames != 2 || s.Width != 4 || s.Height != 3 {
		t.Fatalf("unexpected summary header: %+v", s)
	}
	p, ok := s.Player("teccles")
	if !ok || p.RosterFrames != 1 {
		t.Fatalf("teccles summary: %+v ok=%v", p, ok)
	}
	p, ok = s.Player("other")
	if !ok || p.RosterFrames != 2 {
		t.Fatalf("other summary: %+v ok=%v", p, ok)
	}
	if _, ok := s.Player("nobody"); ok {
		t.Fatalf("unexpected match for unknown player")
	}
}
