package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Noofbiz/haliteGen/datasets"
	"github.com/Noofbiz/haliteGen/replay"
	"github.com/Noofbiz/haliteGen/replay/replaytest"
)

func openIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "index.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func game(withShips bool) *replaytest.Replay {
	r := replaytest.New(4, 4,
		replaytest.Player{Name: "teccles v12", ID: 0},
		replaytest.Player{Name: "rival", ID: 1, FactoryX: 3, FactoryY: 3},
	)
	f := replaytest.Frame{Ships: map[int]map[int]replaytest.Ship{1: {1: {X: 2, Y: 2}}}}
	if withShips {
		f.Ships[0] = map[int]replaytest.Ship{4: {X: 1, Y: 1}}
		f.Moves = map[int]map[int]string{0: {4: "n"}}
	}
	return r.AddFrame(f)
}

func TestIndex_RefreshAndEligible(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	active := game(true).WriteZstdFile(t, dir, "active.hlt")
	game(false).WriteFile(t, dir, "idle.hlt")
	if err := os.WriteFile(filepath.Join(dir, "broken.hlt"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx := openIndex(t)
	stats, err := idx.Refresh(ctx, dir, "*.hlt")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if stats.Scanned != 3 || stats.Updated != 3 || stats.Failed != 1 || stats.Removed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	got, err := idx.Eligible(ctx, "teccles")
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(got) != 1 || got[0] != active {
		t.Fatalf("Eligible(teccles) = %v, want [%s]", got, active)
	}
	if got, _ := idx.Eligible(ctx, "rival"); len(got) != 2 {
		t.Fatalf("Eligible(rival) = %v, want both parsed replays", got)
	}

	// unchanged files are not re-read
	stats, err = idx.Refresh(ctx, dir, "*.hlt")
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if stats.Updated != 0 {
		t.Fatalf("unchanged files re-indexed: %+v", stats)
	}

	if err := os.Remove(active); err != nil {
		t.Fatalf("remove: %v", err)
	}
	stats, err = idx.Refresh(ctx, dir, "*.hlt")
	if err != nil {
		t.Fatalf("third Refresh: %v", err)
	}
	if stats.Removed != 1 {
		t.Fatalf("vanished file not removed: %+v", stats)
	}
	if got, _ := idx.Eligible(ctx, "teccles"); len(got) != 0 {
		t.Fatalf("removed file still eligible: %v", got)
	}
}

func TestIndex_SourceFeedsGenerator(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	game(true).WriteFile(t, dir, "a.json")
	game(false).WriteFile(t, dir, "b.json")

	idx := openIndex(t)
	if _, err := idx.Refresh(ctx, dir, "*.json"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	cfg := datasets.DefaultConfig()
	cfg.Player = "teccles"
	cfg.BatchSize = 3
	cfg.ProbIncludeFrame = 1
	cfg.ProbIncludeShip = 1
	g, err := datasets.NewGenerator(cfg, datasets.WithSource(idx.Source("teccles")))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	b, err := g.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	for _, a := range b.Actions() {
		if a != replay.North {
			t.Fatalf("unexpected label %v", a)
		}
	}

	if _, err := idx.Source("nobody").Files(); !errors.Is(err, datasets.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus for unknown player, got %v", err)
	}
}
