package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Noofbiz/haliteGen/replay"
)

func TestReport_FrequenciesAndOutputs(t *testing.T) {
	r := newReport([replay.NumActions]int{90, 10, 0, 0, 0}, [replay.NumActions]int{50, 50, 0, 0, 0})
	if r.RawFreq[replay.Hold] != 0.9 || r.SampledFreq[replay.North] != 0.5 {
		t.Fatalf("unexpected frequencies: %+v", r)
	}

	var buf bytes.Buffer
	r.Print(&buf)
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != replay.NumActions+1 {
		t.Fatalf("expected header plus %d rows, got:\n%s", replay.NumActions, buf.String())
	}

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "classes.csv")
	if err := r.WriteCSV(csvPath); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != replay.NumActions+1 || rows[1][0] != "hold" || rows[1][1] != "90" {
		t.Fatalf("unexpected csv rows: %v", rows)
	}

	path, err := plotClassBalance(filepath.Join(dir, "plots"), r)
	if err != nil {
		t.Fatalf("plotClassBalance: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("plot not written: %v", err)
	}
}

func TestFrequencies_Empty(t *testing.T) {
	for _, f := range frequencies([replay.NumActions]int{}) {
		if f != 0 {
			t.Fatalf("expected zero frequencies, got %v", f)
		}
	}
}
