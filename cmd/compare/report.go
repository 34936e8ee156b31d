package main

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/haliteGen/replay"
)

// classReport holds raw and sampled action counts and their frequencies.
type classReport struct {
	Raw, Sampled         [replay.NumActions]int
	RawFreq, SampledFreq [replay.NumActions]float64
}

func newReport(raw, sampled [replay.NumActions]int) classReport {
	return classReport{
		Raw:         raw,
		Sampled:     sampled,
		RawFreq:     frequencies(raw),
		SampledFreq: frequencies(sampled),
	}
}

func frequencies(counts [replay.NumActions]int) [replay.NumActions]float64 {
	var out [replay.NumActions]float64
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

// Print writes a fixed-width table.
func (r classReport) Print(w io.Writer) {
	fmt.Fprintf(w, "%-6s %10s %8s %10s %8s\n", "action", "raw", "raw%", "sampled", "sampled%")
	for _, a := range replay.Actions {
		fmt.Fprintf(w, "%-6s %10d %7.2f%% %10d %7.2f%%\n",
			a, r.Raw[a], 100*r.RawFreq[a], r.Sampled[a], 100*r.SampledFreq[a])
	}
}

// WriteCSV writes one row per action.
func (r classReport) WriteCSV(path string) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"action", "raw_count", "raw_freq", "sampled_count", "sampled_freq"}); err != nil {
		return err
	}
	for _, a := range replay.Actions {
		row := []string{
			a.String(),
			strconv.Itoa(r.Raw[a]),
			strconv.FormatFloat(r.RawFreq[a], 'f', 6, 64),
			strconv.Itoa(r.Sampled[a]),
			strconv.FormatFloat(r.SampledFreq[a], 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// plotClassBalance writes a PNG with raw (grey) and sampled (blue) action
// frequencies side by side and returns its path.
func plotClassBalance(outDir string, r classReport) (string, error) {
	p := plot.New()
	p.Title.Text = "Action frequencies: replays (grey), sampled batches (blue)"
	p.Y.Label.Text = "frequency"
	p.Y.Min = 0

	raw := make(plotter.Values, replay.NumActions)
	sampled := make(plotter.Values, replay.NumActions)
	names := make([]string, replay.NumActions)
	for i, a := range replay.Actions {
		raw[i] = r.RawFreq[a]
		sampled[i] = r.SampledFreq[a]
		names[i] = a.String()
	}

	w := vg.Points(18)
	rawBars, err := plotter.NewBarChart(raw, w)
	if err != nil {
		return "", err
	}
	rawBars.Color = color.RGBA{R: 120, G: 120, B: 120, A: 220}
	rawBars.LineStyle.Width = vg.Length(0)
	rawBars.Offset = -w / 2

	sampledBars, err := plotter.NewBarChart(sampled, w)
	if err != nil {
		return "", err
	}
	sampledBars.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	sampledBars.LineStyle.Width = vg.Length(0)
	sampledBars.Offset = w / 2

	p.Add(rawBars, sampledBars, plotter.NewGrid())
	p.Legend.Add("replays", rawBars)
	p.Legend.Add("sampled", sampledBars)
	p.Legend.Top = true
	p.NominalX(names...)

	if err := ensureDir(outDir); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, "class_balance.png")
	if err := p.Save(8*vg.Inch, 5*vg.Inch, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

func ensureDir(path string) error {
	// Attempt to create directory if it doesn't exist (silently succeed if present).
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
