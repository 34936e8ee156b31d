// Package torus provides wrap-around grid operations: egocentric window
// extraction on a torus and quarter-turn rotation of multi-channel grids.
//
// Grids are stored row-major with channels innermost, so the value of channel c
// at column x, row y lives at Data[(y*W+x)*C+c]. Row 0 is north.
package torus

import "fmt"

// Grid is a dense H x W x C float32 array.
type Grid struct {
	W, H, C int
	Data    []float32
}

// New returns a zeroed grid.
func New(w, h, c int) Grid {
	return Grid{W: w, H: h, C: c, Data: make([]float32, w*h*c)}
}

// FromSlice wraps data as a grid. It panics when the length does not match.
func FromSlice(w, h, c int, data []float32) Grid {
	if len(data) != w*h*c {
		panic(fmt.Sprintf("torus: %d values for a %dx%dx%d grid", len(data), w, h, c))
	}
	return Grid{W: w, H: h, C: c, Data: data}
}

func (g Grid) index(x, y, c int) int {
	return (y*g.W+x)*g.C + c
}

// At returns channel c at (x, y).
func (g Grid) At(x, y, c int) float32 {
	return g.Data[g.index(x, y, c)]
}

// Set stores v in channel c at (x, y).
func (g Grid) Set(x, y, c int, v float32) {
	g.Data[g.index(x, y, c)] = v
}

// Channel returns a copy of channel c as a flat H x W slice.
func (g Grid) Channel(c int) []float32 {
	out := make([]float32, g.W*g.H)
	for i := range out {
		out[i] = g.Data[i*g.C+c]
	}
	return out
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	out := g
	out.Data = append([]float32(nil), g.Data...)
	return out
}

// Tile repeats g reps times along both axes.
func Tile(g Grid, reps int) Grid {
	out := New(g.W*reps, g.H*reps, g.C)
	row := g.W * g.C
	for y := 0; y < out.H; y++ {
		src := g.Data[(y%g.H)*row : (y%g.H+1)*row]
		for r := 0; r < reps; r++ {
			copy(out.Data[out.index(r*g.W, y, 0):], src)
		}
	}
	return out
}

// Roll cyclically shifts g by dx columns and dy rows: the value at (x, y)
// moves to ((x+dx) mod W, (y+dy) mod H). Shifts may be negative.
func Roll(g Grid, dx, dy int) Grid {
	out := New(g.W, g.H, g.C)
	dx, dy = mod(dx, g.W), mod(dy, g.H)
	for y := 0; y < g.H; y++ {
		ny := (y + dy) % g.H
		for x := 0; x < g.W; x++ {
			nx := (x + dx) % g.W
			copy(out.Data[out.index(nx, ny, 0):out.index(nx, ny, 0)+g.C], g.Data[g.index(x, y, 0):g.index(x, y, 0)+g.C])
		}
	}
	return out
}

// CropCenter returns the size x size block starting at (W/2 - size/2, H/2 - size/2).
// It panics when size exceeds either side.
func CropCenter(g Grid, size int) Grid {
	if size > g.W || size > g.H {
		panic(fmt.Sprintf("torus: crop %d larger than %dx%d grid", size, g.W, g.H))
	}
	x0, y0 := g.W/2-size/2, g.H/2-size/2
	out := New(size, size, g.C)
	row := size * g.C
	for y := 0; y < size; y++ {
		start := g.index(x0, y0+y, 0)
		copy(out.Data[y*row:(y+1)*row], g.Data[start:start+row])
	}
	return out
}

// Extract returns the (2r+1) x (2r+1) window of g centred on (cx, cy), with
// wrap-around on both axes. The result equals reading
// g[(cy+dy) mod H][(cx+dx) mod W] for dx, dy in [-r, r]; it is built by tiling
// grids smaller than the window, rolling the centre cell into place and
// cropping the middle. Radius 0 yields the centre cell alone.
func Extract(g Grid, cx, cy, radius int) Grid {
	if radius < 0 {
		panic(fmt.Sprintf("torus: negative radius %d", radius))
	}
	size := 2*radius + 1
	if short := min(g.W, g.H); short < size {
		g = Tile(g, size/short+1)
	}
	// CropCenter starts at W/2 - r, so the centre must land at W/2.
	tx, ty := g.W/2, g.H/2
	rolled := Roll(g, tx-mod(cx, g.W), ty-mod(cy, g.H))
	return CropCenter(rolled, size)
}

// Rot90 rotates g by k counter-clockwise quarter turns, every channel alike.
// Any integer k is accepted; it is taken modulo 4. Non-square grids swap W and H.
func Rot90(g Grid, k int) Grid {
	k = mod(k, 4)
	for i := 0; i < k; i++ {
		g = rotOnce(g)
	}
	if k == 0 {
		g = g.Clone()
	}
	return g
}

// rotOnce turns g a quarter counter-clockwise: the top row becomes the left
// column, read bottom to top.
func rotOnce(g Grid) Grid {
	out := New(g.H, g.W, g.C)
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			src := g.index(g.W-1-y, x, 0)
			copy(out.Data[out.index(x, y, 0):out.index(x, y, 0)+g.C], g.Data[src:src+g.C])
		}
	}
	return out
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
