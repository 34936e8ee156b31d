package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/haliteGen/replay"
)

// Tensor names of a Batch.
const (
	TensorMaps       = "maps"
	TensorMoveCosts  = "move_costs"
	TensorResources  = "resources"
	TensorShips      = "ships"
	TensorStructures = "structures"
	TensorCarried    = "carried_amount"
	TensorLabels     = "labels"
)

// Batch stores one batch in flat contiguous buffers. Per-example tensors are
// laid out example-major, cells row-major, planes innermost.
type Batch struct {
	Size   int
	Side   int // 2*radius+1
	Planes int

	Maps       []float32 // Size*Side*Side*Planes
	MoveCosts  []float32 // Size*Side*Side, nil when the encoder has none
	Resources  []float32 // Size*Side*Side
	Ships      []float32
	Structures []float32
	Carried    []float32 // Size
	Labels     []float32 // Size*replay.NumActions
}

func newBatch(size, side int, enc Encoder) *Batch {
	cells := size * side * side
	b := &Batch{
		Size:       size,
		Side:       side,
		Planes:     enc.Planes(),
		Maps:       make([]float32, cells*enc.Planes()),
		Resources:  make([]float32, cells),
		Ships:      make([]float32, cells),
		Structures: make([]float32, cells),
		Carried:    make([]float32, size),
		Labels:     make([]float32, size*replay.NumActions),
	}
	if enc.MoveCosts() {
		b.MoveCosts = make([]float32, cells)
	}
	return b
}

// Clone returns a deep copy of b.
func (b *Batch) Clone() *Batch {
	out := *b
	out.Maps = clone(b.Maps)
	out.MoveCosts = clone(b.MoveCosts)
	out.Resources = clone(b.Resources)
	out.Ships = clone(b.Ships)
	out.Structures = clone(b.Structures)
	out.Carried = clone(b.Carried)
	out.Labels = clone(b.Labels)
	return &out
}

func clone(s []float32) []float32 {
	if s == nil {
		return nil
	}
	return append([]float32(nil), s...)
}

// InputNames lists the input tensors in the order Tensors returns them.
func (b *Batch) InputNames() []string {
	names := []string{TensorMaps}
	if b.MoveCosts != nil {
		names = append(names, TensorMoveCosts)
	}
	return append(names, TensorResources, TensorShips, TensorStructures, TensorCarried)
}

// Field returns the flat data and dimensions of the named tensor.
func (b *Batch) Field(name string) ([]float32, []int, error) {
	s := b.Side
	switch name {
	case TensorMaps:
		return b.Maps, []int{b.Size, s, s, b.Planes}, nil
	case TensorMoveCosts:
		if b.MoveCosts == nil {
			break
		}
		return b.MoveCosts, []int{b.Size, s, s, 1}, nil
	case TensorResources:
		return b.Resources, []int{b.Size, s, s}, nil
	case TensorShips:
		return b.Ships, []int{b.Size, s, s}, nil
	case TensorStructures:
		return b.Structures, []int{b.Size, s, s}, nil
	case TensorCarried:
		return b.Carried, []int{b.Size, 1}, nil
	case TensorLabels:
		return b.Labels, []int{b.Size, replay.NumActions}, nil
	}
	return nil, nil, fmt.Errorf("batch has no tensor %q", name)
}

// Tensors converts the batch to gomlx tensors, inputs in InputNames order.
func (b *Batch) Tensors() (inputs []*tensors.Tensor, labels *tensors.Tensor, err error) {
	for _, name := range b.InputNames() {
		data, dims, err := b.Field(name)
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, tensors.FromFlatDataAndDimensions(data, dims...))
	}
	labels = tensors.FromFlatDataAndDimensions(b.Labels, b.Size, replay.NumActions)
	return inputs, labels, nil
}

// Actions decodes the one-hot label rows.
func (b *Batch) Actions() []replay.Action {
	out := make([]replay.Action, b.Size)
	for i := range out {
		row := b.Labels[i*replay.NumActions : (i+1)*replay.NumActions]
		for j, v := range row {
			if v == 1 {
				out[i] = replay.Action(j)
			}
		}
	}
	return out
}

// ClassCounts counts the labels of the batch per action.
func (b *Batch) ClassCounts() [replay.NumActions]int {
	var counts [replay.NumActions]int
	for _, a := range b.Actions() {
		counts[a]++
	}
	return counts
}

// slot is a view of one example inside a Batch.
type slot struct {
	maps, moveCosts, resources, ships, structures []float32
}

// BatchBuffer is the working batch of a generator. Examples are written at a
// cursor that wraps modulo the batch size; each wrap hands out a copy.
type BatchBuffer struct {
	enc    Encoder
	work   *Batch
	cursor int
}

// NewBatchBuffer allocates a buffer of size examples with windows of the given radius.
func NewBatchBuffer(size, radius int, enc Encoder) *BatchBuffer {
	return &BatchBuffer{enc: enc, work: newBatch(size, 2*radius+1, enc)}
}

// Len is the number of examples written since the last wrap.
func (b *BatchBuffer) Len() int {
	return b.cursor
}

// Reset rewinds the cursor. Stale data is overwritten by later examples.
func (b *BatchBuffer) Reset() {
	b.cursor = 0
}

// Add encodes ex at the cursor. When the cursor wraps it returns a copy of the
// full batch and true.
func (b *BatchBuffer) Add(ex Example, c replay.Constants) (*Batch, bool) {
	w := b.work
	if ex.Window.W != w.Side || ex.Window.H != w.Side || ex.Window.C != NumBaseChannels {
		panic(fmt.Sprintf("datasets: %dx%dx%d window in a batch of side %d",
			ex.Window.W, ex.Window.H, ex.Window.C, w.Side))
	}

	i := b.cursor
	cells := w.Side * w.Side
	dst := slot{
		maps:       w.Maps[i*cells*w.Planes : (i+1)*cells*w.Planes],
		resources:  w.Resources[i*cells : (i+1)*cells],
		ships:      w.Ships[i*cells : (i+1)*cells],
		structures: w.Structures[i*cells : (i+1)*cells],
	}
	if w.MoveCosts != nil {
		dst.moveCosts = w.MoveCosts[i*cells : (i+1)*cells]
	}
	b.enc.Encode(dst, ex, c)

	w.Carried[i] = ex.Carried / c.MaxEnergy
	hot := ex.Label.OneHot()
	copy(w.Labels[i*replay.NumActions:], hot[:])

	b.cursor = (b.cursor + 1) % w.Size
	if b.cursor == 0 {
		return w.Clone(), true
	}
	return nil, false
}
