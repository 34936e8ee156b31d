package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// This package turns decoded replays into fixed-shape, ship-centric training
// batches.
//
// The pipeline is pull based. Generator picks a replay file at random, walks
// its frames, flips a coin per frame and per ship, optionally rejects ships to
// balance the action classes and optionally rotates the example by a random
// quarter turn. Accepted examples are encoded into a BatchBuffer; every time
// the buffer wraps a copy of it is handed out as a Batch.
//
// Layout of one example (S = 2*radius+1, see EncoderByName):
//   - maps:           (S, S, planes) stacked per-cell planes
//   - move_costs:     (S, S, 1)      fourplane only
//   - resources:      (S, S)         cell amount / MAX_CELL_PRODUCTION
//   - ships:          (S, S)         +1 own ship, -1 enemy ship, 0 empty
//   - structures:     (S, S)         +1 own structure, -1 enemy, 0 none
//   - carried_amount: (1)            ship cargo / MAX_ENERGY
//   - labels:         (5)            one-hot hold, north, south, east, west
//
// Generator also satisfies gomlx's train.Dataset so it can be handed to a
// training loop directly.
type Dataset interface {
	Name() string

	// Next returns the next full batch.
	Next() (*Batch, error)

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
	Reset()
}

var _ Dataset = (*Generator)(nil)
