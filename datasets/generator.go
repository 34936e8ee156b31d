package datasets

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/rs/zerolog"

	"github.com/Noofbiz/haliteGen/replay"
	"github.com/Noofbiz/haliteGen/torus"
)

// Generator is an endless, restartable sequence of class-balanced batches
// drawn from a replay corpus.
//
// Each call to Next resumes where the previous one stopped: the current file,
// frame and ship position are kept between calls. A single *rand.Rand seeded
// from Config.Seed drives every random choice, so two generators built from
// the same config and corpus produce the same batches.
//
// Files that fail to decode, or that have no frame with a target ship inside
// [StartFrac, EndFrac], are logged and removed from rotation. Once no file is
// left Next returns ErrEmptyCorpus.
type Generator struct {
	cfg    Config
	enc    Encoder
	source ReplaySource
	log    zerolog.Logger

	rand *rand.Rand
	buf  *BatchBuffer

	// files is nil until the source has been listed.
	files []string

	// cursor
	game   *replay.Game
	path   string
	accept [replay.NumActions]float64
	frame  int
	base   torus.Grid
	ships  []replay.ShipID
	pos    int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

// WithSource replaces the default DirSource{cfg.ReplayDir, cfg.Pattern}.
func WithSource(s ReplaySource) Option {
	return func(g *Generator) {
		g.source = s
	}
}

// NewGenerator validates cfg and builds a generator. Files are listed lazily
// on the first Next.
func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := EncoderByName(cfg.Encoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	g := &Generator{
		cfg:    cfg,
		enc:    enc,
		source: DirSource{Dir: cfg.ReplayDir, Pattern: cfg.Pattern},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With().Str("component", "generator").Str("player", cfg.Player).Logger()
	g.Reset()
	return g, nil
}

// Name returns the name of the dataset
func (g *Generator) Name() string {
	return fmt.Sprintf("HaliteReplays(%s,r=%d)", g.cfg.Player, g.cfg.Radius)
}

// Config returns the validated configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Reset rewinds the generator to its initial state: the rng is reseeded, the
// partial batch is discarded and the source is listed again on the next call.
func (g *Generator) Reset() {
	g.rand = rand.New(rand.NewSource(g.cfg.Seed))
	g.buf = NewBatchBuffer(g.cfg.BatchSize, g.cfg.Radius, g.enc)
	g.files = nil
	g.closeFile()
}

// Yield returns the next batch as gomlx tensors (inputs in Batch.InputNames
// order, a single one-hot labels tensor).
func (g *Generator) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	b, err := g.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	in, la, err := b.Tensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return g, in, []*tensors.Tensor{la}, nil
}

// Next returns the next full batch. It only returns an error when the corpus
// is exhausted or cannot be listed.
func (g *Generator) Next() (*Batch, error) {
	for {
		if g.game == nil {
			if err := g.selectFile(); err != nil {
				return nil, err
			}
			continue
		}
		if g.pos >= len(g.ships) {
			if !g.selectFrame() {
				g.log.Debug().Str("file", g.path).Msg("replay exhausted")
				g.closeFile()
			}
			continue
		}

		id := g.ships[g.pos]
		g.pos++
		ex, ok := g.sampleShip(id)
		if !ok {
			continue
		}
		if b, full := g.buf.Add(ex, g.game.Constants); full {
			return b, nil
		}
	}
}

// selectFile loads a random candidate. Unusable files are dropped; the
// caller loops until a file is open or an error is returned.
func (g *Generator) selectFile() error {
	if g.files == nil {
		files, err := g.source.Files()
		if err != nil {
			return fmt.Errorf("list replays: %w", err)
		}
		g.files = slices.Clone(files)
		if g.files == nil {
			g.files = []string{}
		}
		g.log.Debug().Int("files", len(g.files)).Msg("listed replays")
	}
	if len(g.files) == 0 {
		return ErrEmptyCorpus
	}

	i := g.rand.Intn(len(g.files))
	path := g.files[i]
	game, err := replay.Load(path, g.cfg.Player)
	if err != nil {
		g.log.Warn().Err(err).Str("file", path).Msg("dropping replay")
		g.dropFile(i)
		return nil
	}
	if !g.hasEligibleFrame(game) {
		g.log.Info().Str("file", path).Msg("dropping replay without eligible frames")
		g.dropFile(i)
		return nil
	}

	g.game, g.path = game, path
	g.frame = 0
	g.ships, g.pos = nil, 0
	if g.cfg.Balance {
		g.accept = replay.AcceptanceProbabilities(game.ClassFrequencies())
	}
	g.log.Debug().Str("file", path).Int("frames", game.NumFrames()).Msg("selected replay")
	return nil
}

func (g *Generator) dropFile(i int) {
	g.files = slices.Delete(g.files, i, i+1)
}

func (g *Generator) closeFile() {
	g.game, g.path = nil, ""
	g.ships, g.pos = nil, 0
	g.base = torus.Grid{}
}

// inWindow reports whether frame f is inside [StartFrac, EndFrac]; past
// reports frames beyond EndFrac.
func (g *Generator) inWindow(f, n int) (in, past bool) {
	frac := float64(f) / float64(n)
	if frac > g.cfg.EndFrac {
		return false, true
	}
	return frac >= g.cfg.StartFrac, false
}

func (g *Generator) hasEligibleFrame(game *replay.Game) bool {
	n := game.NumFrames()
	for f := 0; f < n; f++ {
		in, past := g.inWindow(f, n)
		if past {
			return false
		}
		if in && len(game.Roster(f)) > 0 {
			return true
		}
	}
	return false
}

// selectFrame advances to the next included frame with target ships. It
// returns false once the file is exhausted.
func (g *Generator) selectFrame() bool {
	n := g.game.NumFrames()
	for g.frame < n {
		f := g.frame
		g.frame++

		in, past := g.inWindow(f, n)
		if past {
			return false
		}
		if !in {
			continue
		}
		if g.rand.Float64() >= g.cfg.ProbIncludeFrame {
			continue
		}
		roster := g.game.Roster(f)
		if len(roster) == 0 {
			continue
		}

		g.ships = g.ships[:0]
		for id := range roster {
			g.ships = append(g.ships, id)
		}
		slices.Sort(g.ships)
		g.pos = 0
		g.base = BaseGrid(g.game, f)
		return true
	}
	return false
}

// sampleShip applies the ship coin, the balance coin and the rotation to ship
// id of the current frame.
func (g *Generator) sampleShip(id replay.ShipID) (Example, bool) {
	if g.rand.Float64() >= g.cfg.ProbIncludeShip {
		return Example{}, false
	}

	f := g.frame - 1
	label := g.game.Frames[f].Moves[g.game.PlayerID][id]
	if g.cfg.Balance && g.rand.Float64() >= g.accept[label] {
		return Example{}, false
	}

	s := g.game.Roster(f)[id]
	window := torus.Extract(g.base, s.X, s.Y, g.cfg.Radius)
	if g.cfg.Rotate {
		window, label = Rotate(window, label, g.rand.Intn(4))
	}
	return Example{Window: window, Carried: s.Carried, Label: label}, true
}
