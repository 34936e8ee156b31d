package main

// compare pulls batches from the replay generator and reports how the sampled
// action mix compares with the raw mix of the corpus. It writes a grouped bar
// chart (and optionally a CSV) so the effect of class balancing, rotation and
// the frame window can be checked before training.
//
// Usage:
//
//	go run ./cmd/compare -replays ./replays -player teccles -batches 50
//	go run ./cmd/compare -config gen.yaml -index replays.db -out plots

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Noofbiz/haliteGen/corpus"
	"github.com/Noofbiz/haliteGen/datasets"
	"github.com/Noofbiz/haliteGen/logger"
	"github.com/Noofbiz/haliteGen/replay"
)

func main() {
	configFlag := flag.String("config", "", "path to YAML generator config (optional)")
	replaysFlag := flag.String("replays", "", "replay directory (overrides config)")
	patternFlag := flag.String("pattern", "", "glob pattern inside the replay directory (overrides config)")
	playerFlag := flag.String("player", "", "player whose ships become examples (overrides config)")
	seedFlag := flag.Int64("seed", 0, "random seed (overrides config)")
	balanceFlag := flag.Bool("balance", false, "enable class-balanced rejection (overrides config)")
	rotateFlag := flag.Bool("rotate", false, "enable random rotations (overrides config)")
	batches := flag.Int("batches", 50, "number of batches to pull")
	indexPath := flag.String("index", "", "sqlite replay index; when set only files where the player has ships are sampled")
	outDir := flag.String("out", "plots", "output directory for generated plots")
	outCSV := flag.String("out-csv", "", "if set, also write the class frequencies to this CSV path")
	printEffectiveConfig := flag.Bool("print-effective-config", false, "print the effective (YAML+CLI merged) configuration and exit")
	flag.Parse()

	logger.Init()

	cfg := datasets.DefaultConfig()
	if *configFlag != "" {
		loaded, err := datasets.LoadConfig(*configFlag)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configFlag).Msg("failed to load config")
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "replays":
			cfg.ReplayDir = *replaysFlag
		case "pattern":
			cfg.Pattern = *patternFlag
		case "player":
			cfg.Player = *playerFlag
		case "seed":
			cfg.Seed = *seedFlag
		case "balance":
			cfg.Balance = *balanceFlag
		case "rotate":
			cfg.Rotate = *rotateFlag
		}
	})
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if *printEffectiveConfig {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			log.Fatal().Err(err).Msg("failed to print config")
		}
		return
	}

	ctx := context.Background()
	opts := []datasets.Option{datasets.WithLogger(logger.Get())}
	var source datasets.ReplaySource = datasets.DirSource{Dir: cfg.ReplayDir, Pattern: cfg.Pattern}
	if *indexPath != "" {
		idx, err := corpus.Open(ctx, *indexPath, logger.Get())
		if err != nil {
			log.Fatal().Err(err).Str("path", *indexPath).Msg("failed to open replay index")
		}
		defer idx.Close()
		if _, err := idx.Refresh(ctx, cfg.ReplayDir, cfg.Pattern); err != nil {
			log.Fatal().Err(err).Msg("failed to refresh replay index")
		}
		source = idx.Source(cfg.Player)
		opts = append(opts, datasets.WithSource(source))
	}

	gen, err := datasets.NewGenerator(cfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build generator")
	}
	log.Info().
		Str("dataset", gen.Name()).
		Str("encoder", cfg.Encoder).
		Int("batch_size", cfg.BatchSize).
		Int64("seed", cfg.Seed).
		Msg("generator ready")

	files, err := source.Files()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list replays")
	}
	raw := rawCounts(files, cfg.Player)

	start := time.Now()
	var sampled [replay.NumActions]int
	for i := 0; i < *batches; i++ {
		b, err := gen.Next()
		if err != nil {
			log.Fatal().Err(err).Int("batch", i).Msg("generator failed")
		}
		if i == 0 {
			logShapes(b)
		}
		counts := b.ClassCounts()
		for a, c := range counts {
			sampled[a] += c
		}
	}
	log.Info().
		Int("batches", *batches).
		Dur("elapsed", time.Since(start)).
		Msg("pulled batches")

	report := newReport(raw, sampled)
	report.Print(os.Stdout)

	if *outCSV != "" {
		if err := report.WriteCSV(*outCSV); err != nil {
			log.Fatal().Err(err).Str("path", *outCSV).Msg("failed to write CSV")
		}
		log.Info().Str("path", *outCSV).Msg("wrote class frequencies")
	}
	path, err := plotClassBalance(*outDir, report)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write plot")
	}
	log.Info().Str("path", path).Msg("wrote class balance plot")
}

// rawCounts sums the target player's actions over every decodable file.
func rawCounts(files []string, player string) [replay.NumActions]int {
	var total [replay.NumActions]int
	for _, path := range files {
		g, err := replay.Load(path, player)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping replay in raw counts")
			continue
		}
		for a, c := range g.ClassCounts() {
			total[a] += c
		}
	}
	return total
}

func logShapes(b *datasets.Batch) {
	names := append(b.InputNames(), datasets.TensorLabels)
	for _, name := range names {
		_, dims, err := b.Field(name)
		if err != nil {
			continue
		}
		log.Info().Str("tensor", name).Str("shape", fmt.Sprint(dims)).Msg("batch tensor")
	}
}
