package main

// Example command that builds a replay generator, pulls a couple of batches
// and converts them into gomlx tensors.
//
// Usage:
//   go run ./datasets/example -replays ./replays -player teccles
//
// Replays may be plain JSON or zstd-compressed .hlt files.

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Noofbiz/haliteGen/datasets"
	"github.com/Noofbiz/haliteGen/logger"
)

func main() {
	replays := flag.String("replays", "../replays", "directory holding replay files")
	player := flag.String("player", "teccles", "player whose ships become examples")
	radius := flag.Int("radius", 2, "window radius")
	flag.Parse()

	logger.Init()

	cfg := datasets.DefaultConfig()
	cfg.ReplayDir = *replays
	cfg.Player = *player
	cfg.Radius = *radius
	cfg.BatchSize = 8
	cfg.Balance = true
	cfg.Rotate = true
	cfg.Seed = 1

	gen, err := datasets.NewGenerator(cfg, datasets.WithLogger(logger.Get()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build generator")
	}
	fmt.Printf("Using replays in %s for player %s\n", cfg.ReplayDir, cfg.Player)

	for i := 0; i < 2; i++ {
		b, err := gen.Next()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to pull batch")
		}

		inputs, labels, err := b.Tensors()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to convert batch to gomlx tensors")
		}
		fmt.Printf("Batch %d: %d input tensors, labels=%T\n", i, len(inputs), labels)
		for _, name := range b.InputNames() {
			_, dims, _ := b.Field(name)
			fmt.Printf("  %-15s %v\n", name, dims)
		}
		fmt.Printf("  actions: %v\n", b.Actions())
	}

	fmt.Println("\nExample completed successfully!")
}
