// Package main provides the snapvault command: operational access to
// a capture library (stats, sweep, search).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/halcyonlab/snapvault/internal/config"
	"github.com/halcyonlab/snapvault/internal/library"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	dataDir := flag.String("data-dir", "", "Library directory (default: ~/.snapvault)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	limit := flag.Int("limit", 20, "Result page size for search")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if *dataDir != "" {
		os.Setenv("SNAPVAULT_DATA_DIR", *dataDir)
	}
	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		cfg = config.Default()
	}

	lib, err := library.Open(config.DataDir(), cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open library")
	}
	defer lib.Close()

	ctx := context.Background()

	switch flag.Arg(0) {
	case "stats", "":
		stats, err := lib.Stats(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Stats failed")
		}
		printJSON(stats)

	case "facets":
		facets, err := lib.Facets(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Facets failed")
		}
		printJSON(facets)

	case "sweep":
		report, err := lib.Sweep(ctx, cfg.Policy())
		if err != nil {
			log.Fatal().Err(err).Msg("Sweep failed")
		}
		printJSON(report)

	case "search":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: snapvault search <query>")
			os.Exit(2)
		}
		items, err := lib.Search(ctx, flag.Arg(1), *limit, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("Search failed")
		}
		printJSON(items)

	case "version":
		fmt.Println(Version)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want stats, facets, sweep, search, version)\n", flag.Arg(0))
		os.Exit(2)
	}
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Encode output")
	}
	fmt.Println(string(out))
}
