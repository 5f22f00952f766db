// gendraws writes a synthetic draw log by drawing from a shuffled bag, for
// trying out the analysis without a real game.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/drawio"
	"github.com/bagodds/bagodds/tilemapping"
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
}

func generate(td *tilemapping.TileDistribution, size, rounds int) []tilemapping.Draw {
	bag := td.MakeBag()
	draws := make([]tilemapping.Draw, 0, rounds)
	for range rounds {
		if bag.TilesRemaining() == 0 {
			log.Info().Int("rounds", len(draws)).Msg("bag-empty")
			break
		}
		draws = append(draws, bag.DrawAtMost(size))
	}
	return draws
}

func run(cfg *config.Config) error {
	td, err := tilemapping.TileDistributionFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("loading distribution: %w", err)
	}
	draws := generate(td, cfg.GetInt(config.ConfigDrawSize), cfg.GetInt(config.ConfigMaxRounds))

	var w io.Writer = os.Stdout
	if args := cfg.Args(); len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := drawio.WriteDraws(w, td.Palette(), draws); err != nil {
		return fmt.Errorf("writing draws: %w", err)
	}
	log.Debug().Int("rounds", len(draws)).Msg("draws-written")
	return nil
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("gendraws-failed")
		os.Exit(1)
	}
}
