package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/drawio"
	"github.com/bagodds/bagodds/report"
	"github.com/bagodds/bagodds/session"
)

var (
	GitVersion string
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
	logger.Debug().Msg("Debug logging is on")
}

func run(ctx context.Context, cfg *config.Config) error {
	input := cfg.GetString(config.ConfigInput)
	if input == "" && len(cfg.Args()) > 0 {
		input = cfg.Args()[0]
	}
	if input == "" {
		return errors.New("no draw log given; pass --input <file.csv>")
	}

	driver, td, err := session.FromConfig(cfg)
	if err != nil {
		return err
	}
	records, err := drawio.ReadDrawsFile(input, td.Palette(), driver.MaxRounds())
	if err != nil {
		return fmt.Errorf("reading draw log: %w", err)
	}
	log.Info().Str("input", input).Int("rounds", len(records)).Msg("loaded-draw-log")

	console := report.NewConsole(os.Stdout)
	console.Banner(td, driver.DrawSize(), driver.MaxRounds())
	driver.AddRecorder(console)

	w, err := report.RoundWriterFromConfig(cfg, td.Palette())
	if err != nil {
		return err
	}
	if w != nil {
		driver.AddRecorder(w)
		defer func() {
			if err := w.Close(); err != nil {
				log.Err(err).Msg("closing-results")
			}
		}()
	}

	if _, err := driver.Run(ctx, drawio.Draws(records)); err != nil {
		return err
	}
	if err := console.Summary(driver.Summary()); err != nil {
		return err
	}
	if w != nil {
		log.Info().Str("output", cfg.GetString(config.ConfigOutput)).
			Str("format", cfg.GetString(config.ConfigOutputFormat)).Msg("results-written")
	}
	return nil
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Str("version", GitVersion).Msg("starting")

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("analysis-failed")
		stop()
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}
