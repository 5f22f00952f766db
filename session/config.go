package session

import (
	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/cache"
	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/probability"
	"github.com/bagodds/bagodds/tilemapping"
)

// FromConfig builds a driver for the configured distribution, table, draw
// size, round limit, threads, and caching.
func FromConfig(cfg *config.Config) (*Driver, *tilemapping.TileDistribution, error) {
	td, err := tilemapping.TileDistributionFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	table, err := classifier.TableFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	drawSize := cfg.GetInt(config.ConfigDrawSize)
	ev := probability.NewEvaluator(table, td.NumTotalTiles(), drawSize)
	ev.SetThreads(cfg.GetInt(config.ConfigThreads))
	if cfg.GetBool(config.ConfigCache) {
		ev.SetCache(cache.New[uint64, probability.Distribution]())
	}
	log.Debug().Str("distribution", td.Name).Str("table", table.Name).
		Int("threads", ev.Threads()).Msg("session-configured")

	d, err := NewDriver(td.MakePopulation(), ev,
		drawSize, cfg.GetInt(config.ConfigMaxRounds))
	if err != nil {
		return nil, nil, err
	}
	return d, td, nil
}
