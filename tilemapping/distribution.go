package tilemapping

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/config"
)

//go:embed distributions/*.csv
var embeddedDistributions embed.FS

// TileDistribution is the starting content of a bag.
type TileDistribution struct {
	Name     string
	palette  *Palette
	counts   []int
	numTotal int
}

// ScanTileDistribution reads a distribution from CSV rows of the form
// label,quantity.
func ScanTileDistribution(data io.Reader) (*TileDistribution, error) {
	r := csv.NewReader(data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	labels := []string{}
	counts := []int{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("distribution row %v: expected label,quantity", record)
		}
		n, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, err
		}
		labels = append(labels, record[0])
		counts = append(counts, n)
	}
	return NewTileDistribution(labels, counts)
}

// NewTileDistribution builds a distribution from parallel label and count
// slices.
func NewTileDistribution(labels []string, counts []int) (*TileDistribution, error) {
	p, err := NewPalette(labels)
	if err != nil {
		return nil, err
	}
	// validates lengths and signs
	pop, err := NewPopulation(p, counts)
	if err != nil {
		return nil, err
	}
	return &TileDistribution{
		palette:  p,
		counts:   pop.Counts(),
		numTotal: pop.Total(),
	}, nil
}

// Palette returns the distribution's palette.
func (td *TileDistribution) Palette() *Palette {
	return td.palette
}

// Counts returns a copy of the starting counts.
func (td *TileDistribution) Counts() []int {
	ret := make([]int, len(td.counts))
	copy(ret, td.counts)
	return ret
}

// NumTotalTiles returns the number of tiles in a full bag.
func (td *TileDistribution) NumTotalTiles() int {
	return td.numTotal
}

// MakePopulation returns a fresh full population.
func (td *TileDistribution) MakePopulation() *Population {
	pop, _ := NewPopulation(td.palette, td.counts)
	return pop
}

// MakeBag returns a shuffled physical bag of tiles.
func (td *TileDistribution) MakeBag() *Bag {
	b := NewBag(td)
	b.Shuffle()
	return b
}

func openDistribution(cfg *config.Config, name string) (io.ReadCloser, error) {
	fname := strings.ToLower(name) + ".csv"
	if f, err := embeddedDistributions.Open("distributions/" + fname); err == nil {
		return f, nil
	}
	dataPath := filepath.Join(cfg.GetString(config.ConfigDataPath), "distributions", fname)
	if f, err := os.Open(dataPath); err == nil {
		return f, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("distribution %q not found as builtin, in %s, or as a file: %w",
			name, dataPath, err)
	}
	return f, nil
}

// NamedTileDistribution loads a distribution by name. Builtin names win,
// then <data-path>/distributions/<name>.csv, then name as a file path.
func NamedTileDistribution(cfg *config.Config, name string) (*TileDistribution, error) {
	f, err := openDistribution(cfg, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	td, err := ScanTileDistribution(f)
	if err != nil {
		return nil, fmt.Errorf("scanning distribution %q: %w", name, err)
	}
	td.Name = name
	return td, nil
}

// AzulTileDistribution returns the 100-tile Azul bag.
func AzulTileDistribution(cfg *config.Config) (*TileDistribution, error) {
	return NamedTileDistribution(cfg, "azul")
}

// TileDistributionFromConfig loads the configured distribution and applies
// the categories and initial-counts overrides.
func TileDistributionFromConfig(cfg *config.Config) (*TileDistribution, error) {
	labels := cfg.GetStringSlice(config.ConfigCategories)
	counts := cfg.GetIntSlice(config.ConfigInitialCounts)
	if len(labels) > 0 && len(counts) > 0 {
		td, err := NewTileDistribution(labels, counts)
		if err != nil {
			return nil, err
		}
		td.Name = "custom"
		return td, nil
	}
	td, err := NamedTileDistribution(cfg, cfg.GetString(config.ConfigDistribution))
	if err != nil {
		return nil, err
	}
	switch {
	case len(labels) > 0:
		if len(labels) != len(td.counts) {
			return nil, errors.New("categories override must name every category of the distribution")
		}
		name := td.Name
		if td, err = NewTileDistribution(labels, td.counts); err != nil {
			return nil, err
		}
		td.Name = name
	case len(counts) > 0:
		name := td.Name
		if td, err = NewTileDistribution(td.palette.labels, counts); err != nil {
			return nil, err
		}
		td.Name = name
	}
	log.Debug().Str("name", td.Name).Int("num-tiles", td.numTotal).
		Strs("labels", td.palette.Labels()).Msg("loaded-distribution")
	return td, nil
}
