package tilemapping

import (
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/bagodds/bagodds/config"
)

var DefaultConfig = config.DefaultConfig()

func TestPaletteLookup(t *testing.T) {
	is := is.New(t)
	p, err := NewPalette([]string{"Blue", "Red", "Yellow", "Black", "Mint"})
	is.NoErr(err)
	is.Equal(p.NumCategories(), 5)

	idx, ok := p.Index("yellow")
	is.True(ok)
	is.Equal(idx, 2)
	idx, ok = p.Index(" MINT ")
	is.True(ok)
	is.Equal(idx, 4)
	_, ok = p.Index("White")
	is.True(!ok)
	is.Equal(p.Label(3), "Black")
}

func TestPaletteRejects(t *testing.T) {
	is := is.New(t)
	_, err := NewPalette(nil)
	is.Equal(err, ErrEmptyPalette)
	_, err = NewPalette([]string{"Blue", ""})
	is.Equal(err, ErrEmptyLabel)
	_, err = NewPalette([]string{"Blue", "BLUE"})
	is.True(errors.Is(err, ErrDuplicateLabel))
}

func TestAzulDistribution(t *testing.T) {
	is := is.New(t)
	td, err := AzulTileDistribution(&DefaultConfig)
	is.NoErr(err)
	is.Equal(td.NumTotalTiles(), 100)
	is.Equal(td.Palette().Labels(), []string{"Blue", "Red", "Yellow", "Black", "Mint"})
	is.Equal(td.Counts(), []int{20, 20, 20, 20, 20})
}

func TestScanTileDistribution(t *testing.T) {
	is := is.New(t)
	td, err := ScanTileDistribution(strings.NewReader("A, 3\nB,0\nC,7\n"))
	is.NoErr(err)
	is.Equal(td.NumTotalTiles(), 10)
	is.Equal(td.Counts(), []int{3, 0, 7})

	_, err = ScanTileDistribution(strings.NewReader("A,x\n"))
	is.True(err != nil)
	_, err = ScanTileDistribution(strings.NewReader("A,-2\n"))
	is.True(errors.Is(err, ErrNegativeCount))
}

func TestDistributionOverrides(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigInitialCounts, []int{1, 2, 3, 4, 5})
	td, err := TileDistributionFromConfig(&cfg)
	is.NoErr(err)
	is.Equal(td.Counts(), []int{1, 2, 3, 4, 5})
	is.Equal(td.Palette().Label(0), "Blue")

	cfg = config.DefaultConfig()
	cfg.Set(config.ConfigCategories, []string{"X", "Y"})
	cfg.Set(config.ConfigInitialCounts, []int{4, 4})
	td, err = TileDistributionFromConfig(&cfg)
	is.NoErr(err)
	is.Equal(td.NumTotalTiles(), 8)
	is.Equal(td.Name, "custom")
}

func TestPopulationDepleteSaturates(t *testing.T) {
	is := is.New(t)
	p, _ := NewPalette([]string{"A", "B", "C"})
	pop, err := NewPopulation(p, []int{2, 5, 1})
	is.NoErr(err)

	pop.Deplete(Draw{1, 2, 0})
	is.Equal(pop.Counts(), []int{1, 3, 1})
	is.Equal(pop.Total(), 5)

	// claims more than remains
	pop.Deplete(Draw{4, 0, 3})
	is.Equal(pop.Counts(), []int{0, 3, 0})
	is.Equal(pop.Total(), 3)

	// short draw: missing entries are zero
	pop.Deplete(Draw{0, 1})
	is.Equal(pop.Counts(), []int{0, 2, 0})

	pop.Deplete(Draw{9, 9, 9})
	is.Equal(pop.Total(), 0)
	for i := 0; i < pop.NumCategories(); i++ {
		is.Equal(pop.Count(i), 0)
	}
}

func TestPopulationCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	p, _ := NewPalette([]string{"A", "B"})
	pop, _ := NewPopulation(p, []int{3, 3})
	cp := pop.Copy()
	pop.Deplete(Draw{1, 1})
	is.Equal(cp.Counts(), []int{3, 3})
	is.True(!cp.Equal(pop))
	cp.CopyFrom(pop)
	is.True(cp.Equal(pop))
}

func TestPopulationRejects(t *testing.T) {
	is := is.New(t)
	p, _ := NewPalette([]string{"A", "B"})
	_, err := NewPopulation(p, []int{1})
	is.True(errors.Is(err, ErrLengthMismatch))
	_, err = NewPopulation(p, []int{1, -1})
	is.True(errors.Is(err, ErrNegativeCount))
}

func TestStrings(t *testing.T) {
	is := is.New(t)
	p, _ := NewPalette([]string{"Blue", "Red", "Mint"})
	pop, _ := NewPopulation(p, []int{20, 19, 0})
	is.Equal(pop.String(), "Blue=20, Red=19, Mint=0")
	is.Equal(Draw{2, 0, 2}.Labeled(p), "Blue=2, Mint=2")
	is.Equal(Draw{2, 0, 2}.Total(), 4)
}

func TestBag(t *testing.T) {
	is := is.New(t)
	td, err := AzulTileDistribution(&DefaultConfig)
	is.NoErr(err)
	bag := td.MakeBag()
	is.Equal(bag.TilesRemaining(), 100)

	seen := make([]int, 5)
	for bag.TilesRemaining() > 0 {
		d, err := bag.Draw(4)
		is.NoErr(err)
		is.Equal(d.Total(), 4)
		for i, n := range d {
			seen[i] += n
		}
	}
	is.Equal(seen, td.Counts())

	_, err = bag.Draw(1)
	is.True(err != nil)
	is.Equal(bag.DrawAtMost(4).Total(), 0)
}

func TestBagPopulationTracksDraws(t *testing.T) {
	is := is.New(t)
	td, _ := AzulTileDistribution(&DefaultConfig)
	bag := td.MakeBag()
	pop := td.MakePopulation()
	for i := 0; i < 9; i++ {
		d, err := bag.Draw(4)
		is.NoErr(err)
		pop.Deplete(d)
	}
	is.True(pop.Equal(bag.Population()))
	is.Equal(pop.Total(), 64)
}
