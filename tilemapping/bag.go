package tilemapping

import (
	"fmt"

	"lukechampine.com/frand"
)

// A Bag is a physical, shuffled bag of tiles. It is only used to produce
// synthetic draw logs; the analysis itself never samples.
type Bag struct {
	tiles        []int
	distribution *TileDistribution
}

// NewBag returns a full, unshuffled bag.
func NewBag(td *TileDistribution) *Bag {
	b := &Bag{distribution: td}
	b.Refill()
	return b
}

// Refill puts every tile of the distribution back in the bag, unshuffled.
func (b *Bag) Refill() {
	b.tiles = make([]int, 0, b.distribution.numTotal)
	for i, n := range b.distribution.counts {
		for j := 0; j < n; j++ {
			b.tiles = append(b.tiles, i)
		}
	}
}

// Shuffle shuffles the remaining tiles.
func (b *Bag) Shuffle() {
	frand.Shuffle(len(b.tiles), func(i, j int) {
		b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i]
	})
}

// Draw removes n tiles from the top of the bag and returns their counts.
func (b *Bag) Draw(n int) (Draw, error) {
	if n > len(b.tiles) {
		return nil, fmt.Errorf("tried to draw %v tiles, tile bag has %v",
			n, len(b.tiles))
	}
	d := make(Draw, b.distribution.palette.NumCategories())
	for _, t := range b.tiles[len(b.tiles)-n:] {
		d[t]++
	}
	b.tiles = b.tiles[:len(b.tiles)-n]
	return d, nil
}

// DrawAtMost draws at most n tiles from the bag. It can draw fewer if there
// are fewer tiles than n, and even draw no tiles at all.
func (b *Bag) DrawAtMost(n int) Draw {
	if n > len(b.tiles) {
		n = len(b.tiles)
	}
	d, _ := b.Draw(n)
	return d
}

// TilesRemaining returns how many tiles are left.
func (b *Bag) TilesRemaining() int {
	return len(b.tiles)
}

// Population returns the bag's remaining content as a population.
func (b *Bag) Population() *Population {
	counts := make([]int, b.distribution.palette.NumCategories())
	for _, t := range b.tiles {
		counts[t]++
	}
	pop, _ := NewPopulation(b.distribution.palette, counts)
	return pop
}
