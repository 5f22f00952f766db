package tilemapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNegativeCount  = errors.New("counts must be non-negative")
	ErrLengthMismatch = errors.New("number of counts does not match palette")
)

// Draw holds how many tiles of each category were drawn, indexed like the
// palette. Entries past the end of the slice count as zero.
type Draw []int

// Total returns the number of tiles in the draw.
func (d Draw) Total() int {
	t := 0
	for _, n := range d {
		t += n
	}
	return t
}

// CountOf returns the drawn count for category i.
func (d Draw) CountOf(i int) int {
	if i < 0 || i >= len(d) {
		return 0
	}
	return d[i]
}

// Copy returns a deep copy of this draw.
func (d Draw) Copy() Draw {
	n := make(Draw, len(d))
	copy(n, d)
	return n
}

// Labeled returns a user-visible version of the draw listing only the
// categories that were drawn, e.g. "Blue=2, Mint=2".
func (d Draw) Labeled(p *Palette) string {
	parts := make([]string, 0, len(d))
	for i := 0; i < p.NumCategories(); i++ {
		if n := d.CountOf(i); n > 0 {
			parts = append(parts, p.Label(i)+"="+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, ", ")
}

// Population is the multiset of tiles remaining in the bag, partitioned by
// category. The category set is fixed; counts only ever go down.
type Population struct {
	palette *Palette
	counts  []int
	total   int
}

// NewPopulation creates a population. counts must have one non-negative
// entry per palette category.
func NewPopulation(p *Palette, counts []int) (*Population, error) {
	if len(counts) != p.NumCategories() {
		return nil, fmt.Errorf("%w: %d counts for %d categories",
			ErrLengthMismatch, len(counts), p.NumCategories())
	}
	pop := &Population{palette: p, counts: make([]int, len(counts))}
	for i, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("%w: %s=%d", ErrNegativeCount, p.Label(i), n)
		}
		pop.counts[i] = n
		pop.total += n
	}
	return pop, nil
}

// Palette returns the population's palette.
func (p *Population) Palette() *Palette {
	return p.palette
}

// NumCategories returns the number of categories.
func (p *Population) NumCategories() int {
	return len(p.counts)
}

// Count returns the number of tiles of category i remaining.
func (p *Population) Count(i int) int {
	return p.counts[i]
}

// Counts returns a copy of the per-category counts.
func (p *Population) Counts() []int {
	ret := make([]int, len(p.counts))
	copy(ret, p.counts)
	return ret
}

// Total returns the number of tiles remaining.
func (p *Population) Total() int {
	return p.total
}

// Copy returns a deep copy of this population.
func (p *Population) Copy() *Population {
	n := &Population{palette: p.palette, total: p.total}
	n.counts = make([]int, len(p.counts))
	copy(n.counts, p.counts)
	return n
}

// CopyFrom overwrites this population with other's state.
func (p *Population) CopyFrom(other *Population) {
	p.palette = other.palette
	p.total = other.total
	if len(p.counts) != len(other.counts) {
		p.counts = make([]int, len(other.counts))
	}
	copy(p.counts, other.counts)
}

// Deplete removes the drawn tiles. A category never goes below zero, even
// if the draw claims more than remains.
func (p *Population) Deplete(d Draw) {
	for i := range p.counts {
		take := d.CountOf(i)
		if take <= 0 {
			continue
		}
		if take > p.counts[i] {
			take = p.counts[i]
		}
		p.counts[i] -= take
		p.total -= take
	}
}

// Equal reports whether the two populations have the same palette and counts.
func (p *Population) Equal(other *Population) bool {
	if !p.palette.Equal(other.palette) || p.total != other.total {
		return false
	}
	for i := range p.counts {
		if p.counts[i] != other.counts[i] {
			return false
		}
	}
	return true
}

// String returns e.g. "Blue=20, Red=20, Yellow=20".
func (p *Population) String() string {
	parts := make([]string, len(p.counts))
	for i, n := range p.counts {
		parts[i] = p.palette.Label(i) + "=" + strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
