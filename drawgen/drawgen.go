// Package drawgen enumerates every possible draw of a fixed number of tiles
// from a population, without replacement and without regard to order.
package drawgen

import (
	"errors"
	"iter"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/combinatorics"
	"github.com/bagodds/bagodds/tilemapping"
)

// ErrTooManyDraws is returned by Generate when materializing every draw
// would exceed the memory budget. Use Each or All to stream instead.
var ErrTooManyDraws = errors.New("too many draws to materialize; stream them instead")

// DefaultMemoryFraction is the share of system memory Generate may use.
const DefaultMemoryFraction = 0.25

// generator is the backtracking state. buf is the draw under construction
// and is handed to fn directly, so fn must copy it to keep it.
type generator struct {
	counts []int
	buf    tilemapping.Draw
	fn     func(tilemapping.Draw) bool
}

func newGenerator(pop *tilemapping.Population, fn func(tilemapping.Draw) bool) *generator {
	return &generator{
		counts: pop.Counts(),
		buf:    make(tilemapping.Draw, pop.NumCategories()),
		fn:     fn,
	}
}

// gen assigns counts to categories idx and onward. It returns false once
// fn asks to stop.
func (g *generator) gen(idx, remaining int) bool {
	if remaining == 0 {
		for i := idx; i < len(g.buf); i++ {
			g.buf[i] = 0
		}
		return g.fn(g.buf)
	}
	if idx == len(g.counts) {
		return true
	}
	maxTake := min(remaining, g.counts[idx])
	for take := 0; take <= maxTake; take++ {
		g.buf[idx] = take
		if !g.gen(idx+1, remaining-take) {
			return false
		}
	}
	return true
}

func feasible(pop *tilemapping.Population, size int) bool {
	return size >= 0 && pop.NumCategories() > 0 && pop.Total() >= size
}

// Each calls fn with every draw of size tiles from pop, in a fixed order:
// categories in palette order, each taking ascending counts. The draw
// passed to fn is reused between calls. Returning false stops the
// enumeration.
func Each(pop *tilemapping.Population, size int, fn func(tilemapping.Draw) bool) {
	if !feasible(pop, size) {
		return
	}
	newGenerator(pop, fn).gen(0, size)
}

// All is Each as an iterator.
func All(pop *tilemapping.Population, size int) iter.Seq[tilemapping.Draw] {
	return func(yield func(tilemapping.Draw) bool) {
		Each(pop, size, yield)
	}
}

// Branches returns the possible counts for the first category. Each value
// identifies an independent slice of the enumeration.
func Branches(pop *tilemapping.Population, size int) []int {
	if !feasible(pop, size) {
		return nil
	}
	maxTake := min(size, pop.Count(0))
	branches := make([]int, 0, maxTake+1)
	for take := 0; take <= maxTake; take++ {
		branches = append(branches, take)
	}
	return branches
}

// EachInBranch enumerates only the draws whose first category count is
// first. Running it over every value from Branches visits exactly the
// draws Each visits, in the same order.
func EachInBranch(pop *tilemapping.Population, size, first int, fn func(tilemapping.Draw) bool) {
	if !feasible(pop, size) || first < 0 || first > min(size, pop.Count(0)) {
		return
	}
	g := newGenerator(pop, fn)
	g.buf[0] = first
	g.gen(1, size-first)
}

// fallbackMemory stands in for system memory where it cannot be queried.
const fallbackMemory = 1 << 30

var totalMemory = memory.TotalMemory

// MaxMaterialized is how many draws of the given category count fit in
// fraction of system memory.
func MaxMaterialized(categories int, fraction float64) int {
	total := totalMemory()
	if total == 0 {
		total = fallbackMemory
	}
	// slice header plus the backing array
	perDraw := uint64(24 + 8*categories)
	n := uint64(fraction * float64(total) / float64(perDraw))
	if n > uint64(int(^uint(0)>>1)) {
		return int(^uint(0) >> 1)
	}
	return int(n)
}

// Generate returns every draw as an independent copy. It refuses when the
// upper bound on the number of draws does not fit in a quarter of system
// memory.
func Generate(pop *tilemapping.Population, size int) ([]tilemapping.Draw, error) {
	return GenerateWithBudget(pop, size, DefaultMemoryFraction)
}

// GenerateWithBudget is Generate with an explicit memory fraction.
func GenerateWithBudget(pop *tilemapping.Population, size int, fraction float64) ([]tilemapping.Draw, error) {
	if !feasible(pop, size) {
		return nil, nil
	}
	bound := combinatorics.NumDraws(pop.NumCategories(), size)
	limit := MaxMaterialized(pop.NumCategories(), fraction)
	if bound > limit {
		log.Debug().Int("bound", bound).Int("limit", limit).Msg("refusing-to-materialize")
		return nil, ErrTooManyDraws
	}
	draws := make([]tilemapping.Draw, 0, bound)
	Each(pop, size, func(d tilemapping.Draw) bool {
		draws = append(draws, d.Copy())
		return true
	})
	return draws, nil
}
