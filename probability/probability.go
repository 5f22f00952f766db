// Package probability computes exact hypergeometric probabilities for draws
// from a population, and the distribution of outcome classes over every
// possible draw.
package probability

import (
	"math/big"

	"github.com/bagodds/bagodds/combinatorics"
	"github.com/bagodds/bagodds/tilemapping"
)

// chooser is satisfied by *combinatorics.ChooseTable.
type chooser interface {
	Choose(k, n int) *big.Int
}

type plainChooser struct{}

func (plainChooser) Choose(k, n int) *big.Int {
	return combinatorics.Choose(k, n)
}

// ExactRatio returns the probability of drawing exactly d when drawSize
// tiles are drawn from pop, as an exact fraction:
//
//	prod over categories of C(d[c], pop[c]) / C(drawSize, pop.Total())
//
// The draw is evaluated as given even if its total is not drawSize. The
// result is 0 when the population holds fewer than drawSize tiles.
func ExactRatio(pop *tilemapping.Population, d tilemapping.Draw, drawSize int) *big.Rat {
	return exactRatio(plainChooser{}, pop, d, drawSize)
}

// ExactProbability is ExactRatio converted to the nearest float64.
func ExactProbability(pop *tilemapping.Population, d tilemapping.Draw, drawSize int) float64 {
	f, _ := ExactRatio(pop, d, drawSize).Float64()
	return f
}

func exactRatio(ch chooser, pop *tilemapping.Population, d tilemapping.Draw, drawSize int) *big.Rat {
	total := pop.Total()
	if drawSize < 0 || total < drawSize {
		return new(big.Rat)
	}
	den := ch.Choose(drawSize, total)
	if den.Sign() == 0 {
		return new(big.Rat)
	}
	num := numerator(ch, pop, d, new(big.Int))
	return new(big.Rat).SetFrac(num, den)
}

// numerator writes the product of per-category binomials into z. Draw
// entries past the population's categories must be zero or the product is
// zero.
func numerator(ch chooser, pop *tilemapping.Population, d tilemapping.Draw, z *big.Int) *big.Int {
	for i := pop.NumCategories(); i < len(d); i++ {
		if d[i] != 0 {
			return z.SetInt64(0)
		}
	}
	z.SetInt64(1)
	for i := 0; i < pop.NumCategories(); i++ {
		c := ch.Choose(d.CountOf(i), pop.Count(i))
		if c.Sign() == 0 {
			return z.SetInt64(0)
		}
		z.Mul(z, c)
	}
	return z
}
