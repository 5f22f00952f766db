package probability

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/bagodds/bagodds/cache"
	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/drawgen"
	"github.com/bagodds/bagodds/tilemapping"
)

type fataler interface {
	Fatal(args ...any)
}

func population(t fataler, counts ...int) *tilemapping.Population {
	labels := make([]string, len(counts))
	for i := range counts {
		labels[i] = fmt.Sprintf("C%d", i)
	}
	p, err := tilemapping.NewPalette(labels)
	if err != nil {
		t.Fatal(err)
	}
	pop, err := tilemapping.NewPopulation(p, counts)
	if err != nil {
		t.Fatal(err)
	}
	return pop
}

func azul(t fataler) *tilemapping.Population {
	return population(t, 20, 20, 20, 20, 20)
}

func TestCanonicalSingleColor(t *testing.T) {
	is := is.New(t)
	pop := azul(t)
	d := tilemapping.Draw{4, 0, 0, 0, 0}
	// C(4,20) / C(4,100) = 4845 / 3921225
	is.Equal(ExactRatio(pop, d, 4).Cmp(big.NewRat(4845, 3921225)), 0)
	is.Equal(ExactRatio(pop, d, 4).String(), "323/261415")
	assert.InDelta(t, 0.0012355833, ExactProbability(pop, d, 4), 1e-10)
}

func TestExactProbabilityCases(t *testing.T) {
	type tc struct {
		counts []int
		draw   tilemapping.Draw
		size   int
		exp    *big.Rat
	}
	cases := []tc{
		// C(2,20)^2 / C(4,100)
		{[]int{20, 20, 20, 20, 20}, tilemapping.Draw{2, 0, 2, 0, 0}, 4, big.NewRat(190*190, 3921225)},
		{[]int{20, 20, 20, 20, 20}, tilemapping.Draw{1, 1, 1, 1, 0}, 4, big.NewRat(160000, 3921225)},
		// not enough of the first color
		{[]int{3, 20, 20, 20, 20}, tilemapping.Draw{4, 0, 0, 0, 0}, 4, new(big.Rat)},
		// fewer tiles than a draw
		{[]int{1, 1, 1, 0, 0}, tilemapping.Draw{1, 1, 1, 0, 0}, 4, new(big.Rat)},
		// exactly a draw left
		{[]int{1, 1, 1, 1, 0}, tilemapping.Draw{1, 1, 1, 1, 0}, 4, big.NewRat(1, 1)},
		{[]int{2, 2}, tilemapping.Draw{0, 0}, 0, big.NewRat(1, 1)},
		// draw names a category the population lacks
		{[]int{5, 5}, tilemapping.Draw{1, 0, 1}, 2, new(big.Rat)},
		// short draws read missing categories as zero
		{[]int{5, 5}, tilemapping.Draw{2}, 2, big.NewRat(10, 45)},
	}
	for _, c := range cases {
		pop := population(t, c.counts...)
		got := ExactRatio(pop, c.draw, c.size)
		assert.Equal(t, 0, got.Cmp(c.exp), "counts %v draw %v: got %v want %v",
			c.counts, c.draw, got, c.exp)
	}
}

func TestAzulDistribution(t *testing.T) {
	is := is.New(t)
	ev := NewEvaluator(classifier.DefaultTable(), 100, 4)
	dist := ev.StateDistribution(azul(t), 4)

	is.Equal(len(dist), 4)
	_, hasUnknown := dist[classifier.Unknown]
	is.True(!hasUnknown)

	// 4,0,0,0,0 and 1,1,1,1,0 both count as Bad.
	assert.InDelta(t, 32969.0/156849, dist.Get(classifier.Bad), 1e-12)
	assert.InDelta(t, 6080.0/52283, dist.Get(classifier.Unfavorable), 1e-12)
	assert.InDelta(t, 14440.0/156849, dist.Get(classifier.Neutral), 1e-12)
	assert.InDelta(t, 30400.0/52283, dist.Get(classifier.Favorable), 1e-12)
	assert.InDelta(t, 1.0, dist.Total(), 1e-12)

	sorted := dist.Sorted()
	is.Equal(sorted[0].Class, classifier.Favorable)
	is.Equal(sorted[1].Class, classifier.Bad)
	is.Equal(sorted[2].Class, classifier.Unfavorable)
	is.Equal(sorted[3].Class, classifier.Neutral)
}

func TestDistributionTooFewTiles(t *testing.T) {
	is := is.New(t)
	ev := NewEvaluator(classifier.DefaultTable(), 100, 4)
	dist := ev.StateDistribution(population(t, 1, 0, 1, 0, 1), 4)
	is.Equal(len(dist), 4)
	for _, c := range classifier.KnownClasses {
		is.Equal(dist.Get(c), 0.0)
	}
	is.Equal(dist.Total(), 0.0)
}

func TestDistributionUnknown(t *testing.T) {
	is := is.New(t)
	// a five-category table cannot classify four-category shapes
	ev := NewEvaluator(classifier.DefaultTable(), 100, 4)
	dist := ev.StateDistribution(population(t, 10, 10, 10, 10), 4)
	is.Equal(len(dist), 5)
	is.Equal(dist.Get(classifier.Unknown), 1.0)
	is.Equal(dist.Get(classifier.Bad), 0.0)

	sorted := dist.Sorted()
	is.Equal(sorted[0].Class, classifier.Unknown)
	// zero entries keep class order
	is.Equal(sorted[1].Class, classifier.Bad)
	is.Equal(sorted[4].Class, classifier.Favorable)
}

func TestSortedTiesKeepClassOrder(t *testing.T) {
	is := is.New(t)
	d := Distribution{
		classifier.Bad:         0.25,
		classifier.Unfavorable: 0.25,
		classifier.Neutral:     0.25,
		classifier.Favorable:   0.25,
	}
	sorted := d.Sorted()
	for i, c := range classifier.KnownClasses {
		is.Equal(sorted[i].Class, c)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	is := is.New(t)
	pop := population(t, 17, 3, 20, 9, 14)
	seq := NewEvaluator(classifier.DefaultTable(), 100, 4)
	par := NewEvaluator(classifier.DefaultTable(), 100, 4)
	par.SetThreads(4)

	a := seq.StateDistribution(pop, 4)
	b, err := par.StateDistributionContext(context.Background(), pop, 4)
	is.NoErr(err)
	is.Equal(a, b)
}

func TestCancelled(t *testing.T) {
	is := is.New(t)
	// large enough that every branch checks the context at least once
	counts := make([]int, 8)
	for i := range counts {
		counts[i] = 40
	}
	pop := population(t, counts...)
	ev := NewEvaluator(classifier.DefaultTable(), 320, 12)
	ev.SetThreads(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ev.StateDistributionContext(ctx, pop, 12)
	is.Equal(err, context.Canceled)
}

func TestCache(t *testing.T) {
	is := is.New(t)
	ev := NewEvaluator(classifier.DefaultTable(), 100, 4)
	c := cache.New[uint64, Distribution]()
	ev.SetCache(c)

	pop := azul(t)
	a := ev.StateDistribution(pop, 4)
	a[classifier.Bad] = 99 // callers get copies
	b := ev.StateDistribution(pop, 4)
	is.True(b.Get(classifier.Bad) < 1)
	is.Equal(c.Len(), 1)
	hits, misses := c.Stats()
	is.Equal(hits, 1)
	is.Equal(misses, 1)

	ev.StateDistribution(population(t, 19, 20, 20, 20, 20), 4)
	is.Equal(c.Len(), 2)
}

func TestEvaluatorLargeBag(t *testing.T) {
	is := is.New(t)
	pop := population(t, 1000, 1000, 1000, 1000, 1000)
	ev := NewEvaluator(classifier.DefaultTable(), pop.Total(), 4)
	ev.SetThreads(2)
	dist := ev.StateDistribution(pop, 4)
	assert.InDelta(t, 1.0, dist.Total(), 1e-9)
	d := tilemapping.Draw{4, 0, 0, 0, 0}
	is.Equal(ev.ExactProbability(pop, d, 4), ExactProbability(pop, d, 4))
	// a draw size beyond the precomputed rows is computed on demand
	d = tilemapping.Draw{3, 3, 0, 0, 0}
	is.Equal(ev.ExactProbability(pop, d, 6), ExactProbability(pop, d, 6))
}

func TestEvaluatorProbabilityMatchesPackage(t *testing.T) {
	is := is.New(t)
	ev := NewEvaluator(classifier.DefaultTable(), 100, 4)
	pop := population(t, 12, 8, 20, 15, 3)
	for d := range drawgen.All(pop, 4) {
		is.Equal(ev.ExactProbability(pop, d, 4), ExactProbability(pop, d, 4))
	}
}

func TestPropertyDistributionSumsToOne(t *testing.T) {
	table := classifier.DefaultTable()
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.SliceOfN(rapid.IntRange(0, 20), 5, 5).Draw(t, "counts")
		pop := population(t, counts...)
		ev := NewEvaluator(table, 100, 4)
		ev.SetThreads(rapid.IntRange(1, 4).Draw(t, "threads"))
		dist := ev.StateDistribution(pop, 4)

		if len(dist) != len(classifier.KnownClasses) {
			t.Fatalf("distribution %v lacks a known class or has Unknown", dist)
		}
		sum := dist.Total()
		if pop.Total() >= 4 {
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("distribution for %v sums to %v", counts, sum)
			}
		} else if sum != 0 {
			t.Fatalf("distribution for %v should be empty, sums to %v", counts, sum)
		}
	})
}

func TestPropertyDrawProbabilitiesSumToOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.SliceOfN(rapid.IntRange(0, 10), 1, 5).Draw(t, "counts")
		size := rapid.IntRange(0, 6).Draw(t, "size")
		pop := population(t, counts...)
		exp := big.NewRat(1, 1)
		if pop.Total() < size {
			exp = new(big.Rat)
		}
		sum := new(big.Rat)
		for d := range drawgen.All(pop, size) {
			sum.Add(sum, ExactRatio(pop, d, size))
		}
		if sum.Cmp(exp) != 0 {
			t.Fatalf("draw probabilities for %v size %d sum to %v", counts, size, sum)
		}
	})
}
