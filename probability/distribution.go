package probability

import (
	"cmp"
	"maps"
	"slices"

	"github.com/samber/lo"

	"github.com/bagodds/bagodds/classifier"
)

// Distribution is the probability of each outcome class on the next draw.
// Every known class is present, possibly with 0. Unknown is present only
// when some possible draw has an unclassified shape.
type Distribution map[classifier.OutcomeClass]float64

// ClassProbability is one entry of a sorted distribution.
type ClassProbability struct {
	Class       classifier.OutcomeClass
	Probability float64
}

func emptyDistribution() Distribution {
	d := make(Distribution, len(classifier.AllClasses))
	for _, c := range classifier.KnownClasses {
		d[c] = 0
	}
	return d
}

// Get returns the probability of class c.
func (d Distribution) Get(c classifier.OutcomeClass) float64 {
	return d[c]
}

// Total sums the distribution, which is 1 unless the population could not
// fill a draw.
func (d Distribution) Total() float64 {
	return lo.SumBy(classifier.AllClasses, func(c classifier.OutcomeClass) float64 {
		return d[c]
	})
}

// Sorted returns the classes by descending probability. Ties keep class
// order.
func (d Distribution) Sorted() []ClassProbability {
	present := lo.Filter(classifier.AllClasses, func(c classifier.OutcomeClass, _ int) bool {
		_, ok := d[c]
		return ok
	})
	out := lo.Map(present, func(c classifier.OutcomeClass, _ int) ClassProbability {
		return ClassProbability{Class: c, Probability: d[c]}
	})
	slices.SortStableFunc(out, func(a, b ClassProbability) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
	return out
}

// Copy returns an independent distribution.
func (d Distribution) Copy() Distribution {
	return maps.Clone(d)
}
