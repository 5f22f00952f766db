package session

import (
	"math"

	"github.com/samber/lo"

	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/stats"
)

// SummaryConfidence is the confidence level, in percent, of the surprisal
// interval.
const SummaryConfidence = 95

// ClassSummary compares how often a class was expected against how often it
// happened.
type ClassSummary struct {
	Class classifier.OutcomeClass
	// Expected is the sum of the class's pre-draw probabilities.
	Expected float64
	Observed int
}

// Summary describes a session's recorded rounds as a whole.
type Summary struct {
	Rounds  int
	Classes []ClassSummary
	// Surprisal is over the rounds whose draw was possible, in bits.
	Surprisal  stats.Statistic
	IntervalLo float64
	IntervalHi float64
	// Surprisals lists each round's surprisal, +Inf for impossible draws.
	Surprisals []float64
	Impossible int
	Mismatched int
}

// Summary totals the recorded rounds.
func (d *Driver) Summary() Summary {
	s := Summary{Rounds: len(d.results)}
	expected := map[classifier.OutcomeClass]float64{}
	observed := map[classifier.OutcomeClass]int{}
	for _, r := range d.results {
		for c, p := range r.Distribution {
			expected[c] += p
		}
		observed[r.Class]++
		if r.SizeMismatch {
			s.Mismatched++
		}
		bits := stats.Surprisal(r.Probability)
		s.Surprisals = append(s.Surprisals, bits)
		if math.IsInf(bits, 1) {
			s.Impossible++
			continue
		}
		s.Surprisal.Push(bits)
	}
	classes := classifier.KnownClasses
	if expected[classifier.Unknown] > 0 || observed[classifier.Unknown] > 0 {
		classes = classifier.AllClasses
	}
	s.Classes = lo.Map(classes, func(c classifier.OutcomeClass, _ int) ClassSummary {
		return ClassSummary{Class: c, Expected: expected[c], Observed: observed[c]}
	})
	s.IntervalLo, s.IntervalHi = s.Surprisal.Interval(SummaryConfidence)
	return s
}
