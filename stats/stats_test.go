package stats

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		vals  []float64
		mean  float64
		stdev float64
		min   float64
		max   float64
	}
	cases := []tc{
		{[]float64{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638, 10, 23},
		{[]float64{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891, 10, 124},
		{[]float64{1}, 1, 0, 1, 1},
		{[]float64{}, 0, 0, 0, 0},
		{[]float64{1, 1}, 1, 0, 1, 1},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, v := range c.vals {
			s.Push(v)
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Min(), c.min)
		is.Equal(s.Max(), c.max)
		is.Equal(s.Iterations(), len(c.vals))
	}
}

func TestSurprisal(t *testing.T) {
	is := is.New(t)
	is.Equal(Surprisal(1), 0.0)
	is.Equal(Surprisal(0.5), 1.0)
	is.Equal(Surprisal(0.125), 3.0)
	is.True(math.IsInf(Surprisal(0), 1))
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(math.Abs(ZVal(95)-1.959964) < 1e-5)
	is.True(math.Abs(ZVal(99)-2.575829) < 1e-5)
}

func TestInterval(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(v)
	}
	lo, hi := s.Interval(95)
	is.True(FuzzyEqual((lo+hi)/2, 5))
	is.True(FuzzyEqual(hi-lo, 2*ZVal(95)*s.StandardError()))

	empty := &Statistic{}
	lo, hi = empty.Interval(95)
	is.Equal(lo, 0.0)
	is.Equal(hi, 0.0)
}
