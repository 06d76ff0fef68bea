package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		diffs []int
		mean  float64
		stdev float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{-1}, -1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, d := range c.diffs {
			s.Push(float64(d))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Iterations(), len(c.diffs))
	}
}

func TestMerge(t *testing.T) {
	is := is.New(t)
	vals := []float64{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}
	all := &Statistic{}
	for _, v := range vals {
		all.Push(v)
	}
	for split := 0; split <= len(vals); split++ {
		a, b := &Statistic{}, &Statistic{}
		for _, v := range vals[:split] {
			a.Push(v)
		}
		for _, v := range vals[split:] {
			b.Push(v)
		}
		a.Merge(b)
		is.Equal(a.Iterations(), all.Iterations())
		is.True(FuzzyEqual(a.Mean(), all.Mean()))
		is.True(FuzzyEqual(a.Variance(), all.Variance()))
	}
}

func TestConfidenceInterval(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.959963984540054))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035489))
	s := &Statistic{}
	for _, v := range []float64{10, 12, 23, 23, 16, 23, 21, 16} {
		s.Push(v)
	}
	lo, hi := s.ConfidenceInterval(95)
	is.True(lo < s.Mean() && s.Mean() < hi)
	is.True(FuzzyEqual(hi-s.Mean(), 1.959963984540054*s.StandardError()))
}
