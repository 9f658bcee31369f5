package indicators

import (
	"fmt"
	"math"
)

// StDev is the rolling sample standard deviation (n-1) of the last
// SampleSize pushed values.
type StDev struct {
	size    int
	window  *DataSeries[float64]
	derived *DataSeries[float64]
}

func NewStDev(sampleSize int) *StDev {
	if sampleSize < 2 {
		sampleSize = 2
	}
	return &StDev{
		size:    sampleSize,
		window:  NewDataSeries[float64](sampleSize),
		derived: NewDataSeries[float64](sampleSize),
	}
}

func (s *StDev) Name() string { return fmt.Sprintf("StDev(%d)", s.size) }
func (s *StDev) Warmup() int  { return s.size }
func (s *StDev) Ready() bool  { return s.window.Count() >= s.size }

func (s *StDev) Reset() {
	s.window.Reset()
	s.derived.Reset()
}

// Push adds a sample. Once warm, each push appends a derived value.
func (s *StDev) Push(x float64) {
	s.window.Push(x)
	if s.Ready() {
		s.derived.Push(s.compute())
	}
}

// Count is the number of derived values available.
func (s *StDev) Count() int { return s.derived.Count() }

// ValueAt returns the standard deviation computed lag pushes ago.
func (s *StDev) ValueAt(lag int) (float64, bool) {
	return s.derived.ValueAt(lag)
}

func (s *StDev) Value() float64 {
	v, _ := s.derived.ValueAt(0)
	return v
}

func (s *StDev) Volatility() (float64, bool) {
	return s.derived.ValueAt(0)
}

func (s *StDev) compute() float64 {
	n := s.window.Count()
	mean := 0.0
	for i := 0; i < n; i++ {
		v, _ := s.window.ValueAt(i)
		mean += v
	}
	mean /= float64(n)

	ss := 0.0
	for i := 0; i < n; i++ {
		v, _ := s.window.ValueAt(i)
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(n-1))
}
