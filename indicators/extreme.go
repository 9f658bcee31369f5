package indicators

import "math"

// Extreme tracks the highest and lowest value pushed since the last reset.
type Extreme struct {
	highest float64
	lowest  float64
	count   int
}

func NewExtreme() *Extreme {
	e := &Extreme{}
	e.Reset()
	return e
}

func (e *Extreme) Reset() {
	e.highest = math.Inf(-1)
	e.lowest = math.Inf(1)
	e.count = 0
}

func (e *Extreme) Push(x float64) {
	if x > e.highest {
		e.highest = x
	}
	if x < e.lowest {
		e.lowest = x
	}
	e.count++
}

func (e *Extreme) Highest() float64 { return e.highest }
func (e *Extreme) Lowest() float64  { return e.lowest }
func (e *Extreme) Count() int       { return e.count }
