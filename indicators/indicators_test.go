package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSeries(t *testing.T) {
	t.Parallel()

	s := NewDataSeries[int](3)
	_, ok := s.ValueAt(0)
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		s.Push(i)
	}
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 5, s.Seen())

	for lag, want := range []int{5, 4, 3} {
		v, ok := s.ValueAt(lag)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok = s.ValueAt(3)
	assert.False(t, ok)
	_, ok = s.ValueAt(-1)
	assert.False(t, ok)

	s.Reset()
	assert.Equal(t, 0, s.Count())
}

func TestStDev(t *testing.T) {
	t.Parallel()

	s := NewStDev(4)
	assert.Equal(t, "StDev(4)", s.Name())

	for _, x := range []float64{2, 4, 4} {
		s.Push(x)
	}
	_, ok := s.Volatility()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())

	s.Push(5)
	// mean 3.75, squared deviations 3.0625+0.0625+0.0625+1.5625 = 4.75
	want := math.Sqrt(4.75 / 3)
	v, ok := s.Volatility()
	require.True(t, ok)
	assert.InDelta(t, want, v, 1e-12)

	s.Push(5) // window 4,4,5,5
	v, _ = s.ValueAt(0)
	assert.InDelta(t, math.Sqrt(1.0/3), v, 1e-12)
	prev, ok := s.ValueAt(1)
	require.True(t, ok)
	assert.InDelta(t, want, prev, 1e-12)
}

func TestExtreme(t *testing.T) {
	t.Parallel()

	e := NewExtreme()
	for _, x := range []float64{100, 102, 99, 101} {
		e.Push(x)
	}
	assert.Equal(t, 102.0, e.Highest())
	assert.Equal(t, 99.0, e.Lowest())
	assert.Equal(t, 4, e.Count())

	e.Reset()
	assert.True(t, math.IsInf(e.Highest(), -1))
	assert.Equal(t, 0, e.Count())
}

func TestSMA(t *testing.T) {
	t.Parallel()

	m := NewSMA(3)
	assert.Equal(t, "SMA(3)", m.Name())
	m.Push(102)
	m.Push(105)
	assert.False(t, m.Ready())
	assert.Equal(t, 0.0, m.Value())

	m.Push(106)
	assert.InDelta(t, (102.0+105+106)/3, m.Value(), 1e-9)
	m.Push(108)
	assert.InDelta(t, (105.0+106+108)/3, m.Value(), 1e-9)

	m.Reset()
	assert.False(t, m.Ready())
}

func TestATR(t *testing.T) {
	t.Parallel()

	a := NewATR(2)
	bars := []market.Bar{
		{High: 10, Low: 9, Close: 9.5},
		{High: 11, Low: 9.5, Close: 10.5},  // TR 1.5
		{High: 10.8, Low: 10, Close: 10.2}, // TR 0.8
		{High: 12, Low: 10, Close: 11},     // TR 2.0
	}
	for _, b := range bars[:3] {
		a.Push(b)
	}
	v, ok := a.Volatility()
	require.True(t, ok)
	assert.InDelta(t, 1.15, v, 1e-9)

	a.Push(bars[3])
	assert.InDelta(t, (1.15+2.0)/2, a.Value(), 1e-9)
}

func TestWeeklyAnchor(t *testing.T) {
	t.Parallel()

	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	w := NewWeeklyAnchor(20)
	w.Push(market.Bar{Date: mon, High: 105, Low: 100, Close: 103})
	w.Push(market.Bar{Date: mon.AddDate(0, 0, 1), High: 104, Low: 98, Close: 99})
	w.Push(market.Bar{Date: mon.AddDate(0, 0, 2), High: 107, Low: 101, Close: 106})
	w.Push(market.Bar{Date: mon.AddDate(0, 0, 3), High: 105, Low: 101, Close: 102})

	want := []int{0, 1, -1, 0}
	for lag, b := range want {
		v, ok := w.ValueAt(lag)
		require.True(t, ok)
		assert.Equal(t, b, v.Breakout, "lag %d", lag)
		assert.Equal(t, mon, v.Anchor.Date)
	}

	// Next week's first bar becomes the new anchor.
	w.Push(market.Bar{Date: mon.AddDate(0, 0, 7), High: 90, Low: 80, Close: 85})
	v, _ := w.ValueAt(0)
	assert.Equal(t, mon.AddDate(0, 0, 7), v.Anchor.Date)
	assert.Equal(t, 0, v.Breakout)
}
