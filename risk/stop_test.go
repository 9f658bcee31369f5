package risk

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
)

type fixedVol struct {
	v  float64
	ok bool
}

func (f fixedVol) Volatility() (float64, bool) { return f.v, f.ok }

func TestTrailingStop_LongRatchet(t *testing.T) {
	t.Parallel()

	s := NewTrailingStop(2.5, 0.30)
	vol := fixedVol{v: 2, ok: true}

	stop := s.Initialize(Long, 100, vol)
	assert.InDelta(t, 95.0, stop, 1e-12)
	assert.True(t, s.Active())

	stop = s.Maintain(market.Bar{High: 102, Low: 99}, stop, vol)
	assert.InDelta(t, 97.0, stop, 1e-12)

	// A lower high does not move the anchor and the stop never loosens.
	stop = s.Maintain(market.Bar{High: 98, Low: 90}, stop, vol)
	assert.InDelta(t, 97.0, stop, 1e-12)
	assert.Equal(t, 102.0, s.Anchor())

	// Rising volatility widens the candidate, the stop holds.
	stop = s.Maintain(market.Bar{High: 101, Low: 96}, stop, fixedVol{v: 4, ok: true})
	assert.InDelta(t, 97.0, stop, 1e-12)
}

func TestTrailingStop_Short(t *testing.T) {
	t.Parallel()

	s := NewTrailingStop(2.5, 0.30)
	vol := fixedVol{v: 2, ok: true}

	stop := s.Initialize(Short, 100, vol)
	assert.InDelta(t, 105.0, stop, 1e-12)

	stop = s.Maintain(market.Bar{High: 101, Low: 97}, stop, vol)
	assert.InDelta(t, 102.0, stop, 1e-12)

	stop = s.Maintain(market.Bar{High: 110, Low: 99}, stop, vol)
	assert.InDelta(t, 102.0, stop, 1e-12)
	assert.Equal(t, 97.0, s.Anchor())
}

func TestTrailingStop_Fallback(t *testing.T) {
	t.Parallel()

	s := NewTrailingStop(0, 0)
	assert.Equal(t, DefaultStopMultiplier, s.Multiplier)
	assert.Equal(t, DefaultStopFallbackPct, s.FallbackPct)

	assert.InDelta(t, 70.0, s.Initialize(Long, 100, nil), 1e-12)
	assert.InDelta(t, 70.0, s.Initialize(Long, 100, fixedVol{ok: false}), 1e-12)
	assert.InDelta(t, 130.0, s.Initialize(Short, 100, fixedVol{ok: false}), 1e-12)

	s.Reset()
	assert.False(t, s.Active())
}

func TestTrailingStop_Monotonic(t *testing.T) {
	t.Parallel()

	highs := []float64{101, 99, 104, 103, 108, 100, 95, 109}
	vols := []float64{2, 3, 1, 5, 2, 0.5, 6, 1}

	s := NewTrailingStop(2.5, 0.3)
	stop := s.Initialize(Long, 100, fixedVol{v: 2, ok: true})
	for i, h := range highs {
		next := s.Maintain(market.Bar{High: h, Low: h - 3}, stop, fixedVol{v: vols[i], ok: true})
		assert.GreaterOrEqual(t, next, stop, "bar %d", i)
		stop = next
	}
}
