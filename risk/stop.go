package risk

import (
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

const (
	DefaultStopMultiplier  = 2.5
	DefaultStopFallbackPct = 0.30
)

// TrailingStop ratchets a protective level behind the running extreme of
// an open trade: the highest high for longs, the lowest low for shorts.
type TrailingStop struct {
	Multiplier  float64
	FallbackPct float64

	side    Side
	extreme *indicators.Extreme
}

func NewTrailingStop(multiplier, fallbackPct float64) *TrailingStop {
	if multiplier <= 0 {
		multiplier = DefaultStopMultiplier
	}
	if fallbackPct <= 0 || fallbackPct >= 1 {
		fallbackPct = DefaultStopFallbackPct
	}
	return &TrailingStop{
		Multiplier:  multiplier,
		FallbackPct: fallbackPct,
		extreme:     indicators.NewExtreme(),
	}
}

// Initialize starts tracking from the entry price and returns the first stop.
func (s *TrailingStop) Initialize(side Side, entry float64, vol indicators.Volatility) float64 {
	s.side = side
	s.extreme.Reset()
	s.extreme.Push(entry)
	return s.StopFrom(s.Anchor(), vol)
}

// Anchor is the running extreme the stop trails.
func (s *TrailingStop) Anchor() float64 {
	if s.side == Short {
		return s.extreme.Lowest()
	}
	return s.extreme.Highest()
}

// StopFrom computes a stop from an anchor price. Without a volatility
// estimate it falls back to a fixed percentage of the anchor.
func (s *TrailingStop) StopFrom(anchor float64, vol indicators.Volatility) float64 {
	if vol != nil {
		if v, ok := vol.Volatility(); ok && !math.IsNaN(v) {
			if s.side == Short {
				return anchor + v*s.Multiplier
			}
			return anchor - v*s.Multiplier
		}
	}
	if s.side == Short {
		return anchor * (1 + s.FallbackPct)
	}
	return anchor * (1 - s.FallbackPct)
}

// Maintain pushes the bar into the tracker and returns the tighter of prev
// and the new candidate. The stop never loosens.
func (s *TrailingStop) Maintain(b market.Bar, prev float64, vol indicators.Volatility) float64 {
	if s.side == Short {
		s.extreme.Push(b.Low)
		return math.Min(prev, s.StopFrom(s.Anchor(), vol))
	}
	s.extreme.Push(b.High)
	return math.Max(prev, s.StopFrom(s.Anchor(), vol))
}

// Reset drops tracking state once the position is flat.
func (s *TrailingStop) Reset() {
	s.side = 0
	s.extreme.Reset()
}

// Active reports whether a trade is being tracked.
func (s *TrailingStop) Active() bool {
	return s.side != 0
}
