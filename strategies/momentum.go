package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
)

// Momentum buys the open when the Length-day return is below Threshold.
//
// Settings: Length, Threshold (e.g. -0.02), StDev, duration, exit_order.
type Momentum struct {
	signal
	Length    int
	Threshold float64
}

func NewMomentum(s config.Settings) (*Momentum, error) {
	n := s.Int("Length", 3)
	if n < 1 {
		return nil, fmt.Errorf("momentum: Length must be positive, got %d", n)
	}
	sig, err := newSignal("momentum", s, n+1)
	if err != nil {
		return nil, fmt.Errorf("momentum: %w", err)
	}
	return &Momentum{signal: sig, Length: n, Threshold: s.Float("Threshold", -0.02)}, nil
}

func (m *Momentum) OnOpenEntry(ctx *backtest.Context) error {
	if m.bars.Count() <= m.Length {
		return nil
	}
	last, _ := m.closeAt(0)
	base, _ := m.closeAt(m.Length)
	if base == 0 {
		return nil
	}
	if last/base-1 < m.Threshold {
		return m.buyOpen(ctx, "MO")
	}
	return nil
}
