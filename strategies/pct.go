package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
)

// Pct buys the open after a close-to-close drop larger than Threshold.
//
// Settings: Threshold (e.g. -0.005), StDev, duration, exit_order.
type Pct struct {
	signal
	Threshold float64
}

func NewPct(s config.Settings) (*Pct, error) {
	sig, err := newSignal("pct", s, 2)
	if err != nil {
		return nil, fmt.Errorf("pct: %w", err)
	}
	return &Pct{signal: sig, Threshold: s.Float("Threshold", -0.005)}, nil
}

func (p *Pct) OnOpenEntry(ctx *backtest.Context) error {
	last, ok1 := p.closeAt(0)
	prev, ok2 := p.closeAt(1)
	if !ok1 || !ok2 || prev == 0 {
		return nil
	}
	if last/prev-1 < p.Threshold {
		return p.buyOpen(ctx, "PCT")
	}
	return nil
}
