package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/indicators"
)

// Anchor buys the open after a close below the week's first bar, unless
// today is the last trading day of the week.
//
// Settings: StDev, duration, exit_order.
type Anchor struct {
	signal
	anchor *indicators.WeeklyAnchor
}

func NewAnchor(s config.Settings) (*Anchor, error) {
	sig, err := newSignal("anchor", s, 0)
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}
	return &Anchor{signal: sig, anchor: indicators.NewWeeklyAnchor(20)}, nil
}

func (a *Anchor) OnAnalytics(ctx *backtest.Context) error {
	a.anchor.Push(ctx.Bar)
	return a.signal.OnAnalytics(ctx)
}

func (a *Anchor) OnOpenEntry(ctx *backtest.Context) error {
	v, ok := a.anchor.ValueAt(0)
	if !ok || v.Breakout >= 0 {
		return nil
	}
	if ctx.Calendar().IsEndOfWeek(ctx.Date()) {
		return nil
	}
	return a.buyOpen(ctx, "LEX")
}
