package strategies

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/calendar"
	"github.com/rustyeddy/backtester/config"
)

// Nday buys the open on a chosen weekday when the bar Offset days back
// closed below its open.
//
// Settings: weekday (MON..FRI), offset, StDev, duration, exit_order.
type Nday struct {
	signal
	Weekday string
	Offset  int
}

func NewNday(s config.Settings) (*Nday, error) {
	wd := strings.ToUpper(strings.TrimSpace(s.String("weekday", "")))
	if !slices.Contains(calendar.Weekdays[:], wd) {
		return nil, fmt.Errorf("nday: weekday must be one of %v, got %q", calendar.Weekdays, wd)
	}
	off := s.Int("offset", 0)
	if off < 0 {
		return nil, fmt.Errorf("nday: offset must not be negative, got %d", off)
	}
	sig, err := newSignal("nday", s, off+1)
	if err != nil {
		return nil, fmt.Errorf("nday: %w", err)
	}
	return &Nday{signal: sig, Weekday: wd, Offset: off}, nil
}

func (n *Nday) OnOpenEntry(ctx *backtest.Context) error {
	if n.bars.Count() <= n.Offset {
		return nil
	}
	if calendar.WeekdayName(ctx.Date()) != n.Weekday {
		return nil
	}
	prev, _ := n.bars.ValueAt(n.Offset)
	if prev.Close < prev.Open {
		return n.buyOpen(ctx, "NDAY")
	}
	return nil
}
