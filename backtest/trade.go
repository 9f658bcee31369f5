package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

// Trade is one position from entry to exit. Exit is nil while the trade
// is open and is filled exactly once when it closes.
type Trade struct {
	ID          int
	EntryDate   time.Time
	EntryPrice  float64
	Size        int64   // +long, -short
	DollarBasis float64 // |Size| * basis at entry
	Duration    int     // bars held
	EntrySignal string
	Stop        float64 // only ever tightens

	Exit *TradeExit
}

type TradeExit struct {
	Date   time.Time
	Price  float64
	Signal string
	Value  float64 // realized, account currency
	Return float64 // Value / DollarBasis
	CumPnL float64 // running realized P&L including this trade
}

func (t *Trade) Side() risk.Side {
	if t.Size < 0 {
		return risk.Short
	}
	return risk.Long
}

func (t *Trade) Closed() bool { return t.Exit != nil }

// MarkToMarket values the position at price without realizing anything.
func (t *Trade) MarkToMarket(c market.ContractSpec, price float64) float64 {
	return c.Value(t.EntryPrice, price, t.Size)
}

// Ledger is the append-only list of closed trades in closing order.
type Ledger struct {
	trades []Trade
}

func (l *Ledger) append(t Trade) {
	l.trades = append(l.trades, t)
}

// Trades returns a copy of the closed trades.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) Len() int { return len(l.trades) }

// Realized sums the realized value of all closed trades.
func (l *Ledger) Realized() float64 {
	sum := 0.0
	for _, t := range l.trades {
		sum += t.Exit.Value
	}
	return sum
}
