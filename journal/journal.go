// Package journal persists and renders backtest results: the trade
// ledger, the equity series and the metrics record.
package journal

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/backtest"
)

// TradeRecord is one closed trade as written to a journal.
type TradeRecord struct {
	RunID       string
	TradeID     int
	Symbol      string
	Side        string
	Size        int64
	EntryDate   time.Time
	EntryPrice  float64
	EntrySignal string
	ExitDate    time.Time
	ExitPrice   float64
	ExitSignal  string
	DollarBasis float64
	Duration    int
	Stop        float64
	Value       float64
	Return      float64
	CumPnL      float64
}

// EquitySnapshot is one bar of the equity series. Entry and exit columns
// are empty unless the event happened on that date.
type EquitySnapshot struct {
	RunID        string
	Date         time.Time
	Close        float64
	EntryPrice   *float64
	EntrySignal  string
	ExitPrice    *float64
	ExitSignal   string
	HasPosition  bool
	Position     int64
	Stop         float64
	MarkToMarket float64
	Wallet       float64
	Equity       float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// NewTradeRecord converts a closed trade.
func NewTradeRecord(runID, symbol string, t backtest.Trade) (TradeRecord, error) {
	if t.Exit == nil {
		return TradeRecord{}, fmt.Errorf("trade %d is still open", t.ID)
	}
	return TradeRecord{
		RunID:       runID,
		TradeID:     t.ID,
		Symbol:      symbol,
		Side:        t.Side().String(),
		Size:        t.Size,
		EntryDate:   t.EntryDate,
		EntryPrice:  t.EntryPrice,
		EntrySignal: t.EntrySignal,
		ExitDate:    t.Exit.Date,
		ExitPrice:   t.Exit.Price,
		ExitSignal:  t.Exit.Signal,
		DollarBasis: t.DollarBasis,
		Duration:    t.Duration,
		Stop:        t.Stop,
		Value:       t.Exit.Value,
		Return:      t.Exit.Return,
		CumPnL:      t.Exit.CumPnL,
	}, nil
}

func NewEquitySnapshot(runID string, s backtest.Snapshot) EquitySnapshot {
	e := EquitySnapshot{
		RunID:        runID,
		Date:         s.Date,
		Close:        s.Close,
		HasPosition:  s.HasPosition,
		Position:     s.Position,
		Stop:         s.Stop,
		MarkToMarket: s.MarkToMarket,
		Wallet:       s.Wallet,
		Equity:       s.Equity,
	}
	if s.Entry != nil {
		p := s.Entry.Price
		e.EntryPrice, e.EntrySignal = &p, s.Entry.Signal
	}
	if s.Exit != nil {
		p := s.Exit.Price
		e.ExitPrice, e.ExitSignal = &p, s.Exit.Signal
	}
	return e
}

// Record writes a whole run to j: every closed trade, then every snapshot.
func Record(j Journal, runID string, r *backtest.Result) error {
	for _, t := range r.Trades {
		rec, err := NewTradeRecord(runID, r.Contract.Symbol, t)
		if err != nil {
			return err
		}
		if err := j.RecordTrade(rec); err != nil {
			return fmt.Errorf("record trade %d: %w", t.ID, err)
		}
	}
	for _, s := range r.Series {
		if err := j.RecordEquity(NewEquitySnapshot(runID, s)); err != nil {
			return fmt.Errorf("record equity %s: %w", s.Date.Format(time.DateOnly), err)
		}
	}
	return nil
}

// fixed rounds half away from zero. decimal panics on NaN and Inf, so
// those are spelled out.
func fixed(x float64, places int32) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "+Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}

// money rounds currency to cents.
func money(x float64) string { return fixed(x, 2) }

// price keeps four decimals, enough for the smallest tick in use.
func price(x float64) string { return fixed(x, 4) }

func ratio(x float64) string { return fixed(x, 6) }

func optPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return price(*p)
}

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}
