package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/calendar"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

// 2024-01-01 is a Monday.
func date(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func bar(d int, o, h, l, c float64) market.Bar {
	return market.Bar{Date: date(d), Open: o, High: h, Low: l, Close: c}
}

func runStrategy(t *testing.T, s backtest.Strategy, bars []market.Bar) *backtest.Result {
	t.Helper()
	spy, _ := market.Lookup("SPY")
	e, err := backtest.NewEngine(backtest.Config{
		Contract: spy,
		Account:  risk.Account{Wallet: 10000, AllocPct: 1, BorrowMarginPct: 1},
		Limits:   risk.Limits{PositionLimit: 100000, DollarLimit: 1e8},
		Calendar: calendar.NYSE(2023, 2025),
	})
	require.NoError(t, err)
	res, err := e.Run(context.Background(), market.NewSliceFeed(bars), s)
	require.NoError(t, err)
	return res
}

// exitHarness buys the first close and leaves through CloseExits.
type exitHarness struct {
	backtest.Base
	exits CloseExits
}

func (h *exitHarness) OnCloseEntry(ctx *backtest.Context) error {
	if ctx.Index == 0 {
		_, err := ctx.Enter(risk.Long, ctx.Bar.Close, "BUY")
		return err
	}
	return nil
}

func (h *exitHarness) OnCloseExit(ctx *backtest.Context) error { return h.exits.Check(ctx) }

func TestCloseExits(t *testing.T) {
	tests := []struct {
		name     string
		order    []ExitRule
		duration int
		bars     []market.Bar
		label    string
		exitDay  time.Time
	}{
		{
			name:  "profit at close",
			order: DefaultExitOrder,
			bars:  []market.Bar{bar(0, 100, 100, 100, 100), bar(1, 100, 102, 99, 101)},
			label: "PNL", exitDay: date(1),
		},
		{
			name:     "held past duration",
			order:    DefaultExitOrder,
			duration: 2,
			bars: []market.Bar{
				bar(0, 100, 100, 100, 100),
				bar(1, 99, 99, 99, 99), bar(2, 99, 99, 99, 99),
				bar(3, 99, 99, 99, 99), bar(4, 99, 99, 99, 99),
			},
			label: "EXPIRY", exitDay: date(4),
		},
		{
			name:  "close through the stop",
			order: DefaultExitOrder,
			bars:  []market.Bar{bar(0, 100, 100, 100, 100), bar(1, 80, 80, 60, 60)},
			label: "STOP_OUT", exitDay: date(1),
		},
		{
			name:  "profit wins by default when both hit",
			order: DefaultExitOrder,
			bars: []market.Bar{
				bar(0, 100, 100, 100, 100),
				bar(1, 100, 200, 100, 100), // ratchets the stop to 140
				bar(2, 130, 130, 130, 130),
			},
			label: "PNL", exitDay: date(2),
		},
		{
			name:  "stop first when ordered first",
			order: []ExitRule{ExitStop, ExitPNL, ExitExpiry},
			bars: []market.Bar{
				bar(0, 100, 100, 100, 100),
				bar(1, 100, 200, 100, 100),
				bar(2, 130, 130, 130, 130),
			},
			label: "STOP_OUT", exitDay: date(2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &exitHarness{exits: CloseExits{Duration: tt.duration, Order: tt.order}}
			res := runStrategy(t, h, tt.bars)

			require.Len(t, res.Trades, 1)
			ex := res.Trades[0].Exit
			assert.Equal(t, tt.label, ex.Signal)
			assert.Equal(t, tt.exitDay, ex.Date)
		})
	}
}

func TestCloseExits_ExpiryDuration(t *testing.T) {
	h := &exitHarness{exits: CloseExits{Duration: 2, Order: DefaultExitOrder}}
	bars := []market.Bar{bar(0, 100, 100, 100, 100)}
	for d := 1; d <= 4; d++ {
		bars = append(bars, bar(d, 99, 99, 99, 99))
	}
	res := runStrategy(t, h, bars)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, 3, res.Trades[0].Duration)
}

func TestParseExitOrder(t *testing.T) {
	order, err := ParseExitOrder("stop_out, PNL,EXPIRY")
	require.NoError(t, err)
	assert.Equal(t, []ExitRule{ExitStop, ExitPNL, ExitExpiry}, order)

	order, err = ParseExitOrder("EXPIRY")
	require.NoError(t, err)
	assert.Equal(t, []ExitRule{ExitExpiry}, order)

	_, err = ParseExitOrder("PNL,TARGET")
	assert.Error(t, err)
	_, err = ParseExitOrder("PNL,PNL")
	assert.Error(t, err)
	_, err = ParseExitOrder(" , ")
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"noop", "none", "pct", "momentum", "MO", "anchor", "lex"} {
		s, err := ByName(name, nil)
		require.NoError(t, err, name)
		assert.NotEmpty(t, s.Name())
	}

	s, err := ByName("nday", config.Settings{"weekday": "tue", "offset": 1})
	require.NoError(t, err)
	assert.Equal(t, "nday", s.Name())

	_, err = ByName("nday", nil)
	assert.Error(t, err)

	_, err = ByName("ema-cross", nil)
	assert.ErrorContains(t, err, "unknown strategy")

	_, err = ByName("pct", config.Settings{"exit_order": "SOMETIMES"})
	assert.Error(t, err)

	assert.Equal(t, []string{"anchor", "momentum", "nday", "noop", "pct"}, Names())
}

func TestStrategiesProvideVolatility(t *testing.T) {
	for _, name := range []string{"pct", "momentum", "anchor"} {
		s, err := ByName(name, nil)
		require.NoError(t, err)
		_, ok := s.(interface{ Volatility() (float64, bool) })
		assert.True(t, ok, name)
	}
}

func TestNoop(t *testing.T) {
	res := runStrategy(t, Noop{}, []market.Bar{bar(0, 1, 1, 1, 1), bar(1, 1, 1, 1, 1)})
	assert.Empty(t, res.Trades)
	assert.Len(t, res.Series, 2)
	assert.Equal(t, 10000.0, res.FinalEquity())
}

func TestNday(t *testing.T) {
	s, err := NewNday(config.Settings{"weekday": "TUE", "offset": 0})
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(0, 101, 101, 99, 100),  // Mon: down day
		bar(1, 100, 103, 100, 102), // Tue: buy the open, profit at close
		bar(2, 102, 102, 101, 101),
		bar(7, 100, 101, 99, 101), // Mon: up day
		bar(8, 101, 101, 99, 100), // Tue: no entry
	})

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, "NDAY", tr.EntrySignal)
	assert.Equal(t, date(1), tr.EntryDate)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Equal(t, "PNL", tr.Exit.Signal)
	assert.Equal(t, 102.0, tr.Exit.Price)
}

func TestNday_Offset(t *testing.T) {
	s, err := NewNday(config.Settings{"weekday": "WED", "offset": 1})
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(0, 101, 101, 99, 100),  // Mon: down day, two bars before Wed
		bar(1, 100, 101, 100, 101), // Tue: up day
		bar(2, 101, 103, 101, 102), // Wed: entry on the Monday signal
	})
	require.Len(t, res.Trades, 1)
	assert.Equal(t, date(2), res.Trades[0].EntryDate)
}

func TestNday_BadSettings(t *testing.T) {
	_, err := NewNday(config.Settings{"weekday": "FUNDAY"})
	assert.Error(t, err)
	_, err = NewNday(config.Settings{"weekday": "MON", "offset": -1})
	assert.Error(t, err)
}

func TestPct(t *testing.T) {
	s, err := NewPct(config.Settings{"Threshold": -0.005})
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(0, 100, 100, 100, 100),
		bar(1, 100, 100, 99, 99.6), // -0.4%: no signal
		bar(2, 99.6, 99.6, 98, 98), // -1.6%
		bar(3, 98, 99, 97.5, 98.5), // enter at open, PNL at close
	})

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, "PCT", tr.EntrySignal)
	assert.Equal(t, date(3), tr.EntryDate)
	assert.Equal(t, 98.0, tr.EntryPrice)
	assert.Equal(t, int64(102), tr.Size)
}

func TestMomentum(t *testing.T) {
	s, err := NewMomentum(config.Settings{"Length": 2, "Threshold": -0.02})
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(0, 100, 100, 100, 100),
		bar(1, 100, 100, 99, 99),
		bar(2, 99, 99, 97, 97), // -3% over two bars
		bar(3, 97, 98, 96, 96),
	})

	assert.Empty(t, res.Trades)
	require.NotNil(t, res.OpenTrade)
	assert.Equal(t, "MO", res.OpenTrade.EntrySignal)
	assert.Equal(t, date(3), res.OpenTrade.EntryDate)

	_, err = NewMomentum(config.Settings{"Length": 0})
	assert.Error(t, err)
}

func TestAnchor(t *testing.T) {
	s, err := NewAnchor(nil)
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(7, 100, 105, 95, 100), // Mon anchor
		bar(8, 100, 100, 90, 92),  // Tue closes under the anchor low
		bar(9, 93, 94, 92, 93),    // Wed: enter at the open
	})

	assert.Empty(t, res.Trades)
	require.NotNil(t, res.OpenTrade)
	assert.Equal(t, "LEX", res.OpenTrade.EntrySignal)
	assert.Equal(t, date(9), res.OpenTrade.EntryDate)
	assert.Equal(t, 93.0, res.OpenTrade.EntryPrice)
}

func TestAnchor_SkipsEndOfWeek(t *testing.T) {
	s, err := NewAnchor(nil)
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(7, 100, 105, 95, 100), // Mon anchor
		bar(8, 100, 101, 99, 100),
		bar(9, 100, 101, 99, 100),
		bar(10, 100, 100, 90, 92), // Thu closes under the anchor low
		bar(11, 93, 94, 92, 93),   // Fri is end of week: no entry
	})
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.OpenTrade)
}

func TestSignal_ATRVolatility(t *testing.T) {
	s, err := NewPct(config.Settings{"volatility": "ATR", "ATR": 2})
	require.NoError(t, err)

	res := runStrategy(t, s, []market.Bar{
		bar(0, 100, 100, 100, 100),
		bar(1, 100, 102, 99, 101),
		bar(2, 101, 103, 100, 102),
	})
	assert.Empty(t, res.Trades)

	v, ok := s.Volatility()
	require.True(t, ok)
	assert.InDelta(t, 3.0, v, 1e-9)

	_, err = NewPct(config.Settings{"volatility": "range"})
	assert.Error(t, err)
}

func TestSignal_TrendFilterBlocksEntry(t *testing.T) {
	s, err := NewPct(config.Settings{"Threshold": -0.005, "trend_sma": 3})
	require.NoError(t, err)

	// same bars as TestPct; the last close (98) is below SMA(3) = 99.2
	res := runStrategy(t, s, []market.Bar{
		bar(0, 100, 100, 100, 100),
		bar(1, 100, 100, 99, 99.6),
		bar(2, 99.6, 99.6, 98, 98),
		bar(3, 98, 99, 97.5, 98.5),
	})
	assert.Empty(t, res.Trades)
}

func TestSignal_EMATrendFilter(t *testing.T) {
	s, err := NewPct(config.Settings{"Threshold": -0.005, "trend_ema": 1})
	require.NoError(t, err)

	// EMA(1) tracks the last close, so the filter always passes
	res := runStrategy(t, s, []market.Bar{
		bar(0, 100, 100, 100, 100),
		bar(1, 100, 100, 99, 99.6),
		bar(2, 99.6, 99.6, 98, 98),
		bar(3, 98, 99, 97.5, 98.5),
	})
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "PCT", res.Trades[0].EntrySignal)
}
