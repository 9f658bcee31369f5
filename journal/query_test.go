package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/metrics"
)

func seedRuns(t *testing.T, j *SQLiteJournal) {
	t.Helper()
	ctx := context.Background()

	a := sampleResult()
	require.NoError(t, j.SaveRun(ctx, NewBacktestRun("a", a, metrics.Metrics{}), a))

	b := sampleResult()
	second := b.Trades[0]
	second.ID = 2
	second.EntryDate = day(10)
	second.Exit = &backtest.TradeExit{Date: day(12), Price: 95, Signal: "STOP_OUT", Value: -250, CumPnL: 250}
	b.Trades = append(b.Trades, second)
	require.NoError(t, j.SaveRun(ctx, NewBacktestRun("b", b, metrics.Metrics{}), b))
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	seedRuns(t, j)

	rec, err := j.GetTrade("b", 2)
	require.NoError(t, err)
	assert.Equal(t, "STOP_OUT", rec.ExitSignal)
	assert.Equal(t, -250.0, rec.Value)

	_, err = j.GetTrade("a", 2)
	assert.ErrorContains(t, err, "not found")
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	seedRuns(t, j)

	got, err := j.ListTradesClosedBetween(day(1), day(5))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RunID)
	assert.Equal(t, "b", got[1].RunID)

	got, err = j.ListTradesClosedBetween(day(5), day(31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].TradeID)

	got, err = j.ListTradesClosedBetween(day(12), day(12))
	require.NoError(t, err)
	assert.Empty(t, got)
}
