package journal

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/metrics"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	_, path := newTestSQLite(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["backtest_runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteReopenIsIdempotent(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	again, err := NewSQLite(path)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestSQLiteSaveRunRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	res := sampleResult()
	m := metrics.Metrics{
		Sharpe: 1.5, CAGR: 0.2, MaxDrawdown: 0.01, TradeCount: 1,
		WinRate: 1, ProfitFactor: math.NaN(), AvgWin: 0.1, AvgLoss: math.NaN(),
		Years: 2.0 / 252, TotalReturn: 0.05,
		Undefined: []string{"profit_factor", "avg_loss"},
	}
	run := NewBacktestRun("run1", res, m)
	run.Dataset = "SPY.csv"
	run.Config = []byte("strategy: nday\n")
	require.NoError(t, j.SaveRun(ctx, run, res))

	got, err := j.GetBacktestRun(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, "nday", got.Strategy)
	assert.Equal(t, "SPY", got.Symbol)
	assert.Equal(t, "SPY.csv", got.Dataset)
	assert.Equal(t, "strategy: nday\n", string(got.Config))
	assert.True(t, got.Start.Equal(day(2)))
	assert.True(t, got.End.Equal(day(4)))
	assert.Equal(t, 1, got.Trades)
	assert.Equal(t, 1, got.Wins)
	assert.InDelta(t, 500.0, got.NetPL, 1e-9)
	assert.InDelta(t, 1.5, got.Metrics.Sharpe, 1e-9)
	assert.True(t, math.IsNaN(got.Metrics.ProfitFactor))
	assert.True(t, math.IsNaN(got.Metrics.AvgLoss))
	assert.ElementsMatch(t, []string{"profit_factor", "avg_loss"}, got.Metrics.Undefined)

	trades, err := j.ListTradesByRunID(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "PNL", trades[0].ExitSignal)
	assert.True(t, trades[0].ExitDate.Equal(day(4)))

	equity, err := j.ListEquityByRunID(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, equity, 3)
	require.NotNil(t, equity[0].EntryPrice)
	assert.Equal(t, 100.0, *equity[0].EntryPrice)
	assert.Nil(t, equity[1].EntryPrice)
	require.NotNil(t, equity[2].ExitPrice)
	assert.Equal(t, 10500.0, equity[2].Equity)
}

func TestSQLiteSaveRunRollsBackOnDuplicate(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	res := sampleResult()
	run := NewBacktestRun("dup", res, metrics.Metrics{})
	require.NoError(t, j.SaveRun(ctx, run, res))
	assert.Error(t, j.SaveRun(ctx, run, res))

	trades, err := j.ListTradesByRunID(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestSQLiteGetBacktestRunMissing(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	_, err := j.GetBacktestRun(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteExportBacktestOrg(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	res := sampleResult()
	require.NoError(t, j.SaveRun(ctx, NewBacktestRun("org1", res, metrics.Metrics{}), res))

	s, err := j.ExportBacktestOrg(ctx, "org1")
	require.NoError(t, err)
	assert.Contains(t, s, "* BACKTEST: nday SPY")
	assert.Contains(t, s, ":RUN_ID:      org1")
	assert.Contains(t, s, "** Trade 1: SPY LONG 2024-01-02")
}
