package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/backtester/backtest"
)

// SQLiteJournal stores any number of runs keyed by run ID.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertTrade = `
	INSERT INTO trades
	(run_id, trade_id, symbol, side, size, entry_date, entry_price, entry_signal,
	 exit_date, exit_price, exit_signal, dollar_basis, duration, stop, value, ret, cum_pnl)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertEquity = `
	INSERT INTO equity
	(run_id, date, close, entry_price, entry_signal, exit_price, exit_signal,
	 has_position, position, stop, mark_to_market, wallet, equity)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func recordTrade(ctx context.Context, x execer, t TradeRecord) error {
	_, err := x.ExecContext(ctx, insertTrade,
		t.RunID, t.TradeID, t.Symbol, t.Side, t.Size, t.EntryDate, t.EntryPrice, t.EntrySignal,
		t.ExitDate, t.ExitPrice, t.ExitSignal, t.DollarBasis, t.Duration, t.Stop, t.Value, t.Return, t.CumPnL,
	)
	return err
}

func recordEquity(ctx context.Context, x execer, e EquitySnapshot) error {
	_, err := x.ExecContext(ctx, insertEquity,
		e.RunID, e.Date, e.Close, nullable(e.EntryPrice), e.EntrySignal, nullable(e.ExitPrice), e.ExitSignal,
		e.HasPosition, e.Position, e.Stop, e.MarkToMarket, e.Wallet, e.Equity,
	)
	return err
}

// RecordTrade inserts one trade. Its run must already be recorded.
func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	return recordTrade(context.Background(), j.db, t)
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	return recordEquity(context.Background(), j.db, e)
}

const insertRun = `
	INSERT INTO backtest_runs
	(run_id, created, strategy, symbol, dataset, config, start_date, end_date,
	 start_balance, end_balance, net_pl, trades, wins, losses, open_trade,
	 win_rate, profit_factor, avg_win, avg_loss, max_drawdown, years, total_return, cagr, sharpe)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func recordBacktest(ctx context.Context, x execer, r BacktestRun) error {
	m := r.Metrics
	_, err := x.ExecContext(ctx, insertRun,
		r.RunID, r.Created, r.Strategy, r.Symbol, r.Dataset, string(r.Config), r.Start, r.End,
		r.StartBalance, r.EndBalance, r.NetPL, r.Trades, r.Wins, r.Losses, r.OpenTrade,
		nullFloat(m.WinRate), nullFloat(m.ProfitFactor), nullFloat(m.AvgWin), nullFloat(m.AvgLoss), nullFloat(m.MaxDrawdown),
		nullFloat(m.Years), nullFloat(m.TotalReturn), nullFloat(m.CAGR), nullFloat(m.Sharpe),
	)
	return err
}

// RecordBacktest inserts the run summary row.
func (j *SQLiteJournal) RecordBacktest(ctx context.Context, r BacktestRun) error {
	return recordBacktest(ctx, j.db, r)
}

// SaveRun writes the summary, trades and equity series of a run in one
// transaction.
func (j *SQLiteJournal) SaveRun(ctx context.Context, run BacktestRun, res *backtest.Result) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = recordBacktest(ctx, tx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for _, t := range res.Trades {
		var rec TradeRecord
		if rec, err = NewTradeRecord(run.RunID, res.Contract.Symbol, t); err != nil {
			return err
		}
		if err = recordTrade(ctx, tx, rec); err != nil {
			return fmt.Errorf("record trade %d: %w", t.ID, err)
		}
	}
	for _, s := range res.Series {
		if err = recordEquity(ctx, tx, NewEquitySnapshot(run.RunID, s)); err != nil {
			return fmt.Errorf("record equity %s: %w", date(s.Date), err)
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) GetBacktestRun(ctx context.Context, runID string) (btr BacktestRun, err error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, strategy, symbol, dataset, config, start_date, end_date,
		       start_balance, end_balance, net_pl, trades, wins, losses, open_trade,
		       win_rate, profit_factor, avg_win, avg_loss, max_drawdown, years, total_return, cagr, sharpe
		FROM backtest_runs WHERE run_id = ?`, runID)

	var (
		cfg string
		mv  [9]sql.NullFloat64
	)
	err = row.Scan(
		&btr.RunID, &btr.Created, &btr.Strategy, &btr.Symbol, &btr.Dataset, &cfg, &btr.Start, &btr.End,
		&btr.StartBalance, &btr.EndBalance, &btr.NetPL, &btr.Trades, &btr.Wins, &btr.Losses, &btr.OpenTrade,
		&mv[0], &mv[1], &mv[2], &mv[3], &mv[4], &mv[5], &mv[6], &mv[7], &mv[8],
	)
	if err == sql.ErrNoRows {
		return BacktestRun{}, fmt.Errorf("backtest run %q not found", runID)
	}
	if err != nil {
		return BacktestRun{}, err
	}
	btr.Config = []byte(cfg)

	m := &btr.Metrics
	m.TradeCount = btr.Trades
	fields := []struct {
		name string
		dst  *float64
	}{
		{"win_rate", &m.WinRate},
		{"profit_factor", &m.ProfitFactor},
		{"avg_win", &m.AvgWin},
		{"avg_loss", &m.AvgLoss},
		{"max_drawdown", &m.MaxDrawdown},
		{"years", &m.Years},
		{"total_return", &m.TotalReturn},
		{"cagr", &m.CAGR},
		{"sharpe", &m.Sharpe},
	}
	for i, f := range fields {
		if mv[i].Valid {
			*f.dst = mv[i].Float64
			continue
		}
		*f.dst = math.NaN()
		m.Undefined = append(m.Undefined, f.name)
	}
	return btr, nil
}

func (j *SQLiteJournal) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, selectTrades+` WHERE run_id = ? ORDER BY trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	return scanTrades(rows)
}

func (j *SQLiteJournal) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, date, close, entry_price, entry_signal, exit_price, exit_signal,
		       has_position, position, stop, mark_to_market, wallet, equity
		FROM equity WHERE run_id = ? ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var (
			e           EquitySnapshot
			entry, exit sql.NullFloat64
		)
		if err := rows.Scan(
			&e.RunID, &e.Date, &e.Close, &entry, &e.EntrySignal, &exit, &e.ExitSignal,
			&e.HasPosition, &e.Position, &e.Stop, &e.MarkToMarket, &e.Wallet, &e.Equity,
		); err != nil {
			return nil, err
		}
		if entry.Valid {
			e.EntryPrice = &entry.Float64
		}
		if exit.Valid {
			e.ExitPrice = &exit.Float64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportBacktestOrg loads a run with its trades and returns the Org text.
func (j *SQLiteJournal) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	s, err := run.RenderOrg()
	if err != nil {
		return "", err
	}
	if len(trades) > 0 {
		s += "\n" + FormatTradesOrg(trades)
	}
	return s, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// nullFloat maps NaN and Inf to NULL.
func nullFloat(x float64) sql.NullFloat64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func nullable(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
