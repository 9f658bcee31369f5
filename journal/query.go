package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const selectTrades = `
	SELECT run_id, trade_id, symbol, side, size, entry_date, entry_price, entry_signal,
	       exit_date, exit_price, exit_signal, dollar_basis, duration, stop, value, ret, cum_pnl
	FROM trades`

func scanTrade(s interface{ Scan(...any) error }, rec *TradeRecord) error {
	return s.Scan(
		&rec.RunID,
		&rec.TradeID,
		&rec.Symbol,
		&rec.Side,
		&rec.Size,
		&rec.EntryDate,
		&rec.EntryPrice,
		&rec.EntrySignal,
		&rec.ExitDate,
		&rec.ExitPrice,
		&rec.ExitSignal,
		&rec.DollarBasis,
		&rec.Duration,
		&rec.Stop,
		&rec.Value,
		&rec.Return,
		&rec.CumPnL,
	)
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := scanTrade(rows, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade of a run.
func (j *SQLiteJournal) GetTrade(runID string, tradeID int) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(selectTrades+` WHERE run_id = ? AND trade_id = ?`, runID, tradeID)
	if err := scanTrade(row, &rec); err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %s/%d not found", runID, tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades of every run whose exit date is
// within [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(selectTrades+`
		WHERE exit_date >= ? AND exit_date < ?
		ORDER BY exit_date ASC, run_id ASC, trade_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return scanTrades(rows)
}
