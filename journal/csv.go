package journal

import (
	"encoding/csv"
	"os"
	"strconv"
)

var (
	tradeHeader = []string{
		"trade_id", "symbol", "side", "size",
		"entry_date", "entry_price", "entry_signal",
		"exit_date", "exit_price", "exit_signal",
		"dollar_basis", "duration", "stop", "value", "return", "cum_pnl",
	}
	equityHeader = []string{
		"date", "close", "entry_price", "entry_signal", "exit_price", "exit_signal",
		"position", "stop", "mark_to_market", "wallet", "equity",
	}
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSVJournal{csv.NewWriter(tf), csv.NewWriter(ef), tf, ef}
	if err := j.write(j.trades, tradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.equity, equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, tradeRow(t))
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(j.equity, equityRow(e))
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func tradeRow(t TradeRecord) []string {
	return []string{
		strconv.Itoa(t.TradeID),
		t.Symbol,
		t.Side,
		strconv.FormatInt(t.Size, 10),
		date(t.EntryDate),
		price(t.EntryPrice),
		t.EntrySignal,
		date(t.ExitDate),
		price(t.ExitPrice),
		t.ExitSignal,
		money(t.DollarBasis),
		strconv.Itoa(t.Duration),
		price(t.Stop),
		money(t.Value),
		ratio(t.Return),
		money(t.CumPnL),
	}
}

// equityRow leaves position and stop blank while flat.
func equityRow(e EquitySnapshot) []string {
	pos, stop := "", ""
	if e.HasPosition {
		pos = strconv.FormatInt(e.Position, 10)
		stop = price(e.Stop)
	}
	return []string{
		date(e.Date),
		price(e.Close),
		optPrice(e.EntryPrice),
		e.EntrySignal,
		optPrice(e.ExitPrice),
		e.ExitSignal,
		pos,
		stop,
		money(e.MarkToMarket),
		money(e.Wallet),
		money(e.Equity),
	}
}
