package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Result is everything a finished run exposes to metrics and exporters.
type Result struct {
	Strategy string
	Contract market.ContractSpec

	Start time.Time
	End   time.Time

	InitialWallet float64
	FinalWallet   float64

	// Trades is the ledger of closed trades. A trade still open when the
	// feed ran out is in OpenTrade instead; its value is only reflected in
	// the equity series.
	Trades    []Trade
	Series    []Snapshot
	OpenTrade *Trade
}

// NetPL is the realized P&L of closed trades.
func (r *Result) NetPL() float64 {
	return r.FinalWallet - r.InitialWallet
}

// FinalEquity is the last snapshot's equity, or the wallet if no bars ran.
func (r *Result) FinalEquity() float64 {
	if len(r.Series) == 0 {
		return r.FinalWallet
	}
	return r.Series[len(r.Series)-1].Equity
}
