// Package metrics summarizes a finished run.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/backtest"
)

// TradingDaysPerYear converts an equity series length into years.
const TradingDaysPerYear = 252

var (
	ErrNoTrades      = errors.New("metrics: no closed trades")
	ErrNoElapsedTime = errors.New("metrics: no elapsed time")
	ErrZeroVariance  = errors.New("metrics: daily returns have zero variance")
	ErrBadEquity     = errors.New("metrics: initial equity is not positive")
)

// Metrics is computed once per run. Fields that could not be computed are
// NaN and named in Undefined.
type Metrics struct {
	Sharpe       float64 `json:"sharpe"`
	CAGR         float64 `json:"cagr"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	TradeCount   int     `json:"trade_count"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	Years        float64 `json:"years"`
	TotalReturn  float64 `json:"total_return"`

	Undefined []string `json:"undefined,omitempty"`
}

// IsDefined reports whether the named field was computed.
func (m Metrics) IsDefined(field string) bool {
	for _, f := range m.Undefined {
		if f == field {
			return false
		}
	}
	return true
}

func (m *Metrics) undefined(field string) float64 {
	m.Undefined = append(m.Undefined, field)
	return math.NaN()
}

// FromResult computes metrics for a run. A trade still open at the end
// only counts through the equity series.
func FromResult(r *backtest.Result) (Metrics, error) {
	return Compute(r.Trades, backtest.EquityValues(r.Series))
}

// Compute derives the summary from closed trades and the equity series.
//
// The returned Metrics is always filled as far as possible. The error
// joins every unmet precondition (ErrNoTrades, ErrNoElapsedTime,
// ErrZeroVariance) so callers can tell "no trades" from "riskless".
func Compute(trades []backtest.Trade, equity []float64) (Metrics, error) {
	var (
		m    Metrics
		errs []error
	)

	if err := tradeStats(&m, trades); err != nil {
		errs = append(errs, err)
	}

	m.MaxDrawdown = MaxDrawdown(equity)
	m.Years = float64(len(equity)) / TradingDaysPerYear

	if m.Years <= 0 {
		m.TotalReturn = m.undefined("total_return")
		m.CAGR = m.undefined("cagr")
		m.Sharpe = m.undefined("sharpe")
		m.MaxDrawdown = m.undefined("max_drawdown")
		errs = append(errs, ErrNoElapsedTime)
		return m, errors.Join(errs...)
	}

	first, last := equity[0], equity[len(equity)-1]
	if first <= 0 {
		m.TotalReturn = m.undefined("total_return")
		m.CAGR = m.undefined("cagr")
		m.Sharpe = m.undefined("sharpe")
		errs = append(errs, fmt.Errorf("%w: %v", ErrBadEquity, first))
		return m, errors.Join(errs...)
	}
	growth := last / first
	m.TotalReturn = growth - 1
	m.CAGR = math.Pow(growth, 1/m.Years) - 1

	sd := StdDev(DailyReturns(equity))
	denom := sd * math.Sqrt(TradingDaysPerYear)
	if math.IsNaN(denom) || denom == 0 {
		m.Sharpe = m.undefined("sharpe")
		errs = append(errs, ErrZeroVariance)
	} else {
		m.Sharpe = m.CAGR / denom
	}

	return m, errors.Join(errs...)
}

func tradeStats(m *Metrics, trades []backtest.Trade) error {
	m.TradeCount = len(trades)
	if len(trades) == 0 {
		m.WinRate = m.undefined("win_rate")
		m.ProfitFactor = m.undefined("profit_factor")
		m.AvgWin = m.undefined("avg_win")
		m.AvgLoss = m.undefined("avg_loss")
		return ErrNoTrades
	}

	var (
		wins         int
		gain, loss   float64
		nGain, nLoss int
	)
	for _, t := range trades {
		if t.Exit == nil {
			continue
		}
		if t.Exit.Value > 0 {
			wins++
		}
		if r := t.Exit.Return; r >= 0 {
			gain += r
			nGain++
		} else {
			loss += r
			nLoss++
		}
	}

	m.WinRate = float64(wins) / float64(len(trades))

	if loss == 0 {
		m.ProfitFactor = m.undefined("profit_factor")
	} else {
		m.ProfitFactor = gain / math.Abs(loss)
	}
	if nGain == 0 {
		m.AvgWin = m.undefined("avg_win")
	} else {
		m.AvgWin = gain / float64(nGain)
	}
	if nLoss == 0 {
		m.AvgLoss = m.undefined("avg_loss")
	} else {
		m.AvgLoss = loss / float64(nLoss)
	}
	return nil
}

// DailyReturns is the period-over-period percent change; the first point
// has no return and is dropped.
func DailyReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		out[i-1] = equity[i]/equity[i-1] - 1
	}
	return out
}

// Drawdowns returns equity / running max - 1 for each point.
func Drawdowns(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, e := range equity {
		peak = math.Max(peak, e)
		out[i] = e/peak - 1
	}
	return out
}

// MaxDrawdown is the most negative drawdown, 0 for an empty series.
func MaxDrawdown(equity []float64) float64 {
	dd := 0.0
	for _, d := range Drawdowns(equity) {
		dd = math.Min(dd, d)
	}
	return dd
}

// StdDev is the sample standard deviation (n-1). NaN below two points.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
