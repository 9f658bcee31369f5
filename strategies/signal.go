package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

// signal carries what every strategy here shares: a rolling stdev of
// closes, a short bar history and the close-session exits. The trailing
// stop follows the stdev unless settings select "volatility: atr".
// "trend_sma: n" (or "trend_ema: n") only allows entries while the last
// close is at or above its n-bar average.
type signal struct {
	backtest.Base

	name  string
	stdev *indicators.StDev
	atr   *indicators.ATR
	trend average
	bars  *indicators.DataSeries[market.Bar]
	exits CloseExits
}

type average interface {
	Push(float64)
	Ready() bool
	Value() float64
}

func newSignal(name string, s config.Settings, history int) (signal, error) {
	exits, err := exitsFromSettings(s)
	if err != nil {
		return signal{}, err
	}
	if history < 10 {
		history = 10
	}
	sig := signal{
		name:  name,
		stdev: indicators.NewStDev(s.Int("StDev", 50)),
		bars:  indicators.NewDataSeries[market.Bar](history),
		exits: exits,
	}
	switch v := strings.ToLower(s.String("volatility", "stdev")); v {
	case "stdev":
	case "atr":
		sig.atr = indicators.NewATR(s.Int("ATR", 14))
	default:
		return signal{}, fmt.Errorf("%s: unknown volatility %q (stdev or atr)", name, v)
	}
	if n := s.Int("trend_sma", 0); n > 0 {
		sig.trend = indicators.NewSMA(n)
	} else if n := s.Int("trend_ema", 0); n > 0 {
		sig.trend = indicators.NewEMA(n)
	}
	return sig, nil
}

func (s *signal) Name() string { return s.name }

// Volatility feeds the engine's trailing stop.
func (s *signal) Volatility() (float64, bool) {
	if s.atr != nil {
		return s.atr.Volatility()
	}
	return s.stdev.Volatility()
}

func (s *signal) OnAnalytics(ctx *backtest.Context) error {
	s.stdev.Push(ctx.Bar.Close)
	if s.atr != nil {
		s.atr.Push(ctx.Bar)
	}
	if s.trend != nil {
		s.trend.Push(ctx.Bar.Close)
	}
	s.bars.Push(ctx.Bar)
	return nil
}

// inTrend is true without a trend filter. With one, it needs a warm
// average and the last close at or above it.
func (s *signal) inTrend() bool {
	if s.trend == nil {
		return true
	}
	last, ok := s.closeAt(0)
	return ok && s.trend.Ready() && last >= s.trend.Value()
}

func (s *signal) OnCloseExit(ctx *backtest.Context) error {
	return s.exits.Check(ctx)
}

// buyOpen enters long at the session price.
func (s *signal) buyOpen(ctx *backtest.Context, label string) error {
	if !s.inTrend() {
		return nil
	}
	_, err := ctx.Enter(risk.Long, ctx.Price(), label)
	return err
}

// closeAt returns the close lag bars back. During the open session lag 0
// is the previous bar, since analytics for today has not run yet.
func (s *signal) closeAt(lag int) (float64, bool) {
	b, ok := s.bars.ValueAt(lag)
	return b.Close, ok
}
