package strategies

import "github.com/rustyeddy/backtester/backtest"

// Noop never trades. Useful for checking data and the equity baseline.
type Noop struct {
	backtest.Base
}

func (Noop) Name() string { return "noop" }
