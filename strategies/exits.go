package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
)

// ExitRule is one close-session exit test. Its name is the exit label.
type ExitRule string

const (
	// ExitPNL closes a trade that is in profit at the close.
	ExitPNL ExitRule = "PNL"
	// ExitExpiry closes a trade held longer than the configured duration.
	ExitExpiry ExitRule = "EXPIRY"
	// ExitStop closes a trade whose close crossed the trailing stop.
	ExitStop ExitRule = "STOP_OUT"
)

var DefaultExitOrder = []ExitRule{ExitPNL, ExitExpiry, ExitStop}

// ParseExitOrder reads a comma separated rule list such as
// "STOP_OUT,PNL,EXPIRY".
func ParseExitOrder(s string) ([]ExitRule, error) {
	var out []ExitRule
	seen := map[ExitRule]bool{}
	for _, part := range strings.Split(s, ",") {
		r := ExitRule(strings.ToUpper(strings.TrimSpace(part)))
		switch r {
		case "":
			continue
		case ExitPNL, ExitExpiry, ExitStop:
		default:
			return nil, fmt.Errorf("unknown exit rule %q", part)
		}
		if seen[r] {
			return nil, fmt.Errorf("exit rule %s listed twice", r)
		}
		seen[r] = true
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty exit order %q", s)
	}
	return out, nil
}

// CloseExits evaluates its rules in Order and closes on the first match.
// At most one exit happens per bar.
type CloseExits struct {
	// Duration is the holding period after which EXPIRY fires. Zero
	// disables EXPIRY.
	Duration int
	Order    []ExitRule
}

func exitsFromSettings(s config.Settings) (CloseExits, error) {
	x := CloseExits{
		Duration: s.Int("duration", 10),
		Order:    DefaultExitOrder,
	}
	if s.Has("exit_order") {
		order, err := ParseExitOrder(s.String("exit_order", ""))
		if err != nil {
			return CloseExits{}, err
		}
		x.Order = order
	}
	return x, nil
}

// Check runs the rules against the open trade at the bar's close.
func (x CloseExits) Check(ctx *backtest.Context) error {
	t, ok := ctx.Trade()
	if !ok {
		return nil
	}
	px := ctx.Bar.Close
	side := float64(t.Side())

	for _, r := range x.Order {
		var hit bool
		switch r {
		case ExitPNL:
			hit = side*(px-t.EntryPrice) > 0
		case ExitExpiry:
			hit = x.Duration > 0 && t.Duration > x.Duration
		case ExitStop:
			hit = side*(px-t.Stop) <= 0
		}
		if hit {
			return ctx.Exit(px, string(r))
		}
	}
	return nil
}
