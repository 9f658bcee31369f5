// Package strategies holds the concrete signal logic run by the backtest
// engine. Every strategy here is long-only, enters in the open session and
// leaves through the shared close-session exit rules.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
)

// Factory builds a strategy from its settings group.
type Factory func(s config.Settings) (backtest.Strategy, error)

var registry = map[string]Factory{
	"noop":     func(config.Settings) (backtest.Strategy, error) { return Noop{}, nil },
	"nday":     func(s config.Settings) (backtest.Strategy, error) { return NewNday(s) },
	"pct":      func(s config.Settings) (backtest.Strategy, error) { return NewPct(s) },
	"momentum": func(s config.Settings) (backtest.Strategy, error) { return NewMomentum(s) },
	"anchor":   func(s config.Settings) (backtest.Strategy, error) { return NewAnchor(s) },
}

var aliases = map[string]string{
	"none": "noop",
	"mo":   "momentum",
	"lex":  "anchor",
}

// Register adds or replaces a named strategy.
func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// ByName builds the named strategy.
func ByName(name string, s config.Settings) (backtest.Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[key]; ok {
		key = a
	}
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	if s == nil {
		s = config.Settings{}
	}
	return f(s)
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
