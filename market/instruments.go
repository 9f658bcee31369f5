// market/instruments.go
package market

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidContract marks instrument economics that cannot be traded.
// It is a configuration error and aborts a run.
var ErrInvalidContract = errors.New("invalid contract")

// InstrumentKind selects the per-unit basis used for sizing.
type InstrumentKind string

const (
	Equity InstrumentKind = "EQUITY"
	ETF    InstrumentKind = "ETF"
	Future InstrumentKind = "FUTURE"
)

// ParseKind accepts the sec_type strings used in configs ("etf", "FUTURE", ...).
func ParseKind(s string) (InstrumentKind, error) {
	switch k := InstrumentKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case Equity, ETF, Future:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown sec_type %q", ErrInvalidContract, s)
}

// ContractSpec is the static economics of one instrument. It does not
// change during a run.
type ContractSpec struct {
	Symbol    string
	Kind      InstrumentKind
	TickSize  float64
	TickValue float64

	// FUTURE only.
	MarginReq      float64
	LeverageTarget float64 // 0 means not configured
}

// Validate fails fast on economics that would make P&L or sizing meaningless.
func (c ContractSpec) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.TickSize <= 0 {
		return fmt.Errorf("%w: %s tick_size must be positive (got %v)", ErrInvalidContract, c.Symbol, c.TickSize)
	}
	if c.TickValue <= 0 {
		return fmt.Errorf("%w: %s tick_value must be positive (got %v)", ErrInvalidContract, c.Symbol, c.TickValue)
	}
	if c.Kind == Future && c.MarginReq <= 0 {
		return fmt.Errorf("%w: %s margin_req must be positive for futures (got %v)", ErrInvalidContract, c.Symbol, c.MarginReq)
	}
	if c.LeverageTarget < 0 {
		return fmt.Errorf("%w: %s leverage_target must not be negative", ErrInvalidContract, c.Symbol)
	}
	return nil
}

// Basis is the per-unit capital reference at the given price: the margin
// requirement for futures, the price itself for cash instruments.
func (c ContractSpec) Basis(price float64) float64 {
	if c.Kind == Future {
		return c.MarginReq
	}
	return price
}

// Exposure is the per-unit notional at the given price: price times the
// point multiplier for futures, the price itself for cash instruments.
func (c ContractSpec) Exposure(price float64) float64 {
	if c.Kind == Future {
		return price * c.Multiplier()
	}
	return price
}

// Multiplier is the currency value of a one point move per unit.
// ES: 12.50 / 0.25 = 50.
func (c ContractSpec) Multiplier() float64 {
	return c.TickValue / c.TickSize
}

// Value converts a price move into currency for a signed position size.
// A short (negative size) gains when the price falls.
func (c ContractSpec) Value(entry, exit float64, size int64) float64 {
	delta := exit - entry
	return (delta / c.TickSize) * c.TickValue * float64(size)
}

// WithLeverage returns a copy carrying the given leverage target.
func (c ContractSpec) WithLeverage(target float64) ContractSpec {
	c.LeverageTarget = target
	return c
}

// Instruments holds the contracts the CLI knows by symbol.
var Instruments = map[string]ContractSpec{
	"SPY": {
		Symbol:    "SPY",
		Kind:      ETF,
		TickSize:  0.01,
		TickValue: 0.01,
	},
	"QQQ": {
		Symbol:    "QQQ",
		Kind:      ETF,
		TickSize:  0.01,
		TickValue: 0.01,
	},
	"UPRO": {
		Symbol:    "UPRO",
		Kind:      ETF,
		TickSize:  0.01,
		TickValue: 0.01,
	},
	"ES1": {
		Symbol:    "ES1",
		Kind:      Future,
		TickSize:  0.25,
		TickValue: 12.50,
		MarginReq: 12000,
	},
}

// Lookup returns a known instrument by symbol.
func Lookup(symbol string) (ContractSpec, bool) {
	c, ok := Instruments[strings.ToUpper(strings.TrimSpace(symbol))]
	return c, ok
}
