package risk

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// Sizing is the outcome of a successful entry sizing.
type Sizing struct {
	Side  Side
	Units int64 // unsigned unit count
	Basis float64

	// DollarBasis = Units * Basis, fixed for the life of the trade.
	DollarBasis float64
	Committed   float64
}

// Size returns the signed position size for a new entry.
//
// A non-positive wallet or a unit count that rounds to zero is not an
// error: ok is false and no trade should be opened. A non-positive basis
// is a configuration error.
func Size(side Side, c market.ContractSpec, price float64, acct Account, lim Limits) (s Sizing, ok bool, err error) {
	if side != Long && side != Short {
		return Sizing{}, false, fmt.Errorf("size: bad side %d", side)
	}
	if acct.Wallet <= 0 {
		return Sizing{}, false, nil
	}
	if err := acct.Validate(); err != nil {
		return Sizing{}, false, err
	}

	basis := c.Basis(price)
	if basis <= 0 || math.IsNaN(basis) {
		return Sizing{}, false, fmt.Errorf("%w: %s basis %v at price %v", ErrInvalidBasis, c.Symbol, basis, price)
	}

	committed := acct.Committed()
	units := math.Floor(committed / basis)

	lev := lim.LeverageTarget
	if lev <= 0 {
		lev = c.LeverageTarget
	}
	if c.Kind == market.Future && lev > 0 {
		if c.TickSize <= 0 || c.TickValue <= 0 {
			return Sizing{}, false, fmt.Errorf("%w: %s tick economics", market.ErrInvalidContract, c.Symbol)
		}
		notional := price * c.TickValue / c.TickSize
		if notional <= 0 {
			return Sizing{}, false, fmt.Errorf("%w: %s notional %v at price %v", ErrInvalidBasis, c.Symbol, notional, price)
		}
		units = math.Floor((committed * lev) / notional)
	}

	if lim.PositionLimit > 0 && units > float64(lim.PositionLimit) {
		units = float64(lim.PositionLimit)
	}
	if exposure := c.Exposure(price); lim.DollarLimit > 0 && units*exposure > lim.DollarLimit {
		units = math.Floor(lim.DollarLimit / exposure)
	}

	if units <= 0 {
		return Sizing{}, false, nil
	}

	n := int64(units)
	return Sizing{
		Side:        side,
		Units:       n,
		Basis:       basis,
		DollarBasis: float64(n) * basis,
		Committed:   committed,
	}, true, nil
}

// Signed returns the position size with the side applied.
func (s Sizing) Signed() int64 {
	return int64(s.Side) * s.Units
}
