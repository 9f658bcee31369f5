package risk

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBasis means the per-unit basis was not positive. It points
	// at bad instrument setup and is fatal.
	ErrInvalidBasis = errors.New("invalid sizing basis")

	// ErrInvalidAccount means a wallet fraction was outside (0, 1].
	ErrInvalidAccount = errors.New("invalid account settings")
)

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// Account is the cash side of a run. Wallet only changes when a trade is
// settled.
type Account struct {
	Wallet float64

	// Fraction of the wallet committed per trade, 0 < pct <= 1.
	AllocPct float64

	// Position value divided by this fraction is the capital committed;
	// values below 1 model margin borrowing.
	BorrowMarginPct float64
}

func (a Account) Validate() error {
	if a.AllocPct <= 0 || a.AllocPct > 1 {
		return fmt.Errorf("%w: wallet_alloc_pct must be in (0, 1], got %v", ErrInvalidAccount, a.AllocPct)
	}
	if a.BorrowMarginPct <= 0 || a.BorrowMarginPct > 1 {
		return fmt.Errorf("%w: borrow_margin_pct must be in (0, 1], got %v", ErrInvalidAccount, a.BorrowMarginPct)
	}
	return nil
}

// Committed is the capital put to work by the next trade.
func (a Account) Committed() float64 {
	return (a.AllocPct * a.Wallet) / a.BorrowMarginPct
}

// Limits caps sizing. Zero values mean "no limit".
type Limits struct {
	PositionLimit  int64
	DollarLimit    float64
	LeverageTarget float64
}
