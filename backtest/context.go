package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/calendar"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

// Session is the part of the bar a hook runs in.
type Session int

const (
	SessionOpen Session = iota
	SessionClose
)

func (s Session) String() string {
	if s == SessionClose {
		return "CLOSE"
	}
	return "OPEN"
}

// Context is handed to every strategy hook. It exposes the current bar,
// the position state and the two trade actions.
type Context struct {
	e *Engine

	Bar     market.Bar
	Index   int
	Session Session

	// Disabled is true before the configured start date; only OnAnalytics
	// and OnFlat run then.
	Disabled bool

	ref    market.Bar
	hasRef bool
}

func (c *Context) Date() time.Time { return c.Bar.Date }

// RefBar returns the reference instrument's bar for this date, if any.
func (c *Context) RefBar() (market.Bar, bool) { return c.ref, c.hasRef }

func (c *Context) Calendar() *calendar.Calendar { return c.e.cal }

func (c *Context) Contract() market.ContractSpec { return c.e.contract }

func (c *Context) Flat() bool  { return c.e.pos.flat() }
func (c *Context) Long() bool  { t := c.e.pos.open(); return t != nil && t.Size > 0 }
func (c *Context) Short() bool { t := c.e.pos.open(); return t != nil && t.Size < 0 }

// Trade returns a copy of the open trade.
func (c *Context) Trade() (Trade, bool) {
	t := c.e.pos.open()
	if t == nil {
		return Trade{}, false
	}
	return *t, true
}

// Price is the session price: the open during the open session, the
// close afterwards.
func (c *Context) Price() float64 {
	if c.Session == SessionClose {
		return c.Bar.Close
	}
	return c.Bar.Open
}

// Enter sizes and opens a trade at price. ok is false when sizing yields
// no units (not an error).
func (c *Context) Enter(side risk.Side, price float64, signal string) (ok bool, err error) {
	return c.e.enter(c, side, price, signal)
}

// Exit closes the open trade at price.
func (c *Context) Exit(price float64, signal string) error {
	return c.e.exit(c, price, signal)
}

// Account returns the wallet state used for the next sizing.
func (c *Context) Account() risk.Account { return c.e.acct }

// Limits returns the live sizing limits; changes apply to the next entry.
func (c *Context) Limits() *risk.Limits { return &c.e.limits }

// SetWalletAlloc changes the fraction of the wallet committed per trade.
func (c *Context) SetWalletAlloc(pct float64) error {
	a := c.e.acct
	a.AllocPct = pct
	if err := a.Validate(); err != nil {
		return err
	}
	c.e.acct = a
	return nil
}

// Ledger returns the trades closed so far.
func (c *Context) Ledger() *Ledger { return c.e.ledger }
