package backtest

// Strategy fills in the per-bar hook points of the engine. Hooks are called
// in a fixed order each bar:
//
//	OnOpenExit     open session, only while a trade is open
//	OnOpenEntry    open session, only while flat
//	OnAnalytics    every bar, including bars before the start date
//	OnCloseExit    close session, only while a trade is open
//	OnCloseEntry   close session, only while flat
//	OnFlat         end of bar, whenever the engine is flat
//
// Exit and entry hooks are skipped before the configured start date so
// indicators can warm up. A returned error aborts the run.
type Strategy interface {
	Name() string
	OnOpenExit(ctx *Context) error
	OnOpenEntry(ctx *Context) error
	OnAnalytics(ctx *Context) error
	OnCloseExit(ctx *Context) error
	OnCloseEntry(ctx *Context) error
	OnFlat(ctx *Context) error
}

// LimitAdjuster lets a strategy resize the next trade once flat. The
// engine calls the three methods in order after OnFlat.
type LimitAdjuster interface {
	UpdatePositionLimit(ctx *Context)
	UpdateWalletAlloc(ctx *Context)
	UpdateDollarLimit(ctx *Context)
}

// Base implements every hook as a no-op. Embed it and override what the
// strategy needs.
type Base struct{}

func (Base) Name() string                    { return "base" }
func (Base) OnOpenExit(ctx *Context) error   { return nil }
func (Base) OnOpenEntry(ctx *Context) error  { return nil }
func (Base) OnAnalytics(ctx *Context) error  { return nil }
func (Base) OnCloseExit(ctx *Context) error  { return nil }
func (Base) OnCloseEntry(ctx *Context) error { return nil }
func (Base) OnFlat(ctx *Context) error       { return nil }
