package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/calendar"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pkg/logger"
	"github.com/rustyeddy/backtester/risk"
)

var (
	ErrNoOpenTrade       = errors.New("no open trade")
	ErrAlreadyInPosition = errors.New("already in a position")
)

type Config struct {
	Contract market.ContractSpec
	Account  risk.Account
	Limits   risk.Limits

	// Trading decisions are disabled before StartDate. Zero means trade
	// from the first bar.
	StartDate time.Time

	StopMultiplier  float64
	StopFallbackPct float64

	Calendar  *calendar.Calendar
	Reference market.ReferenceIndex
	Logger    *logger.Logger
}

type posState int8

const (
	stateFlat posState = iota
	stateOpen
	// stateSettling: closed this bar, wallet not yet credited.
	stateSettling
)

// position is the single trade slot: Flat, Open(trade) or
// Settling(trade). Entries require Flat, exits require Open.
type position struct {
	state posState
	trade *Trade
}

func (p position) flat() bool { return p.state == stateFlat }

func (p position) open() *Trade {
	if p.state == stateOpen {
		return p.trade
	}
	return nil
}

type Engine struct {
	cfg      Config
	contract market.ContractSpec
	cal      *calendar.Calendar
	log      *logger.Logger

	acct   risk.Account
	limits risk.Limits
	stop   *risk.TrailingStop

	pos    position
	ledger *Ledger
	series *EquitySeries
	cumPnL float64
	nextID int

	strat Strategy
	vol   indicators.Volatility

	// per-bar event markers for snapshot annotations
	entered *Annotation
	exited  *Annotation
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Contract.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Account.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		contract: cfg.Contract,
		cal:      cfg.Calendar,
		log:      logger.OrNop(cfg.Logger),
		acct:     cfg.Account,
		limits:   cfg.Limits,
		stop:     risk.NewTrailingStop(cfg.StopMultiplier, cfg.StopFallbackPct),
		ledger:   &Ledger{},
		series:   &EquitySeries{},
		nextID:   1,
	}, nil
}

// Run replays the feed through the strategy until the feed is exhausted.
// An engine runs once; build a new one to replay again.
func (e *Engine) Run(ctx context.Context, feed market.BarFeed, strat Strategy) (*Result, error) {
	if feed == nil {
		return nil, fmt.Errorf("backtest: feed is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}
	if e.strat != nil {
		return nil, fmt.Errorf("backtest: engine already ran")
	}
	defer feed.Close()

	e.strat = strat
	if v, ok := strat.(indicators.Volatility); ok {
		e.vol = v
	}

	log := e.log.FromContext(ctx)
	log.Info("backtest started",
		logger.StringField("strategy", strat.Name()),
		logger.StringField("symbol", e.contract.Symbol),
		logger.FloatField("wallet", e.acct.Wallet))

	initial := e.acct.Wallet
	var first, last time.Time

	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar, ok, err := feed.Next()
		if err != nil {
			return nil, fmt.Errorf("backtest: read bar %d: %w", idx, err)
		}
		if !ok {
			break
		}
		if first.IsZero() {
			first = bar.Date
		}
		last = bar.Date

		if err := e.step(idx, bar); err != nil {
			return nil, fmt.Errorf("backtest: %s: %w", bar.Date.Format(time.DateOnly), err)
		}
	}

	res := &Result{
		Strategy:      strat.Name(),
		Contract:      e.contract,
		Start:         first,
		End:           last,
		InitialWallet: initial,
		FinalWallet:   e.acct.Wallet,
		Trades:        e.ledger.Trades(),
		Series:        e.series.Snapshots(),
	}
	if t := e.pos.open(); t != nil {
		cp := *t
		res.OpenTrade = &cp
	}

	log.Info("backtest finished",
		logger.IntField("bars", e.series.Len()),
		logger.IntField("trades", e.ledger.Len()),
		logger.FloatField("wallet", e.acct.Wallet),
		logger.Field("open_trade", res.OpenTrade != nil))

	return res, nil
}

// step runs the fixed per-bar sequence.
func (e *Engine) step(idx int, bar market.Bar) error {
	c := &Context{
		e:        e,
		Bar:      bar,
		Index:    idx,
		Disabled: !e.cfg.StartDate.IsZero() && bar.Date.Before(e.cfg.StartDate),
	}
	if e.cfg.Reference != nil {
		c.ref, c.hasRef = e.cfg.Reference.BarOn(bar.Date)
	}
	e.entered, e.exited = nil, nil

	// open session
	c.Session = SessionOpen
	if !c.Disabled && e.pos.state == stateOpen {
		if err := e.strat.OnOpenExit(c); err != nil {
			return err
		}
	}
	if !c.Disabled && e.pos.flat() {
		if err := e.strat.OnOpenEntry(c); err != nil {
			return err
		}
	}

	if err := e.strat.OnAnalytics(c); err != nil {
		return err
	}

	// close session
	c.Session = SessionClose
	if !c.Disabled && e.pos.state == stateOpen {
		if err := e.strat.OnCloseExit(c); err != nil {
			return err
		}
	}
	if t := e.pos.open(); t != nil {
		e.maintain(t, bar)
	}
	if !c.Disabled && e.pos.flat() {
		if err := e.strat.OnCloseEntry(c); err != nil {
			return err
		}
	}

	e.snapshot(bar)
	e.settle()

	if e.pos.flat() {
		e.stop.Reset()
		if err := e.strat.OnFlat(c); err != nil {
			return err
		}
		if la, ok := e.strat.(LimitAdjuster); ok {
			la.UpdatePositionLimit(c)
			la.UpdateWalletAlloc(c)
			la.UpdateDollarLimit(c)
		}
	}
	return nil
}

func (e *Engine) enter(c *Context, side risk.Side, price float64, signal string) (bool, error) {
	if !e.pos.flat() {
		return false, ErrAlreadyInPosition
	}

	sz, ok, err := risk.Size(side, e.contract, price, e.acct, e.limits)
	if err != nil {
		return false, err
	}
	if !ok {
		e.log.Debug("entry skipped: no units",
			logger.StringField("date", c.Date().Format(time.DateOnly)),
			logger.StringField("signal", signal),
			logger.FloatField("wallet", e.acct.Wallet))
		return false, nil
	}

	t := &Trade{
		ID:          e.nextID,
		EntryDate:   c.Date(),
		EntryPrice:  price,
		Size:        sz.Signed(),
		DollarBasis: sz.DollarBasis,
		EntrySignal: signal,
	}
	t.Stop = e.stop.Initialize(side, price, e.vol)
	e.nextID++

	e.pos = position{state: stateOpen, trade: t}
	e.entered = &Annotation{Price: price, Signal: signal}

	e.log.Debug("trade opened",
		logger.IntField("id", t.ID),
		logger.StringField("date", t.EntryDate.Format(time.DateOnly)),
		logger.StringField("session", c.Session.String()),
		logger.StringField("signal", signal),
		logger.FloatField("price", price),
		logger.Field("size", t.Size),
		logger.FloatField("stop", t.Stop))
	return true, nil
}

func (e *Engine) exit(c *Context, price float64, signal string) error {
	t := e.pos.open()
	if t == nil {
		return ErrNoOpenTrade
	}

	value := t.MarkToMarket(e.contract, price)
	e.cumPnL += value

	t.Exit = &TradeExit{
		Date:   c.Date(),
		Price:  price,
		Signal: signal,
		Value:  value,
		Return: value / t.DollarBasis,
		CumPnL: e.cumPnL,
	}
	e.ledger.append(*t)
	e.pos.state = stateSettling
	e.exited = &Annotation{Price: price, Signal: signal}

	e.log.Debug("trade closed",
		logger.IntField("id", t.ID),
		logger.StringField("date", t.Exit.Date.Format(time.DateOnly)),
		logger.StringField("session", c.Session.String()),
		logger.StringField("signal", signal),
		logger.FloatField("price", price),
		logger.FloatField("value", value),
		logger.IntField("duration", t.Duration))
	return nil
}

// maintain ratchets the stop and ages the open trade by one bar.
func (e *Engine) maintain(t *Trade, bar market.Bar) {
	prev := t.Stop
	t.Stop = e.stop.Maintain(bar, prev, e.vol)
	t.Duration++
	if t.Stop != prev {
		e.log.Debug("stop tightened",
			logger.IntField("id", t.ID),
			logger.FloatField("from", prev),
			logger.FloatField("to", t.Stop))
	}
}

func (e *Engine) snapshot(bar market.Bar) {
	sn := Snapshot{
		Date:   bar.Date,
		Close:  bar.Close,
		Entry:  e.entered,
		Exit:   e.exited,
		Wallet: e.acct.Wallet,
	}

	switch e.pos.state {
	case stateOpen:
		t := e.pos.trade
		sn.HasPosition = true
		sn.Position = t.Size
		sn.Stop = t.Stop
		sn.MarkToMarket = t.MarkToMarket(e.contract, bar.Close)
	case stateSettling:
		t := e.pos.trade
		sn.HasPosition = true
		sn.Position = t.Size
		sn.Stop = t.Stop
		sn.MarkToMarket = t.Exit.Value
	}
	sn.Equity = sn.Wallet + sn.MarkToMarket

	e.series.append(sn)
}

// settle credits a trade closed this bar to the wallet and frees the slot.
func (e *Engine) settle() {
	if e.pos.state != stateSettling {
		return
	}
	e.acct.Wallet += e.pos.trade.Exit.Value
	e.pos = position{}
}

// Wallet is the realized cash balance.
func (e *Engine) Wallet() float64 { return e.acct.Wallet }

func (e *Engine) Ledger() *Ledger { return e.ledger }

func (e *Engine) Series() *EquitySeries { return e.series }
