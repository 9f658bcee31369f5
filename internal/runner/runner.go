// Package runner wires a loaded configuration into one backtest: it
// loads bars, builds the engine and strategy, computes metrics and hands
// the result to the journal writers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/calendar"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/pkg/logger"
	"github.com/rustyeddy/backtester/strategies"
)

// Outcome is a finished run.
type Outcome struct {
	RunID   string
	Result  *backtest.Result
	Metrics metrics.Metrics
	Report  *journal.Report
}

type Runner struct {
	cfg   *config.Config
	log   *logger.Logger
	yahoo *market.YahooClient
}

func New(cfg *config.Config, log *logger.Logger) *Runner {
	r := &Runner{cfg: cfg, log: logger.OrNop(log)}
	if cfg.Data.Source == "yahoo" || (cfg.Data.Reference != "" && cfg.Data.ReferencePath == "") {
		r.yahoo = market.NewYahooClient(cfg.Data.YahooURL, cfg.Data.Timeout)
		r.yahoo.SetRequestsPerMinute(cfg.Data.RatePerMinute)
	}
	return r
}

// Bars loads the main and reference series concurrently. The reference
// index is nil when no reference is configured.
func (r *Runner) Bars(ctx context.Context) ([]market.Bar, *market.DateIndex, error) {
	from, to := r.cfg.DataRange()

	var (
		bars []market.Bar
		ref  []market.Bar
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		path := ""
		if r.cfg.Data.Source == "csv" {
			path = r.cfg.Data.Path
		}
		bars, err = r.load(gctx, r.cfg.Contract.Symbol, path, from, to)
		if err != nil {
			return fmt.Errorf("load %s: %w", r.cfg.Contract.Symbol, err)
		}
		return nil
	})
	if r.cfg.Data.Reference != "" || r.cfg.Data.ReferencePath != "" {
		g.Go(func() error {
			var err error
			ref, err = r.load(gctx, r.cfg.Data.Reference, r.cfg.Data.ReferencePath, from, to)
			if err != nil {
				return fmt.Errorf("load reference %s: %w", r.cfg.Data.Reference, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if len(bars) == 0 {
		return nil, nil, errors.New("no bars in range")
	}

	var idx *market.DateIndex
	if ref != nil {
		idx = market.NewDateIndex(ref)
	}
	return bars, idx, nil
}

// load reads path when set and downloads symbol otherwise.
func (r *Runner) load(ctx context.Context, symbol, path string, from, to time.Time) ([]market.Bar, error) {
	if path != "" {
		feed, err := market.NewCSVBarFeed(path, from, to)
		if err != nil {
			return nil, err
		}
		return market.ReadAll(feed)
	}
	if r.yahoo == nil {
		return nil, fmt.Errorf("no data source for %q", symbol)
	}
	return r.yahoo.Bars(ctx, symbol, from, to)
}

// Calendar is the holiday file when configured, otherwise the NYSE
// closures for the years the bars span.
func (r *Runner) Calendar(bars []market.Bar) (*calendar.Calendar, error) {
	if r.cfg.Data.HolidaysPath != "" {
		return calendar.LoadYAML(r.cfg.Data.HolidaysPath)
	}
	first, last := bars[0].Date.Year(), bars[len(bars)-1].Date.Year()
	// one extra year so end-of-week lookahead past the last bar still works
	return calendar.NYSE(first, last+1), nil
}

// Run executes the configured backtest.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	cfg := r.cfg

	contract, err := cfg.ContractSpec()
	if err != nil {
		return nil, err
	}
	strat, err := strategies.ByName(cfg.Strategy, cfg.Settings)
	if err != nil {
		return nil, err
	}

	bars, ref, err := r.Bars(ctx)
	if err != nil {
		return nil, err
	}
	cal, err := r.Calendar(bars)
	if err != nil {
		return nil, err
	}

	runID := id.NewRunID()
	log := r.log.With(zap.String("run_id", runID))

	ecfg := backtest.Config{
		Contract:        contract,
		Account:         cfg.Account(),
		Limits:          cfg.Limits(),
		StartDate:       cfg.Start(),
		StopMultiplier:  cfg.Stop.Multiplier,
		StopFallbackPct: cfg.Stop.FallbackPct,
		Calendar:        cal,
		Logger:          log,
	}
	if ref != nil {
		ecfg.Reference = ref
	}
	eng, err := backtest.NewEngine(ecfg)
	if err != nil {
		return nil, err
	}

	res, err := eng.Run(ctx, market.NewSliceFeed(bars), strat)
	if err != nil {
		return nil, err
	}

	m, err := metrics.FromResult(res)
	if err != nil {
		// undefined metrics are reported, not fatal
		log.Warn("some metrics are undefined", zap.Strings("fields", m.Undefined), zap.Error(err))
	}

	rep, err := journal.NewReport(runID, res, m)
	if err != nil {
		return nil, err
	}
	rep.Run.Dataset = r.dataset()
	if raw, err := yaml.Marshal(cfg); err == nil {
		rep.Run.Config = raw
	}

	return &Outcome{RunID: runID, Result: res, Metrics: m, Report: rep}, nil
}

// Dump writes the outcome in every configured journal format. STDOUT
// tables go to w.
func (r *Runner) Dump(ctx context.Context, w io.Writer, o *Outcome) error {
	d := &journal.Dumper{
		Formats: r.cfg.Journal.Formats,
		Dir:     r.cfg.Journal.Dir,
		DBPath:  r.cfg.Journal.DBPath,
		Stdout:  w,
		Logger:  r.log.Logger,
	}
	return d.Dump(ctx, o.Report)
}

func (r *Runner) dataset() string {
	if r.cfg.Data.Source == "csv" {
		return r.cfg.Data.Path
	}
	return "yahoo:" + r.cfg.Contract.Symbol
}
