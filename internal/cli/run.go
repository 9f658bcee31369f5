package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/runner"
)

type runFlags struct {
	strategy string
	symbol   string
	data     string
	from     string
	to       string
	formats  []string
	dir      string
	db       string
	quiet    bool
}

func newRunCmd(rc *RootConfig) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		Long: `Run replays daily bars through a strategy and writes the trade
ledger, equity series and metrics in each configured journal format.

Flags override the matching config file values.

Example:
  backtester run -c spy.yaml
  backtester run --strategy nday --symbol SPY --data SPY.csv --format STDOUT,CSV`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			if err := f.apply(cfg); err != nil {
				return err
			}

			log, err := rc.Logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return execRun(ctx, cmd, cfg, runner.New(cfg, log), f.quiet, log.Logger)
		},
	}

	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "strategy name")
	cmd.Flags().StringVar(&f.symbol, "symbol", "", "contract symbol")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "bar CSV path (implies --source csv)")
	cmd.Flags().StringVar(&f.from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (exclusive), YYYY-MM-DD")
	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", nil, "journal formats: STDOUT,CSV,JSON,HTML,ORG,SQLITE")
	cmd.Flags().StringVarP(&f.dir, "out", "o", "", "directory for journal files")
	cmd.Flags().StringVar(&f.db, "db", "", "SQLite journal database")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print the run summary")

	return cmd
}

func (f *runFlags) apply(cfg *config.Config) error {
	if f.strategy != "" {
		cfg.Strategy = f.strategy
	}
	if f.symbol != "" {
		cfg.Contract.Symbol = strings.ToUpper(f.symbol)
	}
	if f.data != "" {
		cfg.Data.Source = "csv"
		cfg.Data.Path = f.data
	}
	if f.from != "" {
		cfg.Data.From = f.from
	}
	if f.to != "" {
		cfg.Data.To = f.to
	}
	if len(f.formats) > 0 {
		cfg.Journal.Formats = f.formats
	}
	if f.dir != "" {
		cfg.Journal.Dir = f.dir
	}
	if f.db != "" {
		cfg.Journal.DBPath = f.db
	}
	return cfg.Validate()
}

func execRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, r *runner.Runner, quiet bool, log *zap.Logger) error {
	out, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if err := r.Dump(ctx, cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !quiet {
		runner.PrintSummary(cmd.OutOrStdout(), out.Report.Run)
	}
	log.Info("run complete",
		zap.String("run_id", out.RunID),
		zap.String("strategy", cfg.Strategy),
		zap.Int("trades", len(out.Result.Trades)))
	return nil
}
