package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/metrics"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Dataset string

	Symbol   string
	Strategy string
	Config   []byte // settings as written to disk

	Start time.Time
	End   time.Time

	Trades    int
	Wins      int
	Losses    int
	OpenTrade bool

	StartBalance float64
	EndBalance   float64
	NetPL        float64

	Metrics metrics.Metrics

	OrgPath string
	Notes   []string
}

// NewBacktestRun summarizes a finished run.
func NewBacktestRun(runID string, r *backtest.Result, m metrics.Metrics) BacktestRun {
	run := BacktestRun{
		RunID:        runID,
		Created:      time.Now().UTC(),
		Symbol:       r.Contract.Symbol,
		Strategy:     r.Strategy,
		Start:        r.Start,
		End:          r.End,
		Trades:       len(r.Trades),
		OpenTrade:    r.OpenTrade != nil,
		StartBalance: r.InitialWallet,
		EndBalance:   r.FinalWallet,
		NetPL:        r.NetPL(),
		Metrics:      m,
	}
	for _, t := range r.Trades {
		switch v := t.Exit.Value; {
		case v > 0:
			run.Wins++
		case v < 0:
			run.Losses++
		}
	}
	return run
}

var backtestOrgFuncs = template.FuncMap{
	"pct":   func(x float64) string { return fixed(x*100, 2) },
	"money": money,
	"num":   func(x float64) string { return fixed(x, 2) },
	"date":  date,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// RenderOrg returns the run as an Org-mode heading.
func (v *BacktestRun) RenderOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := backtestOrg.Execute(buf, v); err != nil {
		return "", fmt.Errorf("render org: %w", err)
	}
	return buf.String(), nil
}

// WriteBacktestOrg renders the run, followed by trades, to OrgPath.
func (v *BacktestRun) WriteBacktestOrg(trades []TradeRecord) error {
	if v.OrgPath == "" {
		return fmt.Errorf("org path not set")
	}
	s, err := v.RenderOrg()
	if err != nil {
		return err
	}
	if len(trades) > 0 {
		s += "\n" + FormatTradesOrg(trades)
	}
	return os.WriteFile(v.OrgPath, []byte(s), 0644)
}

const BacktestOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{date .Start}}
:END_DATE:    {{date .End}}
:START_BAL:   {{money .StartBalance}}
:END_BAL:     {{money .EndBalance}}
:NET_PL:      {{money .NetPL}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:OPEN_TRADE:  {{if .OpenTrade}}yes{{else}}no{{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Total Return:     *{{pct .Metrics.TotalReturn}}%*
- CAGR:             *{{pct .Metrics.CAGR}}%*
- Sharpe:           *{{num .Metrics.Sharpe}}*
- Max Drawdown:     *{{pct .Metrics.MaxDrawdown}}%*
- Win Rate:         *{{pct .Metrics.WinRate}}%*
- Profit Factor:    *{{num .Metrics.ProfitFactor}}*
- Avg Win:          *{{pct .Metrics.AvgWin}}%*
- Avg Loss:         *{{pct .Metrics.AvgLoss}}%*
- Years:            *{{num .Metrics.Years}}*
{{- if .Metrics.Undefined }}
- Undefined:        {{range $i, $f := .Metrics.Undefined}}{{if $i}}, {{end}}{{$f}}{{end}}
{{- end }}

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}
#+end_src

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
