package journal

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/metrics"
)

// Report bundles everything a run produced for the dump writers.
type Report struct {
	RunID   string
	Run     BacktestRun
	Trades  []TradeRecord
	Series  []EquitySnapshot
	Metrics metrics.Metrics

	result *backtest.Result
}

// NewReport converts a finished run into records.
func NewReport(runID string, r *backtest.Result, m metrics.Metrics) (*Report, error) {
	rep := &Report{
		RunID:   runID,
		Run:     NewBacktestRun(runID, r, m),
		Metrics: m,
		result:  r,
	}
	for _, t := range r.Trades {
		rec, err := NewTradeRecord(runID, r.Contract.Symbol, t)
		if err != nil {
			return nil, err
		}
		rep.Trades = append(rep.Trades, rec)
	}
	for _, s := range r.Series {
		rep.Series = append(rep.Series, NewEquitySnapshot(runID, s))
	}
	return rep, nil
}

// Table is a rendered grid of strings.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// centered columns; all others are right aligned
var centered = map[string]bool{
	"Date": true, "InDate": true, "ExDate": true, "InSignal": true, "ExSignal": true, "Side": true,
}

func (t Table) Centered(col string) bool { return centered[col] }

func TradesTable(trades []TradeRecord) Table {
	tbl := Table{
		Title: "Trades",
		Columns: []string{"ID", "Side", "Size", "InDate", "InPrice", "InSignal",
			"ExDate", "ExPrice", "ExSignal", "Basis", "Duration", "Value", "Return", "CumPnL"},
	}
	for _, t := range trades {
		tbl.Rows = append(tbl.Rows, []string{
			strconv.Itoa(t.TradeID), t.Side, strconv.FormatInt(t.Size, 10),
			date(t.EntryDate), price(t.EntryPrice), t.EntrySignal,
			date(t.ExitDate), price(t.ExitPrice), t.ExitSignal,
			money(t.DollarBasis), strconv.Itoa(t.Duration),
			money(t.Value), ratio(t.Return), money(t.CumPnL),
		})
	}
	return tbl
}

func SeriesTable(series []EquitySnapshot) Table {
	tbl := Table{
		Title: "Trade Series",
		Columns: []string{"Date", "Close", "InPrice", "InSignal", "ExPrice", "ExSignal",
			"Position", "Stop", "MTM", "Wallet", "Equity"},
	}
	for _, e := range series {
		row := equityRow(e)
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

func MetricsTable(m metrics.Metrics) Table {
	return Table{
		Title:   "Metrics",
		Columns: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Sharpe", ratio(m.Sharpe)},
			{"CAGR", ratio(m.CAGR)},
			{"MaxDrawdown", ratio(m.MaxDrawdown)},
			{"Trades", strconv.Itoa(m.TradeCount)},
			{"WinRate", ratio(m.WinRate)},
			{"ProfitFactor", ratio(m.ProfitFactor)},
			{"AvgWin", ratio(m.AvgWin)},
			{"AvgLoss", ratio(m.AvgLoss)},
			{"Years", ratio(m.Years)},
			{"TotalReturn", ratio(m.TotalReturn)},
		},
	}
}

// WriteText prints the table with aligned columns.
func (t Table) WriteText(w io.Writer) error {
	if t.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n", t.Title); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t")+"\t")
	for _, r := range t.Rows {
		fmt.Fprintln(tw, strings.Join(r, "\t")+"\t")
	}
	return tw.Flush()
}

// WriteText prints trades, series and metrics tables.
func (r *Report) WriteText(w io.Writer) error {
	for _, t := range []Table{TradesTable(r.Trades), SeriesTable(r.Series), MetricsTable(r.Metrics)} {
		if err := t.WriteText(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// jsonFloat encodes NaN and Inf as null, which encoding/json rejects.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	x := float64(f)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(x)
}

type jsonMetrics struct {
	Sharpe       jsonFloat `json:"sharpe"`
	CAGR         jsonFloat `json:"cagr"`
	MaxDrawdown  jsonFloat `json:"max_drawdown"`
	TradeCount   int       `json:"trade_count"`
	WinRate      jsonFloat `json:"win_rate"`
	ProfitFactor jsonFloat `json:"profit_factor"`
	AvgWin       jsonFloat `json:"avg_win"`
	AvgLoss      jsonFloat `json:"avg_loss"`
	Years        jsonFloat `json:"years"`
	TotalReturn  jsonFloat `json:"total_return"`
	Undefined    []string  `json:"undefined,omitempty"`
}

type jsonTrade struct {
	ID          int     `json:"id"`
	Side        string  `json:"side"`
	Size        int64   `json:"size"`
	EntryDate   string  `json:"entry_date"`
	EntryPrice  float64 `json:"entry_price"`
	EntrySignal string  `json:"entry_signal"`
	ExitDate    string  `json:"exit_date"`
	ExitPrice   float64 `json:"exit_price"`
	ExitSignal  string  `json:"exit_signal"`
	DollarBasis float64 `json:"dollar_basis"`
	Duration    int     `json:"duration"`
	Stop        float64 `json:"stop"`
	Value       float64 `json:"value"`
	Return      float64 `json:"return"`
	CumPnL      float64 `json:"cum_pnl"`
}

type jsonSnapshot struct {
	Date         string   `json:"date"`
	Close        float64  `json:"close"`
	EntryPrice   *float64 `json:"entry_price,omitempty"`
	EntrySignal  string   `json:"entry_signal,omitempty"`
	ExitPrice    *float64 `json:"exit_price,omitempty"`
	ExitSignal   string   `json:"exit_signal,omitempty"`
	Position     *int64   `json:"position"`
	Stop         *float64 `json:"stop"`
	MarkToMarket float64  `json:"mark_to_market"`
	Wallet       float64  `json:"wallet"`
	Equity       float64  `json:"equity"`
}

type jsonReport struct {
	RunID    string         `json:"run_id"`
	Strategy string         `json:"strategy"`
	Symbol   string         `json:"symbol"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Metrics  jsonMetrics    `json:"metrics"`
	Trades   []jsonTrade    `json:"trades"`
	Series   []jsonSnapshot `json:"series"`
}

// WriteJSON writes the report as one indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	m := r.Metrics
	out := jsonReport{
		RunID:    r.RunID,
		Strategy: r.Run.Strategy,
		Symbol:   r.Run.Symbol,
		Start:    date(r.Run.Start),
		End:      date(r.Run.End),
		Metrics: jsonMetrics{
			Sharpe:       jsonFloat(m.Sharpe),
			CAGR:         jsonFloat(m.CAGR),
			MaxDrawdown:  jsonFloat(m.MaxDrawdown),
			TradeCount:   m.TradeCount,
			WinRate:      jsonFloat(m.WinRate),
			ProfitFactor: jsonFloat(m.ProfitFactor),
			AvgWin:       jsonFloat(m.AvgWin),
			AvgLoss:      jsonFloat(m.AvgLoss),
			Years:        jsonFloat(m.Years),
			TotalReturn:  jsonFloat(m.TotalReturn),
			Undefined:    m.Undefined,
		},
		Trades: make([]jsonTrade, 0, len(r.Trades)),
		Series: make([]jsonSnapshot, 0, len(r.Series)),
	}
	for _, t := range r.Trades {
		out.Trades = append(out.Trades, jsonTrade{
			ID: t.TradeID, Side: t.Side, Size: t.Size,
			EntryDate: date(t.EntryDate), EntryPrice: t.EntryPrice, EntrySignal: t.EntrySignal,
			ExitDate: date(t.ExitDate), ExitPrice: t.ExitPrice, ExitSignal: t.ExitSignal,
			DollarBasis: t.DollarBasis, Duration: t.Duration, Stop: t.Stop,
			Value: t.Value, Return: t.Return, CumPnL: t.CumPnL,
		})
	}
	for _, e := range r.Series {
		s := jsonSnapshot{
			Date: date(e.Date), Close: e.Close,
			EntryPrice: e.EntryPrice, EntrySignal: e.EntrySignal,
			ExitPrice: e.ExitPrice, ExitSignal: e.ExitSignal,
			MarkToMarket: e.MarkToMarket, Wallet: e.Wallet, Equity: e.Equity,
		}
		if e.HasPosition {
			pos, stop := e.Position, e.Stop
			s.Position, s.Stop = &pos, &stop
		}
		out.Series = append(out.Series, s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// HTMLStyle picks the table colors.
type HTMLStyle struct {
	Hard string
	Soft string
}

var (
	BlueStyle  = HTMLStyle{Hard: "#0E2A52", Soft: "#315BA5"}
	MonoStyle  = HTMLStyle{Hard: "#282A2D", Soft: "#5C5E5F"}
	htmlTables = template.Must(template.New("tables").Funcs(template.FuncMap{
		"even": func(i int) bool { return i%2 == 0 },
		"cell": func(t Table, i int) string { return t.Columns[i] },
	}).Parse(htmlTemplate))
)

// WriteHTML renders trades, series and metrics as styled HTML tables.
func (r *Report) WriteHTML(w io.Writer, style HTMLStyle) error {
	if style.Hard == "" {
		style = BlueStyle
	}
	return htmlTables.Execute(w, struct {
		Style  HTMLStyle
		Tables []Table
	}{style, []Table{TradesTable(r.Trades), SeriesTable(r.Series), MetricsTable(r.Metrics)}})
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Backtest</title></head>
<body>
{{- $s := .Style }}
{{- range $t := .Tables }}
<div style="color: {{$s.Hard}}; font-family: Verdana; font-size: 16pt; text-align: left; margin-top: 20px; margin-bottom: 20px;">&nbsp;&nbsp;{{$t.Title}}</div>
<table border="0">
<tr>
{{- range $t.Columns }}
<th style="font-family: Verdana; font-size: 11pt; padding: 8px; background-color: {{$s.Hard}}; color: white; text-align: {{if $t.Centered .}}center{{else}}right{{end}};">{{.}}</th>
{{- end }}
</tr>
{{- range $i, $row := $t.Rows }}
<tr>
{{- range $j, $v := $row }}
<td style="padding: 5px; font-family: Verdana; font-size: 12pt; {{if even $i}}background-color: {{$s.Soft}}; color: white;{{else}}background-color: white; color: {{$s.Hard}};{{end}} text-align: {{if $t.Centered (cell $t $j)}}center{{else}}right{{end}};">{{$v}}</td>
{{- end }}
</tr>
{{- end }}
</table>
{{- end }}
</body>
</html>
`
