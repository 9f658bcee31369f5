package journal

import (
	"fmt"
	"strings"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured
// facts go in the PROPERTIES drawer; Review is left for notes.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade %d: %s %s %s\n", t.TradeID, t.Symbol, t.Side, date(t.EntryDate))
	b.WriteString(":PROPERTIES:\n")
	if t.RunID != "" {
		fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	}
	fmt.Fprintf(&b, ":TRADE_ID: %d\n", t.TradeID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIZE: %d\n", t.Size)
	fmt.Fprintf(&b, ":ENTRY: %s %s %s\n", date(t.EntryDate), price(t.EntryPrice), t.EntrySignal)
	fmt.Fprintf(&b, ":EXIT: %s %s %s\n", date(t.ExitDate), price(t.ExitPrice), t.ExitSignal)
	fmt.Fprintf(&b, ":DURATION: %d\n", t.Duration)
	fmt.Fprintf(&b, ":DOLLAR_BASIS: %s\n", money(t.DollarBasis))
	fmt.Fprintf(&b, ":VALUE: %s\n", money(t.Value))
	fmt.Fprintf(&b, ":RETURN: %s\n", ratio(t.Return))
	fmt.Fprintf(&b, ":CUM_PNL: %s\n", money(t.CumPnL))
	b.WriteString(":END:\n")
	b.WriteString("\n*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}
