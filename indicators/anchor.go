package indicators

import (
	"github.com/rustyeddy/backtester/market"
)

// AnchorValue is one derived value of WeeklyAnchor.
type AnchorValue struct {
	Anchor market.Bar
	// Breakout is +1 when the bar closed above the anchor high, -1 when it
	// closed below the anchor low, 0 otherwise (and on the anchor bar itself).
	Breakout int
}

// WeeklyAnchor takes the first bar of each week as the anchor and reports
// whether later bars of that week close outside the anchor's range.
type WeeklyAnchor struct {
	derived *DataSeries[AnchorValue]
	anchor  market.Bar
	week    int
	year    int
	have    bool
}

func NewWeeklyAnchor(derivedLen int) *WeeklyAnchor {
	return &WeeklyAnchor{derived: NewDataSeries[AnchorValue](derivedLen)}
}

func (w *WeeklyAnchor) Name() string { return "WeeklyAnchor" }
func (w *WeeklyAnchor) Warmup() int  { return 1 }
func (w *WeeklyAnchor) Ready() bool  { return w.derived.Count() > 0 }

func (w *WeeklyAnchor) Reset() {
	w.derived.Reset()
	w.have = false
}

func (w *WeeklyAnchor) Push(b market.Bar) {
	y, wk := b.Date.ISOWeek()
	if !w.have || y != w.year || wk != w.week {
		w.anchor = b
		w.year, w.week, w.have = y, wk, true
		w.derived.Push(AnchorValue{Anchor: b})
		return
	}

	v := AnchorValue{Anchor: w.anchor}
	switch {
	case b.Close > w.anchor.High:
		v.Breakout = 1
	case b.Close < w.anchor.Low:
		v.Breakout = -1
	}
	w.derived.Push(v)
}

func (w *WeeklyAnchor) Count() int { return w.derived.Count() }

func (w *WeeklyAnchor) ValueAt(lag int) (AnchorValue, bool) {
	return w.derived.ValueAt(lag)
}
