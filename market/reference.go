package market

import "time"

// ReferenceIndex serves bars of a secondary instrument by date.
type ReferenceIndex interface {
	BarOn(date time.Time) (Bar, bool)
}

// DateIndex is a ReferenceIndex backed by a map of calendar dates.
type DateIndex struct {
	bars map[time.Time]Bar
}

func NewDateIndex(bars []Bar) *DateIndex {
	m := make(map[time.Time]Bar, len(bars))
	for _, b := range bars {
		m[Day(b.Date)] = b
	}
	return &DateIndex{bars: m}
}

func (x *DateIndex) BarOn(date time.Time) (Bar, bool) {
	if x == nil {
		return Bar{}, false
	}
	b, ok := x.bars[Day(date)]
	return b, ok
}

func (x *DateIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.bars)
}
