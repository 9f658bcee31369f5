package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// BarFeed yields bars in date order, one at a time. Implementations are
// deterministic and return (ok=false, err=nil) once exhausted.
type BarFeed interface {
	Next() (b Bar, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory bar slice.
type SliceFeed struct {
	bars []Bar
	idx  int
}

func NewSliceFeed(bars []Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (Bar, bool, error) {
	if f.idx >= len(f.bars) {
		return Bar{}, false, nil
	}
	b := f.bars[f.idx]
	f.idx++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// ReadAll drains a feed into a slice and closes it.
func ReadAll(f BarFeed) ([]Bar, error) {
	defer f.Close()

	var out []Bar
	for {
		b, ok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, b)
	}
}

// CSVBarFeed reads daily bar rows:
//
//	Date,Open,High,Low,Close[,Adj Close][,Volume]
//
// Date is YYYY-MM-DD or RFC3339. A header row is allowed and columns are
// located by name when present. Rows outside [from, to) are skipped.
type CSVBarFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
	cols     columns
	prev     time.Time
}

type columns struct {
	date, open, high, low, close, volume int
}

var defaultColumns = columns{date: 0, open: 1, high: 2, low: 3, close: 4, volume: -1}

func NewCSVBarFeed(path string, from, to time.Time) (*CSVBarFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVBarFeed{f: f, r: r, from: from, to: to, cols: defaultColumns}, nil
}

func (f *CSVBarFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVBarFeed) Next() (Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				f.cols = headerColumns(row)
				continue
			}
		}

		b, ok, err := f.parseRow(row)
		if err != nil {
			return Bar{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(b.Date, f.from, f.to) {
			continue
		}
		if !f.prev.IsZero() && !b.Date.After(f.prev) {
			return Bar{}, false, fmt.Errorf("bars out of order: %s after %s",
				b.Date.Format(time.DateOnly), f.prev.Format(time.DateOnly))
		}
		f.prev = b.Date
		return b, true, nil
	}
}

func headerColumns(row []string) columns {
	c := columns{date: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "time":
			c.date = i
		case "open":
			c.open = i
		case "high":
			c.high = i
		case "low":
			c.low = i
		case "close":
			c.close = i
		case "volume":
			c.volume = i
		}
	}
	return c
}

func (f *CSVBarFeed) parseRow(row []string) (Bar, bool, error) {
	c := f.cols
	if c.date < 0 || c.open < 0 || c.high < 0 || c.low < 0 || c.close < 0 {
		return Bar{}, false, fmt.Errorf("csv header must name Date,Open,High,Low,Close")
	}
	need := max(c.date, c.open, c.high, c.low, c.close)
	if len(row) <= need {
		return Bar{}, false, nil
	}

	ds := strings.TrimSpace(row[c.date])
	if ds == "" {
		return Bar{}, false, nil
	}
	d, err := parseDate(ds)
	if err != nil {
		return Bar{}, false, err
	}

	var b Bar
	b.Date = d
	for _, p := range []struct {
		dst *float64
		idx int
	}{{&b.Open, c.open}, {&b.High, c.high}, {&b.Low, c.low}, {&b.Close, c.close}} {
		s := strings.TrimSpace(row[p.idx])
		// Yahoo exports use "null" for missing sessions.
		if s == "" || strings.EqualFold(s, "null") {
			return Bar{}, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad price %q on %s: %w", s, ds, err)
		}
		*p.dst = v
	}
	if c.volume >= 0 && c.volume < len(row) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[c.volume]), 64); err == nil {
			b.Volume = v
		}
	}
	return b, true, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return parseDate(s)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return Day(t), nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
