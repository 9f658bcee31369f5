// Package calendar answers trading-day questions for strategies. A Calendar
// is built once by the caller and handed to the engine; nothing here is
// cached globally.
package calendar

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Weekdays is indexed Monday=0, matching the weekday names used in
// strategy settings ("MON", "TUE", ...).
var Weekdays = [7]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

type Calendar struct {
	holidays map[time.Time]struct{}
}

// New builds a calendar from an explicit holiday list.
func New(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[day(h)] = struct{}{}
	}
	return c
}

// NYSE returns a calendar with the exchange's full-day closures for the
// given years (inclusive).
func NYSE(fromYear, toYear int) *Calendar {
	var hs []time.Time
	for y := fromYear; y <= toYear; y++ {
		hs = append(hs, nyseHolidays(y)...)
	}
	return New(hs)
}

type holidayFile struct {
	Holidays []string `yaml:"holidays"`
}

// LoadYAML reads a holiday file of the form:
//
//	holidays:
//	  - 2024-01-01
//	  - 2024-01-15
func LoadYAML(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays: %w", err)
	}
	var hf holidayFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parse holidays: %w", err)
	}
	hs := make([]time.Time, 0, len(hf.Holidays))
	for _, s := range hf.Holidays {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("bad holiday %q: %w", s, err)
		}
		hs = append(hs, d)
	}
	return New(hs), nil
}

// Holidays returns the holiday dates in ascending order.
func (c *Calendar) Holidays() []time.Time {
	out := make([]time.Time, 0, len(c.holidays))
	for d := range c.holidays {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.holidays[day(t)]
	return ok
}

func (c *Calendar) IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(t)
}

// NextTradingDay returns the first trading day strictly after t.
func (c *Calendar) NextTradingDay(t time.Time) time.Time {
	d := day(t).AddDate(0, 0, 1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// IsEndOfWeek reports whether t is the last trading day of its week, e.g.
// a Thursday before a Good Friday closure.
func (c *Calendar) IsEndOfWeek(t time.Time) bool {
	_, w1 := day(t).ISOWeek()
	_, w2 := c.NextTradingDay(t).ISOWeek()
	return w1 != w2
}

// IsEndOfMonth reports whether t is the last trading day of its month.
func (c *Calendar) IsEndOfMonth(t time.Time) bool {
	return c.NextTradingDay(t).Month() != day(t).Month()
}

// WeekdayName returns "MON".."SUN".
func WeekdayName(t time.Time) string {
	return Weekdays[(int(t.Weekday())+6)%7]
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
