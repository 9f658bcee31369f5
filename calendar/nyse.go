package calendar

import "time"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the n-th weekday wd of the month; n<0 counts from the end.
func nthWeekday(y int, m time.Month, wd time.Weekday, n int) time.Time {
	if n > 0 {
		d := date(y, m, 1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, 1)
		}
		return d.AddDate(0, 0, 7*(n-1))
	}
	d := date(y, m+1, 1).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// observed shifts a fixed-date holiday off the weekend.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// easter uses the anonymous Gregorian algorithm.
func easter(y int) time.Time {
	a := y % 19
	b := y / 100
	c := y % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	dd := (h+l-7*m+114)%31 + 1
	return date(y, time.Month(month), dd)
}

func nyseHolidays(y int) []time.Time {
	hs := []time.Time{
		nthWeekday(y, time.January, time.Monday, 3),   // MLK
		nthWeekday(y, time.February, time.Monday, 3),  // Presidents
		easter(y).AddDate(0, 0, -2),                   // Good Friday
		nthWeekday(y, time.May, time.Monday, -1),      // Memorial
		observed(date(y, time.July, 4)),               // Independence
		nthWeekday(y, time.September, time.Monday, 1), // Labor
		nthWeekday(y, time.November, time.Thursday, 4),
		observed(date(y, time.December, 25)),
	}
	// New Year's Day falling on Saturday is not observed on the prior Friday.
	if ny := date(y, time.January, 1); ny.Weekday() != time.Saturday {
		hs = append(hs, observed(ny))
	}
	if y >= 2022 {
		hs = append(hs, observed(date(y, time.June, 19)))
	}
	return hs
}
