//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func contains(s, sub string) bool { return strings.Contains(s, sub) }

// writeBarsCSV writes n weekday bars starting 2024-01-02 with closes from fn.
func writeBarsCSV(t *testing.T, path string, n int, fn func(i int) float64) {
	t.Helper()

	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Volume\n")
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	prev := fn(0)
	for i := 0; i < n; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		c := fn(i)
		hi, lo := max(prev, c)+0.5, min(prev, c)-0.5
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,1000\n", d.Format(time.DateOnly), prev, hi, lo, c)
		prev = c
		d = d.AddDate(0, 0, 1)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}
