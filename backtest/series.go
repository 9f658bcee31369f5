package backtest

import (
	"time"
)

// Annotation marks an entry or exit that happened on a snapshot's date.
type Annotation struct {
	Price  float64
	Signal string
}

// Snapshot is the end-of-bar state of a run.
type Snapshot struct {
	Date  time.Time
	Close float64

	Entry *Annotation
	Exit  *Annotation

	// HasPosition is false when flat; Position and Stop are then blank.
	HasPosition bool
	Position    int64
	Stop        float64

	MarkToMarket float64
	Wallet       float64
	Equity       float64 // Wallet + MarkToMarket
}

// EquitySeries holds exactly one snapshot per simulated bar.
type EquitySeries struct {
	snaps []Snapshot
}

func (s *EquitySeries) append(sn Snapshot) {
	s.snaps = append(s.snaps, sn)
}

// Snapshots returns a copy of the series.
func (s *EquitySeries) Snapshots() []Snapshot {
	out := make([]Snapshot, len(s.snaps))
	copy(out, s.snaps)
	return out
}

func (s *EquitySeries) Len() int { return len(s.snaps) }

// Equity returns the total-equity column.
func (s *EquitySeries) Equity() []float64 {
	return EquityValues(s.snaps)
}

// EquityValues extracts the total-equity column from snapshots.
func EquityValues(snaps []Snapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, sn := range snaps {
		out[i] = sn.Equity
	}
	return out
}
