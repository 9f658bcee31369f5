package indicators

import (
	"fmt"
)

// SMA is a streaming simple moving average.
type SMA struct {
	period int
	window *DataSeries[float64]
	sum    float64
}

// NewSMA creates a Simple Moving Average over the given period.
func NewSMA(period int) *SMA {
	if period <= 0 {
		period = 1
	}
	return &SMA{
		period: period,
		window: NewDataSeries[float64](period),
	}
}

func (m *SMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SMA) Warmup() int {
	return m.period
}

func (m *SMA) Reset() {
	m.window.Reset()
	m.sum = 0
}

func (m *SMA) Push(x float64) {
	// Drop the value about to be overwritten.
	if m.window.Count() == m.period {
		oldest, _ := m.window.ValueAt(m.period - 1)
		m.sum -= oldest
	}
	m.window.Push(x)
	m.sum += x
}

func (m *SMA) Ready() bool {
	return m.window.Count() >= m.period
}

func (m *SMA) Count() int { return m.window.Count() }

func (m *SMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}
