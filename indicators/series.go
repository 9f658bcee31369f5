package indicators

// DataSeries keeps the most recent values pushed into it. ValueAt(0) is the
// latest value, ValueAt(1) the one before, and so on.
type DataSeries[T any] struct {
	buf   []T
	head  int // next write position
	count int
	total int
}

// NewDataSeries retains up to length values.
func NewDataSeries[T any](length int) *DataSeries[T] {
	if length <= 0 {
		length = 1
	}
	return &DataSeries[T]{buf: make([]T, length)}
}

func (s *DataSeries[T]) Push(v T) {
	s.buf[s.head] = v
	s.head = (s.head + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	s.total++
}

// Count is the number of retained values, at most the series length.
func (s *DataSeries[T]) Count() int { return s.count }

// Seen is the number of values pushed since the last reset.
func (s *DataSeries[T]) Seen() int { return s.total }

func (s *DataSeries[T]) Len() int { return len(s.buf) }

// ValueAt returns the value lag pushes back. ok is false when lag is out of
// the retained range.
func (s *DataSeries[T]) ValueAt(lag int) (v T, ok bool) {
	if lag < 0 || lag >= s.count {
		return v, false
	}
	idx := (s.head - 1 - lag + 2*len(s.buf)) % len(s.buf)
	return s.buf[idx], true
}

func (s *DataSeries[T]) Reset() {
	var zero T
	for i := range s.buf {
		s.buf[i] = zero
	}
	s.head, s.count, s.total = 0, 0, 0
}
