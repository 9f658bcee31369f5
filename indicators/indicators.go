// Package indicators provides push-style online estimators consumed by
// strategy signal logic.
package indicators

// Indicator is fed one value (or bar) per simulated bar.
// It is deterministic and safe to replay.
type Indicator interface {
	// Name returns a stable identifier like "SMA(10)" or "StDev(50)".
	Name() string

	// Warmup returns how many pushes are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool
}

// Volatility is a price dispersion estimate used by stop policies.
// ok is false until the estimator has warmed up.
type Volatility interface {
	Volatility() (v float64, ok bool)
}
