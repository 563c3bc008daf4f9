// Package market implements the simulation harness that drives the book:
// a latent fundamental random walk, a Poisson informed/noise order-flow
// generator, a skew-quoting market maker, and the per-tick loop that
// couples them (spec.md §4.6–§4.9).
package market

import "math/rand"

// FundamentalProcess is the latent random-walk asset value observable
// only to informed traders (spec.md §4.6, GLOSSARY "Fundamental value").
// Grounded on original_source/lob_sim/core/asset.py's Asset.evolve_value.
//
// Boundedness is not enforced, matching the original: the walk can drift
// arbitrarily; conversion to integer ticks happens only at the quoting
// boundary, never inside this process.
type FundamentalProcess struct {
	value float64
	sigma float64
	rng   *rand.Rand
}

// NewFundamentalProcess creates a process starting at initialValue with
// volatility sigma, seeded for reproducibility.
func NewFundamentalProcess(initialValue, sigma float64, seed int64) *FundamentalProcess {
	return &FundamentalProcess{
		value: initialValue,
		sigma: sigma,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Value returns the current fundamental value S_t.
func (f *FundamentalProcess) Value() float64 {
	return f.value
}

// Advance applies one step of the random walk: S_{t+1} = S_t + sigma*eps,
// eps ~ N(0,1). Returns the new value.
func (f *FundamentalProcess) Advance() float64 {
	f.value += f.sigma * f.rng.NormFloat64()
	return f.value
}
