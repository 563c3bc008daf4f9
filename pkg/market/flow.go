package market

import (
	"math"
	"math/rand"

	"github.com/quantsim/lobsim/pkg/book"
)

// InformedFlowGenerator emits the tick's incoming market orders: a Poisson
// number of arrivals, each biased toward the fundamental's direction with
// probability informedFrac and otherwise uniformly random (spec.md §4.7).
// Grounded on original_source/lob_sim/agents/informed_traders.py.
//
// No distribution-sampling library appears anywhere in the example pack
// (no gonum/stat/distuv, no other sampler); Poisson arrivals are drawn with
// Knuth's algorithm directly on math/rand, the same stdlib RNG the teacher
// and the rest of the pack use for randomness elsewhere.
type InformedFlowGenerator struct {
	informedFrac float64
	arrivalRate  float64
	minVolume    int64
	maxVolume    int64

	informedTraderID int64
	noiseTraderID    int64

	rng *rand.Rand
}

// NewInformedFlowGenerator constructs a generator. informedTraderID and
// noiseTraderID tag emitted orders so a SimulationLoop can distinguish flow
// classes in observables without the generator depending on book internals.
func NewInformedFlowGenerator(informedFrac, arrivalRate float64, minVolume, maxVolume int64, seed int64, informedTraderID, noiseTraderID int64) *InformedFlowGenerator {
	return &InformedFlowGenerator{
		informedFrac:     informedFrac,
		arrivalRate:      arrivalRate,
		minVolume:        minVolume,
		maxVolume:        maxVolume,
		informedTraderID: informedTraderID,
		noiseTraderID:    noiseTraderID,
		rng:              rand.New(rand.NewSource(seed)),
	}
}

// poissonKnuth draws a Poisson(lambda)-distributed count via Knuth's
// multiplicative algorithm. lambda <= 0 always yields 0.
func poissonKnuth(rng *rand.Rand, lambda float64) int64 {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := int64(0)
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= l {
			break
		}
	}
	return k - 1
}

// Emit generates this tick's market orders given the current fundamental
// value and the book's current mid (mid is false if the book has no two-
// sided market yet). nextOrderID allocates unique order ids.
//
// Each order is informed with probability informedFrac and then trades in
// the fundamental's direction (buy if S > mid, sell if S < mid); a noise
// order, or an informed order while mid is undefined or equal to S, takes
// a fair coin flip for its side. The resulting buy probability is
// 0.5 + 0.5*sign(S-mid)*informedFrac, as in
// original_source/lob_sim/agents/informed_traders.py. Informed orders
// carry informedTraderID, noise orders noiseTraderID.
func (g *InformedFlowGenerator) Emit(fundamentalValue float64, mid float64, midDefined bool, nextOrderID func() int64) []book.Order {
	n := poissonKnuth(g.rng, g.arrivalRate)
	if n == 0 {
		return nil
	}

	direction := 0.0
	if midDefined {
		diff := fundamentalValue - mid
		switch {
		case diff > 0:
			direction = 1
		case diff < 0:
			direction = -1
		}
	}
	orders := make([]book.Order, 0, n)
	for i := int64(0); i < n; i++ {
		informed := g.rng.Float64() < g.informedFrac
		var side book.Side
		switch {
		case informed && direction > 0:
			side = book.Buy
		case informed && direction < 0:
			side = book.Sell
		default:
			side = book.Side(g.rng.Float64() < 0.5)
		}
		volume := g.minVolume
		if g.maxVolume > g.minVolume {
			volume += int64(g.rng.Intn(int(g.maxVolume - g.minVolume + 1)))
		}
		traderID := g.noiseTraderID
		if informed {
			traderID = g.informedTraderID
		}
		orders = append(orders, book.Order{
			ID:       nextOrderID(),
			TraderID: traderID,
			Side:     side,
			Kind:     book.KindMarket,
			Volume:   volume,
		})
	}
	return orders
}
