package search

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/quantsim/lobsim/config"
	"github.com/quantsim/lobsim/pkg/logging"
	"github.com/quantsim/lobsim/pkg/market"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// errDiverged marks a replicate whose objective came back non-finite,
// retried with a perturbed seed before being counted as a loss.
var errDiverged = errors.New("search: replicate diverged")

// CandidateResult is one skew-coefficient candidate's averaged score
// within a regime.
type CandidateResult struct {
	Coefficient float64
	Score       float64
	Survived    int // replicates that produced a usable objective value
}

// RegimeResult is the outcome of searching one (sigma, informed_frac)
// regime: the best candidate from the fine pass, or Usable=false if the
// regime could not produce any usable candidate (spec.md §4.10 per-regime
// failure isolation: one bad regime records a sentinel, the harness does
// not abort).
type RegimeResult struct {
	Regime config.RegimePoint
	Best   CandidateResult
	Usable bool
}

// Harness runs the coarse-to-fine grid search across every configured
// regime (spec.md §4.10). Grounded on
// original_source/experiments/simulations/src/optimal_coefficient_experiment.py's
// two-stage refine loop; parallel regime dispatch via
// golang.org/x/sync/errgroup follows the teacher pack's only errgroup
// consumer pattern (fan out independent work, join on Wait).
type Harness struct {
	cfg *config.GridSearchConfig
	obj Objective
	log *logging.Logger
}

// NewHarness constructs a harness from a grid-search configuration.
func NewHarness(cfg *config.GridSearchConfig) *Harness {
	return &Harness{
		cfg: cfg,
		obj: Objective(cfg.Objective),
		log: logging.NewLogger(logging.INFO),
	}
}

// Run searches every regime concurrently. Each regime's trajectories are
// fully independent (own engine, own agents, own RNG), so regimes are the
// unit of parallelism while a single trajectory stays synchronous
// (spec.md §9).
func (h *Harness) Run(ctx context.Context) ([]RegimeResult, error) {
	results := make([]RegimeResult, len(h.cfg.Regimes))

	g, gctx := errgroup.WithContext(ctx)
	for i, regime := range h.cfg.Regimes {
		i, regime := i, regime
		g.Go(func() error {
			res, err := h.searchRegime(gctx, i, regime)
			if err != nil {
				h.log.Warn(gctx, "regime search failed, recording as unusable",
					zap.Int("regime_index", i), zap.Error(err))
				results[i] = RegimeResult{Regime: regime, Usable: false}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// searchRegime runs the coarse pass over the full [min,max] range, then a
// fine pass refining the interval bracketing the coarse winner.
func (h *Harness) searchRegime(ctx context.Context, regimeIdx int, regime config.RegimePoint) (RegimeResult, error) {
	coarse := logspace(h.cfg.SkewCoeffMin, h.cfg.SkewCoeffMax, h.cfg.CoarseCandidates)
	coarseBest, err := h.evaluateCandidates(ctx, regimeIdx, regime, coarse)
	if err != nil {
		return RegimeResult{}, err
	}
	if coarseBest.Survived == 0 {
		return RegimeResult{Regime: regime, Usable: false}, nil
	}

	lo, hi := refinementBounds(coarse, coarseBest.Coefficient)
	fine := logspace(lo, hi, h.cfg.FineCandidates)
	fineBest, err := h.evaluateCandidates(ctx, regimeIdx, regime, fine)
	if err != nil {
		return RegimeResult{}, err
	}

	best := coarseBest
	if fineBest.Survived > 0 && fineBest.Score > best.Score {
		best = fineBest
	}

	return RegimeResult{Regime: regime, Best: best, Usable: true}, nil
}

// evaluateCandidates scores every candidate in coeffs and returns the best.
func (h *Harness) evaluateCandidates(ctx context.Context, regimeIdx int, regime config.RegimePoint, coeffs []float64) (CandidateResult, error) {
	best := CandidateResult{Score: math.Inf(-1)}
	for _, coeff := range coeffs {
		res, err := h.evaluateCandidate(ctx, regimeIdx, regime, coeff)
		if err != nil {
			return CandidateResult{}, err
		}
		if res.Survived > 0 && res.Score > best.Score {
			best = res
		}
	}
	return best, nil
}

// minSurvivors is the minimum replicate count (out of cfg.Replicates) a
// candidate needs to be considered usable at all: a candidate where a
// bare majority diverged is not trustworthy (spec.md §4.10).
func minSurvivors(replicates int) int {
	return (replicates + 1) / 2
}

// evaluateCandidate runs cfg.Replicates replicates of coeff under common
// random numbers: the same per-replicate seed is reused across every
// candidate in this regime, so score differences reflect the coefficient
// and not noise draws. Averages the surviving (finite) scores with
// gonum.org/v1/gonum/stat.Mean.
func (h *Harness) evaluateCandidate(ctx context.Context, regimeIdx int, regime config.RegimePoint, coeff float64) (CandidateResult, error) {
	scores := make([]float64, 0, h.cfg.Replicates)
	for r := 0; r < h.cfg.Replicates; r++ {
		seed := int64(regimeIdx)*1_000_003 + int64(r)
		score, err := h.runReplicate(ctx, regime, coeff, seed)
		if errors.Is(err, errDiverged) {
			continue
		}
		if err != nil {
			return CandidateResult{}, err
		}
		scores = append(scores, score)
	}

	if len(scores) < minSurvivors(h.cfg.Replicates) {
		return CandidateResult{Coefficient: coeff, Score: math.Inf(-1), Survived: len(scores)}, nil
	}

	return CandidateResult{
		Coefficient: coeff,
		Score:       stat.Mean(scores, nil),
		Survived:    len(scores),
	}, nil
}

// runReplicate simulates one trajectory at (regime, coeff, seed) and
// reduces it to a scalar objective, retrying with a perturbed seed via
// exponential backoff if the trajectory diverges (non-finite objective).
// Uses the same backoff.Retry/NewExponentialBackOff pairing the teacher
// pack uses for its own transient-failure retries.
func (h *Harness) runReplicate(ctx context.Context, regime config.RegimePoint, coeff float64, seed int64) (float64, error) {
	var score float64

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = time.Millisecond
	boff.MaxInterval = 10 * time.Millisecond
	boff.MaxElapsedTime = 100 * time.Millisecond

	attempt := 0
	op := func() error {
		trySeed := seed + int64(attempt)
		attempt++

		traj := h.simulate(regime, coeff, trySeed)
		s, err := Evaluate(h.obj, traj)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !isFinite(s) {
			return errDiverged
		}
		score = s
		return nil
	}

	if err := backoff.Retry(op, boff); err != nil {
		if errors.Is(err, errDiverged) {
			return 0, errDiverged
		}
		return 0, err
	}
	return score, nil
}

// simulate runs one full trajectory for (regime, coeff, seed).
func (h *Harness) simulate(regime config.RegimePoint, coeff float64, seed int64) *market.Trajectory {
	fundamental := market.NewFundamentalProcess(float64(h.cfg.InitialMid), regime.Sigma, seed)
	flow := market.NewInformedFlowGenerator(
		regime.InformedFrac, h.cfg.ArrivalRate, h.cfg.MinVolume, h.cfg.MaxVolume,
		seed+1, market.InformedTraderID, market.NoiseTraderID,
	)
	maker := market.NewMarketMakerAgent(
		market.MakerTraderID, h.cfg.InitialMid, h.cfg.InitialCash,
		h.cfg.HalfSpreadTicks, coeff, h.cfg.QuoteSize,
	)
	loop := market.NewSimulationLoop(fundamental, flow, maker, h.cfg.Horizon)
	return loop.Run(context.Background())
}

// logspace returns n values log-spaced over [lo,hi]. Falls back to linear
// spacing if lo is non-positive, since a log scale is undefined there.
func logspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	if lo <= 0 {
		out := make([]float64, n)
		step := (hi - lo) / float64(n-1)
		for i := range out {
			out[i] = lo + step*float64(i)
		}
		return out
	}
	logLo, logHi := math.Log(lo), math.Log(hi)
	step := (logHi - logLo) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Exp(logLo + step*float64(i))
	}
	return out
}

// refinementBounds returns the interval bracketing bestCoeff within the
// coarse grid, for the fine pass to search within.
func refinementBounds(coeffs []float64, bestCoeff float64) (lo, hi float64) {
	idx := 0
	for i, c := range coeffs {
		if c == bestCoeff {
			idx = i
			break
		}
	}
	lo, hi = coeffs[0], coeffs[len(coeffs)-1]
	if idx > 0 {
		lo = coeffs[idx-1]
	}
	if idx < len(coeffs)-1 {
		hi = coeffs[idx+1]
	}
	return lo, hi
}
