// Package montecarlo repeats the wealth projection with randomized annual
// returns and reduces the resulting paths to percentile bands.
package montecarlo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrDegenerateMonteCarloConfig indicates a run count that cannot be reduced
// to percentiles.
var ErrDegenerateMonteCarloConfig = errors.New("degenerate monte carlo configuration")

// Ranks of the reported percentile paths.
const (
	RankLow    = 0.25
	RankMedian = 0.50
	RankHigh   = 0.75
)

// Percentile is a synthetic path built from one rank at every age, with its
// own key points.
type Percentile struct {
	Rank      float64               `json:"rank"`
	Path      simulation.WealthPath `json:"path"`
	KeyPoints simulation.KeyPoints  `json:"keyPoints"`
}

// Result aggregates a Monte Carlo invocation.
type Result struct {
	RunCount int        `json:"runCount"`
	P25      Percentile `json:"p25"`
	P50      Percentile `json:"p50"`
	P75      Percentile `json:"p75"`
	// SuccessRate is the percentage of runs never depleted.
	SuccessRate float64 `json:"successRate"`
	// TargetRate is the percentage of runs that reached the target.
	TargetRate float64 `json:"targetRate"`
}

// Percentiles returns the three bands low to high.
func (r *Result) Percentiles() []Percentile {
	return []Percentile{r.P25, r.P50, r.P75}
}

type run struct {
	path      simulation.WealthPath
	keyPoints simulation.KeyPoints
}

// Run projects in runCount times, drawing each year's market return as
// AnnualReturn + AnnualVolatility*Z with Z standard normal from source.
func Run(logger *zap.Logger, in simulation.Input, runCount int, source Source) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runCount <= 0 {
		return nil, fmt.Errorf("%w: run count must be positive, got %d", ErrDegenerateMonteCarloConfig, runCount)
	}
	if runCount > constants.MaxMonteCarloRuns {
		return nil, fmt.Errorf("%w: run count %d exceeds maximum %d", simulation.ErrInvalidInput, runCount, constants.MaxMonteCarloRuns)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: random source is required", simulation.ErrInvalidInput)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	runs, err := runPaths(in, runCount, source)
	if err != nil {
		return nil, err
	}
	result := reduce(in, runs)

	logger.Debug("monte carlo simulation complete",
		zap.String("op", "montecarlo.Run"),
		zap.Int("runs", runCount),
		zap.Float64("volatility", in.AnnualVolatility),
		zap.Float64("successRate", result.SuccessRate),
		zap.Float64("targetRate", result.TargetRate),
		zap.Float64("medianEndValue", result.P50.KeyPoints.EndValue),
	)
	return result, nil
}

func runPaths(in simulation.Input, runCount int, source Source) ([]run, error) {
	sampler := NewNormalSampler(source)
	mean, volatility := in.AnnualReturn, in.AnnualVolatility
	randomReturn := func(int) float64 {
		return mean + volatility*sampler.Next()
	}

	runs := make([]run, runCount)
	for i := range runs {
		path, kp, err := simulation.Project(in, randomReturn, simulation.InclusiveDepletion)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		runs[i] = run{path: path, keyPoints: kp}
	}
	return runs, nil
}

// reduce ranks the balances of every age independently and counts outcomes.
func reduce(in simulation.Input, runs []run) *Result {
	n := len(runs)
	years := len(runs[0].path)

	ranks := []float64{RankLow, RankMedian, RankHigh}
	bands := make([]simulation.WealthPath, len(ranks))
	for i := range bands {
		bands[i] = make(simulation.WealthPath, years)
	}

	column := make([]float64, n)
	for year := 0; year < years; year++ {
		for i, r := range runs {
			column[i] = r.path[year].Balance
		}
		sort.Float64s(column)
		age := runs[0].path[year].Age
		for b, rank := range ranks {
			bands[b][year] = simulation.Point{Age: age, Balance: column[rankIndex(n, rank)]}
		}
	}

	finals := make([]float64, n)
	for i, r := range runs {
		finals[i] = r.keyPoints.FinalBalance
	}
	sort.Float64s(finals)

	survived, reached := 0, 0
	for _, r := range runs {
		if !r.keyPoints.Depleted() {
			survived++
		}
		if r.keyPoints.TargetReached() {
			reached++
		}
	}

	percentile := func(i int) Percentile {
		return Percentile{
			Rank:      ranks[i],
			Path:      bands[i],
			KeyPoints: simulation.ExtractKeyPoints(bands[i], finals[rankIndex(n, ranks[i])], in.TargetNetWorth, in.RetireAge),
		}
	}

	return &Result{
		RunCount:    n,
		P25:         percentile(0),
		P50:         percentile(1),
		P75:         percentile(2),
		SuccessRate: mathutil.CalculatePercentage(float64(survived), float64(n)),
		TargetRate:  mathutil.CalculatePercentage(float64(reached), float64(n)),
	}
}

// rankIndex is the 0-based order statistic floor(n*rank).
func rankIndex(n int, rank float64) int {
	idx := int(float64(n) * rank)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
