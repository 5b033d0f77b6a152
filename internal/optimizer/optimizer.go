// Package optimizer searches for the largest annual withdrawal the
// deterministic path can fund through age 100.
package optimizer

import (
	"fmt"
	"math"

	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/format"
	"github.com/tpma1205/lifecycle-index-sim/pkg/mathutil"
	"github.com/tpma1205/lifecycle-index-sim/pkg/optimization"
	"go.uber.org/zap"
)

const (
	// FieldAnnualWithdrawal is the only field the optimizer adjusts.
	FieldAnnualWithdrawal = "annualWithdrawal"

	DefaultTolerance     = constants.CurrencyTolerance
	DefaultMaxIterations = 200
)

// Config bounds the search. Nil bounds are derived from the input.
type Config struct {
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Tolerance     float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxIterations int      `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
}

// Validate checks the explicit bounds and search limits.
func (c Config) Validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("maxIterations cannot be negative")
	}
	if c.Min != nil && *c.Min < 0 {
		return fmt.Errorf("min withdrawal cannot be negative")
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("min withdrawal %.2f exceeds max %.2f", *c.Min, *c.Max)
	}
	return nil
}

type evaluation struct {
	value     float64
	keyPoints simulation.KeyPoints
}

func (e evaluation) feasible() bool {
	return !e.keyPoints.Depleted()
}

// MaxSustainableWithdrawal bisects on the present-value annual withdrawal for
// the largest value whose deterministic path is never depleted.
func MaxSustainableWithdrawal(logger *zap.Logger, in simulation.Input, cfg Config) (optimization.Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return optimization.Summary{}, fmt.Errorf("%w: %v", simulation.ErrInvalidInput, err)
	}
	if err := in.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	lower := 0.0
	if cfg.Min != nil {
		lower = *cfg.Min
	}
	var upper float64
	if cfg.Max != nil {
		upper = *cfg.Max
	} else {
		bound, err := upperBound(in)
		if err != nil {
			return optimization.Summary{}, err
		}
		upper = math.Max(bound, lower)
	}

	lowerEval, err := evaluate(in, lower)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := evaluate(in, upper)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Field:           FieldAnnualWithdrawal,
		Original:        in.AnnualWithdrawal,
		OriginalDisplay: format.Currency(in.AnnualWithdrawal),
		Lower:           lower,
		Upper:           upper,
	}

	iterations := 0
	finalEval := lowerEval
	converged := false
	switch {
	case !lowerEval.feasible():
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"the balance is depleted even at the minimum withdrawal %s", format.Currency(lower)))
	case upperEval.feasible():
		finalEval = upperEval
		converged = true
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"every withdrawal up to %s is sustainable", format.Currency(upper)))
	default:
		lo, hi := lower, upper
		for iterations < cfg.MaxIterations && !mathutil.WithinTolerance(hi, lo, cfg.Tolerance) {
			mid := lo + (hi-lo)/2
			evalMid, err := evaluate(in, mid)
			if err != nil {
				return optimization.Summary{}, err
			}
			iterations++
			if evalMid.feasible() {
				finalEval = evalMid
				if mid == lo {
					break
				}
				lo = mid
			} else {
				if mid == hi {
					break
				}
				hi = mid
			}
		}
		converged = mathutil.WithinTolerance(hi, lo, cfg.Tolerance)
		if !converged {
			summary.Notes = append(summary.Notes, fmt.Sprintf(
				"stopped after %d iterations with a bracket of %s", iterations, format.Currency(hi-lo)))
		}
	}

	summary.Value = finalEval.value
	summary.ValueDisplay = format.Currency(finalEval.value)
	summary.RetirementValue = finalEval.keyPoints.RetirementValue
	summary.EndValue = finalEval.keyPoints.EndValue
	summary.Iterations = iterations
	summary.Converged = converged

	logger.Info("optimizer searched annual withdrawal",
		zap.String("op", "optimizer.MaxSustainableWithdrawal"),
		zap.Float64("originalNumeric", summary.Original),
		zap.Float64("optimizedNumeric", summary.Value),
		zap.String("optimizedDisplay", summary.ValueDisplay),
		zap.Float64("lower", lower),
		zap.Float64("upper", upper),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}

func evaluate(in simulation.Input, withdrawal float64) (evaluation, error) {
	in.AnnualWithdrawal = withdrawal
	_, kp, err := simulation.Project(in, func(int) float64 { return in.AnnualReturn }, simulation.StrictDepletion)
	if err != nil {
		return evaluation{}, err
	}
	return evaluation{value: withdrawal, keyPoints: kp}, nil
}

// upperBound is a withdrawal that exceeds the balance entering retirement in
// the first retirement year, expressed in today's currency.
func upperBound(in simulation.Input) (float64, error) {
	probe, err := evaluate(in, 0)
	if err != nil {
		return 0, err
	}
	inflate := mathutil.CompoundFactor(in.AnnualInflation, in.RetireAge-in.CurrentAge)
	return math.Max(probe.keyPoints.RetirementValue, 0)/inflate*1.01 + 1, nil
}
