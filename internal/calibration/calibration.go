// Package calibration suggests a leverage schedule from the ratio of total
// wealth (net assets plus human capital) to net assets.
package calibration

import (
	"math"

	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/mathutil"
	"go.uber.org/zap"
)

// AgeLeverage is the suggestion for one working year.
type AgeLeverage struct {
	Age          int     `json:"age"`
	NetAsset     float64 `json:"netAsset"`
	HumanCapital float64 `json:"humanCapital"`
	Leverage     float64 `json:"leverage"`
}

// Result holds the calibrated schedule and the per-age values behind it.
type Result struct {
	Schedule policy.LeverageSchedule `json:"schedule"`
	ByAge    []AgeLeverage           `json:"byAge"`
}

// Calibrate walks the working years with the suggested leverage and averages
// the suggestions inside each band of in.Leverage. Bands with no working
// years get 1.0. The walk is independent of the final simulation.
func Calibrate(logger *zap.Logger, in simulation.Input) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	contribution := in.AnnualContribution()
	friction := in.FrictionRate()
	discount := 1 + in.AnnualInflation

	byAge := make([]AgeLeverage, 0, in.RetireAge-in.CurrentAge)
	net := in.CurrentNetWorth
	for age := in.CurrentAge; age < in.RetireAge; age++ {
		human := humanCapital(contribution, discount, in.RetireAge-age)

		leverage := constants.MaxCalibratedLeverage
		if net > 0 {
			leverage = mathutil.Clamp((net+human)/net, constants.MinCalibratedLeverage, constants.MaxCalibratedLeverage)
		}
		byAge = append(byAge, AgeLeverage{Age: age, NetAsset: net, HumanCapital: human, Leverage: leverage})

		net = net*(1+policy.EffectiveReturn(leverage, in.AnnualReturn, friction)) + contribution
	}

	multipliers := make([]float64, len(in.Leverage.Bands))
	for i, band := range in.Leverage.Bands {
		var inBand []float64
		for _, al := range byAge {
			if in.Leverage.Contains(band, al.Age) {
				inBand = append(inBand, al.Leverage)
			}
		}
		multipliers[i] = mathutil.Mean(inBand, 1.0)
	}

	schedule, err := in.Leverage.WithMultipliers(multipliers)
	if err != nil {
		return nil, err
	}

	logger.Debug("leverage calibrated",
		zap.String("op", "calibration.Calibrate"),
		zap.Int("workingYears", len(byAge)),
		zap.Float64s("multipliers", multipliers),
	)
	return &Result{Schedule: schedule, ByAge: byAge}, nil
}

// humanCapital is the present value of the remaining end-of-year
// contributions, discounted at discount per year.
func humanCapital(contribution, discount float64, years int) float64 {
	total := 0.0
	for k := 1; k <= years; k++ {
		total += contribution / math.Pow(discount, float64(k))
	}
	return total
}
