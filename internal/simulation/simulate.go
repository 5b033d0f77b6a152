package simulation

import (
	"fmt"
	"math"

	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"go.uber.org/zap"
)

// ReturnFunc yields the market return applied during the year at age.
type ReturnFunc func(age int) float64

// DepletionRule reports whether a post-withdrawal balance counts as depleted.
type DepletionRule func(balance float64) bool

// StrictDepletion is the deterministic test: only a negative balance is
// depleted. A balance of exactly zero is caught on the following year.
func StrictDepletion(balance float64) bool {
	return balance < 0
}

// InclusiveDepletion is the stochastic test: zero counts as depleted.
func InclusiveDepletion(balance float64) bool {
	return balance <= 0
}

// Result is the outcome of one deterministic projection.
type Result struct {
	Path                  WealthPath `json:"path"`
	KeyPoints             KeyPoints  `json:"keyPoints"`
	TotalContributionCost float64    `json:"totalContributionCost"`
}

// Deterministic projects the input with the mean annual return every year.
func Deterministic(logger *zap.Logger, in Input) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	mean := in.AnnualReturn
	path, kp, err := Project(in, func(int) float64 { return mean }, StrictDepletion)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("op", "simulation.Deterministic"),
		zap.Int("years", len(path)),
		zap.Float64("retirementValue", kp.RetirementValue),
		zap.Float64("endValue", kp.EndValue),
	}
	if kp.TargetAge != nil {
		fields = append(fields, zap.Int("targetAge", *kp.TargetAge))
	}
	if kp.DepletionAge != nil {
		fields = append(fields, zap.Int("depletionAge", *kp.DepletionAge))
	}
	logger.Debug("deterministic projection complete", fields...)

	return &Result{
		Path:                  path,
		KeyPoints:             kp,
		TotalContributionCost: in.TotalContributionCost(),
	}, nil
}

// Project runs the year-by-year recurrence from the current age to 100.
// It assumes in has been validated; a schedule gap still surfaces as
// policy.ErrIncompleteLeverageCoverage.
func Project(in Input, marketReturn ReturnFunc, depleted DepletionRule) (WealthPath, KeyPoints, error) {
	path := make(WealthPath, 0, in.Years())
	var kp KeyPoints

	balance := in.CurrentNetWorth
	withdrawal := in.InitialWithdrawal()
	contribution := in.AnnualContribution()
	friction := in.FrictionRate()

	markDepleted := func(age int) {
		if kp.DepletionAge == nil {
			a := age
			kp.DepletionAge = &a
		}
	}

	for age := in.CurrentAge; age <= constants.MaxAge; age++ {
		path = append(path, Point{Age: age, Balance: balance})

		if kp.TargetAge == nil && balance >= in.TargetNetWorth {
			a := age
			kp.TargetAge = &a
			kp.TargetValue = balance
		}

		leverage, err := in.Leverage.LeverageForAge(age)
		if err != nil {
			return nil, KeyPoints{}, fmt.Errorf("age %d: %w", age, err)
		}
		growth := 1 + policy.EffectiveReturn(leverage, marketReturn(age), friction)

		if age < in.RetireAge {
			balance = balance*growth + contribution
			if err := checkFinite(balance, age); err != nil {
				return nil, KeyPoints{}, err
			}
			continue
		}

		if age == in.RetireAge {
			kp.RetirementValue = balance
		}

		if balance > 0 {
			balance = (balance - withdrawal) * growth
			withdrawal *= 1 + in.AnnualInflation
			if err := checkFinite(balance, age); err != nil {
				return nil, KeyPoints{}, err
			}
			if depleted(balance) {
				balance = 0
				markDepleted(age)
			}
		} else {
			markDepleted(age)
			balance = 0
		}
	}

	kp.EndValue = path[len(path)-1].Balance
	kp.FinalBalance = balance
	return path, kp, nil
}

// checkFinite rejects balances that overflowed, which extreme multipliers
// can produce.
func checkFinite(balance float64, age int) error {
	if math.IsInf(balance, 0) || math.IsNaN(balance) {
		return fmt.Errorf("%w: balance is not finite after age %d", ErrInvalidInput, age)
	}
	return nil
}
