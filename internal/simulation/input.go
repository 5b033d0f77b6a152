// Package simulation steps a wealth balance year by year from the current age
// to age 100 and derives the key points of the resulting path.
package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/mathutil"
)

// ErrInvalidInput indicates an Input that violates a simulation invariant.
var ErrInvalidInput = errors.New("invalid simulation input")

// Input is the complete, immutable description of one simulation.
// Rates are decimals (0.07 for 7%).
type Input struct {
	CurrentAge          int     `json:"currentAge"`
	CurrentNetWorth     float64 `json:"currentNetWorth"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	AnnualReturn        float64 `json:"annualReturn"`
	AnnualVolatility    float64 `json:"annualVolatility,omitempty"`
	AnnualInflation     float64 `json:"annualInflation"`
	TargetNetWorth      float64 `json:"targetNetWorth"`
	RetireAge           int     `json:"retireAge"`
	// AnnualWithdrawal is expressed in today's currency.
	AnnualWithdrawal float64 `json:"annualWithdrawal"`
	// ContributionUnit divides contributions into the working unit of the
	// balances. Zero is treated as 1.
	ContributionUnit float64                 `json:"contributionUnit,omitempty"`
	Leverage         policy.LeverageSchedule `json:"leverage"`
	Friction         policy.FrictionPolicy   `json:"friction"`
}

// Validate checks every invariant of the input and its leverage schedule.
func (in Input) Validate() error {
	if in.CurrentAge < constants.MinStartAge || in.CurrentAge > constants.MaxAge {
		return fmt.Errorf("%w: current age must be between %d and %d, got %d",
			ErrInvalidInput, constants.MinStartAge, constants.MaxAge, in.CurrentAge)
	}
	if in.RetireAge <= in.CurrentAge || in.RetireAge > constants.MaxAge {
		return fmt.Errorf("%w: retire age must be after current age %d and at most %d, got %d",
			ErrInvalidInput, in.CurrentAge, constants.MaxAge, in.RetireAge)
	}

	named := []struct {
		name  string
		value float64
	}{
		{"current net worth", in.CurrentNetWorth},
		{"monthly contribution", in.MonthlyContribution},
		{"annual return", in.AnnualReturn},
		{"annual volatility", in.AnnualVolatility},
		{"annual inflation", in.AnnualInflation},
		{"target net worth", in.TargetNetWorth},
		{"annual withdrawal", in.AnnualWithdrawal},
		{"contribution unit", in.ContributionUnit},
		{"friction rate", in.Friction.Rate},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, n.name)
		}
	}

	if in.CurrentNetWorth < 0 {
		return fmt.Errorf("%w: current net worth cannot be negative", ErrInvalidInput)
	}
	if in.TargetNetWorth < in.CurrentNetWorth {
		return fmt.Errorf("%w: target net worth %.2f is below current net worth %.2f",
			ErrInvalidInput, in.TargetNetWorth, in.CurrentNetWorth)
	}
	if in.AnnualInflation <= -1 {
		return fmt.Errorf("%w: annual inflation must be above -100%%", ErrInvalidInput)
	}
	if in.AnnualVolatility < 0 {
		return fmt.Errorf("%w: annual volatility cannot be negative", ErrInvalidInput)
	}
	if in.ContributionUnit < 0 {
		return fmt.Errorf("%w: contribution unit cannot be negative", ErrInvalidInput)
	}
	if err := in.Friction.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := in.Leverage.Validate(in.CurrentAge); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// AnnualContribution is twelve monthly contributions in the working unit.
func (in Input) AnnualContribution() float64 {
	unit := in.ContributionUnit
	if unit == 0 {
		unit = 1
	}
	return in.MonthlyContribution * constants.MonthsPerYear / unit
}

// TotalContributionCost is the sum of contributions paid before retirement.
func (in Input) TotalContributionCost() float64 {
	return in.AnnualContribution() * float64(in.RetireAge-in.CurrentAge)
}

// InitialWithdrawal inflates the present-value withdrawal forward to the
// currency of the retirement year.
func (in Input) InitialWithdrawal() float64 {
	return in.AnnualWithdrawal * mathutil.CompoundFactor(in.AnnualInflation, in.RetireAge-in.CurrentAge)
}

// Years is the number of simulated ages, current age through 100 inclusive.
func (in Input) Years() int {
	return constants.MaxAge - in.CurrentAge + 1
}

// FrictionRate resolves the configured friction policy for this input.
func (in Input) FrictionRate() float64 {
	return in.Friction.FrictionRate(in.AnnualInflation)
}
