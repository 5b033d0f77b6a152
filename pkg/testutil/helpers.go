// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
)

// SampleInput returns a mid-career profile on the default bands and friction.
func SampleInput() simulation.Input {
	return simulation.Input{
		CurrentAge:          30,
		CurrentNetWorth:     50,
		MonthlyContribution: 2,
		AnnualReturn:        0.05,
		AnnualVolatility:    0.1,
		AnnualInflation:     0.02,
		TargetNetWorth:      300,
		RetireAge:           60,
		AnnualWithdrawal:    25,
		Leverage:            policy.DefaultBands(1),
		Friction:            policy.DefaultFriction(),
	}
}

// FindBand finds the band of schedule that covers age.
// Returns a pointer to the band if found, nil otherwise.
func FindBand(schedule policy.LeverageSchedule, age int) *policy.Band {
	for i := range schedule.Bands {
		if schedule.Contains(schedule.Bands[i], age) {
			return &schedule.Bands[i]
		}
	}
	return nil
}
