package validation

import (
	"fmt"

	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

// ValidateMode checks the simulation mode name.
func ValidateMode(mode string) error {
	if mode != constants.ModeDeterministic && mode != constants.ModeMonteCarlo {
		return fmt.Errorf("expected mode of %s or %s, got %s",
			constants.ModeDeterministic, constants.ModeMonteCarlo, mode)
	}
	return nil
}

// ValidateRunCount checks a Monte Carlo run count before any work starts.
func ValidateRunCount(runs int) error {
	if runs <= 0 {
		return fmt.Errorf("run count must be positive, got %d", runs)
	}
	if runs > constants.MaxMonteCarloRuns {
		return fmt.Errorf("run count %d exceeds the maximum of %d", runs, constants.MaxMonteCarloRuns)
	}
	return nil
}
