// Package policy maps a simulated age to the leverage in force that year and
// folds leverage and borrowing cost into an effective annual return.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

var (
	// ErrInvalidSchedule indicates a malformed schedule (bad band, overlap,
	// negative multiplier, unknown boundary rule).
	ErrInvalidSchedule = errors.New("invalid leverage schedule")

	// ErrIncompleteLeverageCoverage indicates an age with no matching band.
	ErrIncompleteLeverageCoverage = errors.New("incomplete leverage coverage")
)

// BoundaryRule controls how a band's To bound is interpreted.
type BoundaryRule string

const (
	// BoundaryInclusive means a band covers From..To (age <= To).
	BoundaryInclusive BoundaryRule = "inclusive"
	// BoundaryExclusive means a band covers From..To-1 (age < To).
	BoundaryExclusive BoundaryRule = "exclusive"
)

// Band is a contiguous age range with one leverage multiplier.
type Band struct {
	From       int     `yaml:"from" mapstructure:"from" json:"from"`
	To         int     `yaml:"to" mapstructure:"to" json:"to"`
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier" json:"multiplier"`
}

// LeverageSchedule is an ordered set of disjoint bands.
type LeverageSchedule struct {
	Rule  BoundaryRule `yaml:"rule,omitempty" mapstructure:"rule" json:"rule,omitempty"`
	Bands []Band       `yaml:"bands" mapstructure:"bands" json:"bands"`
}

// DefaultBands returns the standard five-year bands (<=25, 26-30, ... 61-65,
// >65) at the given multiplier, expressed with the inclusive rule.
func DefaultBands(multiplier float64) LeverageSchedule {
	bands := []Band{{From: constants.MinStartAge, To: 25, Multiplier: multiplier}}
	for from := 26; from < 66; from += 5 {
		bands = append(bands, Band{From: from, To: from + 4, Multiplier: multiplier})
	}
	bands = append(bands, Band{From: 66, To: constants.MaxAge, Multiplier: multiplier})
	return LeverageSchedule{Rule: BoundaryInclusive, Bands: bands}
}

func (s LeverageSchedule) rule() BoundaryRule {
	if s.Rule == "" {
		return BoundaryInclusive
	}
	return BoundaryRule(strings.ToLower(string(s.Rule)))
}

// lastAge returns the final age covered by the band under the schedule rule.
func (s LeverageSchedule) lastAge(b Band) int {
	if s.rule() == BoundaryExclusive {
		return b.To - 1
	}
	return b.To
}

// Contains reports whether age falls inside band b under the schedule rule.
func (s LeverageSchedule) Contains(b Band, age int) bool {
	return age >= b.From && age <= s.lastAge(b)
}

// Label renders a band's covered range, e.g. "26-30" or "66+".
func (s LeverageSchedule) Label(b Band) string {
	last := s.lastAge(b)
	if last >= constants.MaxAge {
		return fmt.Sprintf("%d+", b.From)
	}
	return fmt.Sprintf("%d-%d", b.From, last)
}

// Validate checks band shape and disjointness and that every age in
// [fromAge, constants.MaxAge] is covered by exactly one band.
func (s LeverageSchedule) Validate(fromAge int) error {
	switch s.rule() {
	case BoundaryInclusive, BoundaryExclusive:
	default:
		return fmt.Errorf("%w: unknown boundary rule %q", ErrInvalidSchedule, s.Rule)
	}
	if len(s.Bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrInvalidSchedule)
	}

	for i, b := range s.Bands {
		if s.lastAge(b) < b.From {
			return fmt.Errorf("%w: band %d (%d to %d) is empty", ErrInvalidSchedule, i, b.From, b.To)
		}
		if b.Multiplier < 0 {
			return fmt.Errorf("%w: band %s has negative multiplier %.2f", ErrInvalidSchedule, s.Label(b), b.Multiplier)
		}
		for j := i + 1; j < len(s.Bands); j++ {
			o := s.Bands[j]
			if b.From <= s.lastAge(o) && o.From <= s.lastAge(b) {
				return fmt.Errorf("%w: bands %s and %s overlap", ErrInvalidSchedule, s.Label(b), s.Label(o))
			}
		}
	}

	for age := fromAge; age <= constants.MaxAge; age++ {
		if _, err := s.LeverageForAge(age); err != nil {
			return err
		}
	}
	return nil
}

// LeverageForAge returns the multiplier of the band containing age.
func (s LeverageSchedule) LeverageForAge(age int) (float64, error) {
	for _, b := range s.Bands {
		if s.Contains(b, age) {
			return b.Multiplier, nil
		}
	}
	return 0, fmt.Errorf("%w: no band covers age %d", ErrIncompleteLeverageCoverage, age)
}

// WithMultipliers returns a copy of the schedule with the band multipliers
// replaced in order.
func (s LeverageSchedule) WithMultipliers(multipliers []float64) (LeverageSchedule, error) {
	if len(multipliers) != len(s.Bands) {
		return LeverageSchedule{}, fmt.Errorf("%w: %d multipliers for %d bands", ErrInvalidSchedule, len(multipliers), len(s.Bands))
	}
	out := LeverageSchedule{Rule: s.Rule, Bands: make([]Band, len(s.Bands))}
	for i, b := range s.Bands {
		b.Multiplier = multipliers[i]
		out.Bands[i] = b
	}
	return out, nil
}
