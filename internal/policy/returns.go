package policy

import (
	"fmt"
	"strings"

	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

// FrictionKind names where the cost of borrowed exposure comes from.
type FrictionKind string

const (
	// FrictionFixed charges a constant borrowing cost (Rate).
	FrictionFixed FrictionKind = "fixed"
	// FrictionInflation charges the annual inflation rate.
	FrictionInflation FrictionKind = "inflation"
)

// FrictionPolicy selects the friction rate applied to leveraged exposure.
type FrictionPolicy struct {
	Kind FrictionKind `yaml:"kind,omitempty" mapstructure:"kind" json:"kind,omitempty"`
	Rate float64      `yaml:"rate,omitempty" mapstructure:"rate" json:"rate,omitempty"`
}

// DefaultFriction is the fixed borrowing-cost policy.
func DefaultFriction() FrictionPolicy {
	return FrictionPolicy{Kind: FrictionFixed, Rate: constants.DefaultBorrowingCost}
}

// Normalize lower-cases the kind and fills the default kind.
func (f *FrictionPolicy) Normalize() {
	if f == nil {
		return
	}
	f.Kind = FrictionKind(strings.ToLower(strings.TrimSpace(string(f.Kind))))
	if f.Kind == "" {
		f.Kind = FrictionFixed
	}
}

// Validate rejects unknown kinds and negative fixed rates.
func (f FrictionPolicy) Validate() error {
	switch f.Kind {
	case FrictionFixed, "":
		if f.Rate < 0 {
			return fmt.Errorf("friction rate must be non-negative, got %.4f", f.Rate)
		}
	case FrictionInflation:
	default:
		return fmt.Errorf("unknown friction kind %q (expected %s or %s)", f.Kind, FrictionFixed, FrictionInflation)
	}
	return nil
}

// FrictionRate resolves the policy against the run's inflation rate.
func (f FrictionPolicy) FrictionRate(inflation float64) float64 {
	if f.Kind == FrictionInflation {
		return inflation
	}
	return f.Rate
}

// EffectiveReturn is multiplier*marketReturn - (multiplier-1)*frictionRate.
// An unleveraged position (multiplier 1) never pays friction.
func EffectiveReturn(multiplier, marketReturn, frictionRate float64) float64 {
	if multiplier == 1 {
		return marketReturn
	}
	return multiplier*marketReturn - (multiplier-1)*frictionRate
}
