package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

func TestDefaultBandsCoverEveryAgeExactlyOnce(t *testing.T) {
	schedule := DefaultBands(1.0)
	if err := schedule.Validate(constants.MinStartAge); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	for age := constants.MinStartAge; age <= constants.MaxAge; age++ {
		matches := 0
		for _, b := range schedule.Bands {
			if schedule.Contains(b, age) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("age %d matched %d bands, expected exactly 1", age, matches)
		}
	}
}

func TestBoundaryRules(t *testing.T) {
	bands := []Band{
		{From: 20, To: 30, Multiplier: 2.0},
		{From: 30, To: 101, Multiplier: 1.0},
	}

	exclusive := LeverageSchedule{Rule: BoundaryExclusive, Bands: bands}
	if err := exclusive.Validate(20); err != nil {
		t.Fatalf("exclusive Validate() error = %v", err)
	}

	tests := []struct {
		age      int
		expected float64
	}{
		{29, 2.0},
		{30, 1.0},
		{100, 1.0},
	}
	for _, tt := range tests {
		got, err := exclusive.LeverageForAge(tt.age)
		if err != nil {
			t.Fatalf("LeverageForAge(%d) error = %v", tt.age, err)
		}
		if got != tt.expected {
			t.Errorf("exclusive LeverageForAge(%d) = %v, expected %v", tt.age, got, tt.expected)
		}
	}

	// The same bands overlap at age 30 when the upper bound is inclusive.
	inclusive := LeverageSchedule{Rule: BoundaryInclusive, Bands: bands}
	if err := inclusive.Validate(20); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("inclusive Validate() error = %v, expected ErrInvalidSchedule", err)
	}
}

func TestEmptyRuleDefaultsToInclusive(t *testing.T) {
	schedule := LeverageSchedule{Bands: []Band{
		{From: 20, To: 30, Multiplier: 1.5},
		{From: 31, To: 100, Multiplier: 1.0},
	}}
	got, err := schedule.LeverageForAge(30)
	if err != nil {
		t.Fatalf("LeverageForAge() error = %v", err)
	}
	if got != 1.5 {
		t.Errorf("LeverageForAge(30) = %v, expected 1.5 (age <= upper bound)", got)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		schedule LeverageSchedule
		fromAge  int
		want     error
	}{
		{
			name:     "No bands",
			schedule: LeverageSchedule{},
			fromAge:  30,
			want:     ErrInvalidSchedule,
		},
		{
			name:     "Unknown rule",
			schedule: LeverageSchedule{Rule: "sometimes", Bands: DefaultBands(1).Bands},
			fromAge:  30,
			want:     ErrInvalidSchedule,
		},
		{
			name: "Negative multiplier",
			schedule: LeverageSchedule{Bands: []Band{
				{From: 20, To: 100, Multiplier: -1},
			}},
			fromAge: 30,
			want:    ErrInvalidSchedule,
		},
		{
			name: "Gap",
			schedule: LeverageSchedule{Bands: []Band{
				{From: 20, To: 40, Multiplier: 1},
				{From: 45, To: 100, Multiplier: 1},
			}},
			fromAge: 30,
			want:    ErrIncompleteLeverageCoverage,
		},
		{
			name: "Stops before 100",
			schedule: LeverageSchedule{Bands: []Band{
				{From: 20, To: 90, Multiplier: 1},
			}},
			fromAge: 30,
			want:    ErrIncompleteLeverageCoverage,
		},
		{
			name: "Inverted band",
			schedule: LeverageSchedule{Bands: []Band{
				{From: 50, To: 40, Multiplier: 1},
			}},
			fromAge: 30,
			want:    ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate(tt.fromAge)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, expected %v", err, tt.want)
			}
		})
	}
}

func TestCoverageOnlyRequiredFromStartAge(t *testing.T) {
	schedule := LeverageSchedule{Bands: []Band{
		{From: 50, To: 100, Multiplier: 1},
	}}
	if err := schedule.Validate(55); err != nil {
		t.Errorf("Validate(55) error = %v, expected nil", err)
	}
	if _, err := schedule.LeverageForAge(49); !errors.Is(err, ErrIncompleteLeverageCoverage) {
		t.Errorf("LeverageForAge(49) error = %v, expected ErrIncompleteLeverageCoverage", err)
	}
}

func TestLabel(t *testing.T) {
	schedule := DefaultBands(1)
	if got := schedule.Label(schedule.Bands[1]); got != "26-30" {
		t.Errorf("Label() = %q, expected 26-30", got)
	}
	if got := schedule.Label(schedule.Bands[len(schedule.Bands)-1]); got != "66+" {
		t.Errorf("Label() = %q, expected 66+", got)
	}
}

func TestWithMultipliers(t *testing.T) {
	schedule := DefaultBands(1)
	values := make([]float64, len(schedule.Bands))
	for i := range values {
		values[i] = 1 + float64(i)/10
	}
	updated, err := schedule.WithMultipliers(values)
	if err != nil {
		t.Fatalf("WithMultipliers() error = %v", err)
	}
	if updated.Bands[3].Multiplier != values[3] {
		t.Errorf("band 3 multiplier = %v, expected %v", updated.Bands[3].Multiplier, values[3])
	}
	if schedule.Bands[3].Multiplier != 1 {
		t.Error("WithMultipliers mutated the source schedule")
	}
	if _, err := schedule.WithMultipliers(values[:2]); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("WithMultipliers(short) error = %v, expected ErrInvalidSchedule", err)
	}
}

func TestEffectiveReturn(t *testing.T) {
	tests := []struct {
		name       string
		multiplier float64
		market     float64
		friction   float64
		expected   float64
	}{
		{"No leverage ignores friction", 1.0, 0.07, 0.5, 0.07},
		{"Double leverage", 2.0, 0.07, 0.012, 0.128},
		{"Partial exposure earns friction back", 0.5, 0.07, 0.02, 0.045},
		{"Negative market", 1.5, -0.2, 0.012, -0.306},
		{"Zero exposure", 0, 0.07, 0.012, 0.012},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveReturn(tt.multiplier, tt.market, tt.friction)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("EffectiveReturn(%v, %v, %v) = %v, expected %v", tt.multiplier, tt.market, tt.friction, got, tt.expected)
			}
		})
	}
}

func TestFrictionPolicy(t *testing.T) {
	fixed := DefaultFriction()
	if got := fixed.FrictionRate(0.03); got != constants.DefaultBorrowingCost {
		t.Errorf("fixed FrictionRate() = %v, expected %v", got, constants.DefaultBorrowingCost)
	}

	inflation := FrictionPolicy{Kind: " Inflation "}
	inflation.Normalize()
	if inflation.Kind != FrictionInflation {
		t.Fatalf("Normalize() kind = %q, expected %q", inflation.Kind, FrictionInflation)
	}
	if got := inflation.FrictionRate(0.03); got != 0.03 {
		t.Errorf("inflation FrictionRate() = %v, expected 0.03", got)
	}

	if err := (FrictionPolicy{Kind: "margin"}).Validate(); err == nil {
		t.Error("expected error for unknown friction kind")
	}
	if err := (FrictionPolicy{Kind: FrictionFixed, Rate: -0.01}).Validate(); err == nil {
		t.Error("expected error for negative fixed rate")
	}
}
