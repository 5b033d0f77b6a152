package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"go.uber.org/zap"
)

func TestCalibrateStaysWithinBounds(t *testing.T) {
	tests := []struct {
		name  string
		input simulation.Input
	}{
		{
			name: "No starting capital",
			input: simulation.Input{
				CurrentAge: 25, MonthlyContribution: 3, AnnualReturn: 0.07,
				AnnualInflation: 0.02, TargetNetWorth: 100, RetireAge: 60,
				Leverage: policy.DefaultBands(1), Friction: policy.DefaultFriction(),
			},
		},
		{
			name: "Large capital small contributions",
			input: simulation.Input{
				CurrentAge: 45, CurrentNetWorth: 5000, MonthlyContribution: 0.5, AnnualReturn: 0.05,
				AnnualInflation: 0.03, TargetNetWorth: 6000, RetireAge: 65,
				Leverage: policy.DefaultBands(1), Friction: policy.FrictionPolicy{Kind: policy.FrictionInflation},
			},
		},
		{
			name: "Negative returns",
			input: simulation.Input{
				CurrentAge: 30, CurrentNetWorth: 10, MonthlyContribution: 1, AnnualReturn: -0.3,
				AnnualInflation: 0.01, TargetNetWorth: 10, RetireAge: 70,
				Leverage: policy.DefaultBands(1), Friction: policy.DefaultFriction(),
			},
		},
		{
			name: "Retire next year",
			input: simulation.Input{
				CurrentAge: 99, CurrentNetWorth: 1, MonthlyContribution: 100,
				TargetNetWorth: 1, RetireAge: 100,
				Leverage: policy.DefaultBands(3), Friction: policy.DefaultFriction(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Calibrate(zap.NewNop(), tt.input)
			if err != nil {
				t.Fatalf("Calibrate() error = %v", err)
			}
			if len(result.Schedule.Bands) != len(tt.input.Leverage.Bands) {
				t.Fatalf("bands = %d, expected %d", len(result.Schedule.Bands), len(tt.input.Leverage.Bands))
			}
			for _, b := range result.Schedule.Bands {
				if b.Multiplier < 1.0 || b.Multiplier > 2.0 {
					t.Errorf("band %s multiplier = %v, expected within [1, 2]", result.Schedule.Label(b), b.Multiplier)
				}
			}
			for _, al := range result.ByAge {
				if al.Leverage < 1.0 || al.Leverage > 2.0 {
					t.Errorf("age %d leverage = %v, expected within [1, 2]", al.Age, al.Leverage)
				}
			}
			if err := result.Schedule.Validate(tt.input.CurrentAge); err != nil {
				t.Errorf("calibrated schedule invalid: %v", err)
			}
		})
	}
}

func TestCalibrateZeroNetAssetUsesMaximum(t *testing.T) {
	in := simulation.Input{
		CurrentAge: 30, MonthlyContribution: 1, AnnualReturn: 0.05,
		TargetNetWorth: 100, RetireAge: 65,
		Leverage: policy.DefaultBands(1), Friction: policy.DefaultFriction(),
	}
	result, err := Calibrate(zap.NewNop(), in)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	if result.ByAge[0].Leverage != 2.0 {
		t.Errorf("first-year leverage = %v, expected 2.0 with no capital", result.ByAge[0].Leverage)
	}
	if got := len(result.ByAge); got != 35 {
		t.Errorf("working years = %d, expected 35", got)
	}
}

func TestCalibrateHandComputed(t *testing.T) {
	in := simulation.Input{
		CurrentAge: 63, CurrentNetWorth: 100, MonthlyContribution: 1,
		TargetNetWorth: 100, RetireAge: 65,
		Leverage: policy.DefaultBands(1),
		Friction: policy.FrictionPolicy{Kind: policy.FrictionFixed, Rate: 0.012},
	}
	result, err := Calibrate(zap.NewNop(), in)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	// Age 63: two contributions of 12 remain, no discounting at 0% inflation.
	first := 124.0 / 100.0
	net := 100*(1+policy.EffectiveReturn(first, 0, 0.012)) + 12
	second := (net + 12) / net
	expected := (first + second) / 2

	var band61 policy.Band
	for _, b := range result.Schedule.Bands {
		if b.From == 61 {
			band61 = b
		}
	}
	if math.Abs(band61.Multiplier-expected) > 1e-12 {
		t.Errorf("61-65 multiplier = %v, expected %v", band61.Multiplier, expected)
	}
	if result.ByAge[0].HumanCapital != 24 {
		t.Errorf("human capital at 63 = %v, expected 24", result.ByAge[0].HumanCapital)
	}

	// Bands without working years default to no leverage.
	for _, b := range result.Schedule.Bands {
		if b.From != 61 && b.Multiplier != 1.0 {
			t.Errorf("band %s multiplier = %v, expected 1.0", result.Schedule.Label(b), b.Multiplier)
		}
	}
}

func TestHumanCapitalDiscounting(t *testing.T) {
	got := humanCapital(110, 1.1, 2)
	if math.Abs(got-(100+110/1.21)) > 1e-9 {
		t.Errorf("humanCapital() = %v, expected %v", got, 100+110/1.21)
	}
	if humanCapital(10, 1.02, 0) != 0 {
		t.Error("expected zero human capital with no remaining years")
	}
}

func TestCalibrateRejectsInvalidInput(t *testing.T) {
	in := simulation.Input{CurrentAge: 50, RetireAge: 40, Leverage: policy.DefaultBands(1)}
	if _, err := Calibrate(zap.NewNop(), in); !errors.Is(err, simulation.ErrInvalidInput) {
		t.Errorf("Calibrate() error = %v, expected ErrInvalidInput", err)
	}
}
