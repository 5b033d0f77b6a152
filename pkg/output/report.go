package output

import (
	"fmt"

	"github.com/tpma1205/lifecycle-index-sim/internal/calibration"
	"github.com/tpma1205/lifecycle-index-sim/internal/montecarlo"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/format"
	"github.com/tpma1205/lifecycle-index-sim/pkg/optimization"
)

// Report collects everything a single CLI or API invocation produced.
// Exactly one of Deterministic and MonteCarlo is set.
type Report struct {
	Mode          string                `json:"mode"`
	Seed          *uint64               `json:"seed,omitempty"`
	Input         simulation.Input      `json:"input"`
	Deterministic *simulation.Result    `json:"deterministic,omitempty"`
	MonteCarlo    *montecarlo.Result    `json:"monteCarlo,omitempty"`
	Calibration   *calibration.Result   `json:"calibration,omitempty"`
	Withdrawal    *optimization.Summary `json:"withdrawal,omitempty"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// Summary is the display form of one path's key points.
type Summary struct {
	Label      string `json:"label"`
	Target     string `json:"target"`
	Retirement string `json:"retirement"`
	Longevity  string `json:"longevity"`
	End        string `json:"end"`
}

// Summarize renders key points in unit u.
func Summarize(label string, kp simulation.KeyPoints, retireAge int, u format.Unit) Summary {
	s := Summary{
		Label:      label,
		Target:     "not reached",
		Retirement: fmt.Sprintf("%s at age %d", u.Scaled(kp.RetirementValue), retireAge),
		Longevity:  fmt.Sprintf("lasts past age %d", constants.MaxAge),
		End:        u.Scaled(kp.EndValue),
	}
	if kp.TargetAge != nil {
		s.Target = fmt.Sprintf("age %d (%s)", *kp.TargetAge, u.Scaled(kp.TargetValue))
	}
	if years, ok := kp.YearsSupported(retireAge); ok {
		s.Longevity = fmt.Sprintf("depleted at age %d, %d years supported", *kp.DepletionAge, years)
	}
	return s
}

// Row is one age of the tabular series.
type Row struct {
	Age    int
	Values []float64
}

// Columns names the value columns of Rows.
func (r Report) Columns() []string {
	if r.MonteCarlo != nil {
		return []string{"p25", "p50", "p75"}
	}
	return []string{"balance"}
}

// Rows returns the balance series by age.
func (r Report) Rows() []Row {
	switch {
	case r.MonteCarlo != nil:
		mc := r.MonteCarlo
		rows := make([]Row, len(mc.P50.Path))
		for i, pt := range mc.P50.Path {
			rows[i] = Row{Age: pt.Age, Values: []float64{mc.P25.Path[i].Balance, pt.Balance, mc.P75.Path[i].Balance}}
		}
		return rows
	case r.Deterministic != nil:
		rows := make([]Row, len(r.Deterministic.Path))
		for i, pt := range r.Deterministic.Path {
			rows[i] = Row{Age: pt.Age, Values: []float64{pt.Balance}}
		}
		return rows
	}
	return nil
}

// Summaries returns one Summary per reported path.
func (r Report) Summaries() []Summary {
	u := r.Unit()
	retire := r.Input.RetireAge
	switch {
	case r.MonteCarlo != nil:
		var out []Summary
		for _, p := range r.MonteCarlo.Percentiles() {
			out = append(out, Summarize(fmt.Sprintf("P%.0f", p.Rank*constants.PercentageMultiplier), p.KeyPoints, retire, u))
		}
		return out
	case r.Deterministic != nil:
		return []Summary{Summarize(constants.ModeDeterministic, r.Deterministic.KeyPoints, retire, u)}
	}
	return nil
}

// Unit picks the display unit from the largest balance in the report.
func (r Report) Unit() format.Unit {
	max := 0.0
	for _, row := range r.Rows() {
		for _, v := range row.Values {
			if v > max {
				max = v
			}
		}
	}
	return format.ChooseUnit(max)
}
