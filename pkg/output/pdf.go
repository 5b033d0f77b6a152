package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/tpma1205/lifecycle-index-sim/pkg/format"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	ageColWidth  = 20.0
)

type pdfReport struct {
	pdf    *fpdf.Fpdf
	report Report
	unit   format.Unit
}

// PDFFormat writes an A4 report: summary page followed by the yearly table.
func PDFFormat(w io.Writer, r Report) error {
	pr := &pdfReport{
		pdf:    fpdf.New("P", "mm", "A4", ""),
		report: r,
		unit:   r.Unit(),
	}
	pr.pdf.SetMargins(marginLeft, marginTop, marginRight)
	pr.pdf.SetAutoPageBreak(true, marginBottom)

	pr.addSummaryPage()
	pr.addYearTable()

	if err := pr.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.CellFormat(contentWidth, 8, title, "", 1, "L", true, 0, "")
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.Ln(2)
}

func (r *pdfReport) line(label, value string) {
	r.pdf.SetFont("Arial", "B", 10)
	r.pdf.CellFormat(50, 6, label, "", 0, "L", false, 0, "")
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.CellFormat(contentWidth-50, 6, value, "", 1, "L", false, 0, "")
}

func (r *pdfReport) addSummaryPage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 20)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, "Lifecycle Projection", "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "I", 10)
	r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Mode: %s", r.report.Mode), "", 1, "C", false, 0, "")
	if r.unit.Suffix != "" {
		r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Values shown in %s", r.unit.Suffix), "", 1, "C", false, 0, "")
	}
	r.pdf.Ln(6)

	in := r.report.Input
	r.drawSectionHeader("Assumptions")
	r.line("Current age:", fmt.Sprintf("%d", in.CurrentAge))
	r.line("Retirement age:", fmt.Sprintf("%d", in.RetireAge))
	r.line("Current net worth:", format.NumericCurrency(in.CurrentNetWorth))
	r.line("Target net worth:", format.NumericCurrency(in.TargetNetWorth))
	r.line("Monthly contribution:", format.NumericCurrency(in.MonthlyContribution))
	r.line("Annual withdrawal:", format.NumericCurrency(in.AnnualWithdrawal))
	r.line("Return / inflation:", fmt.Sprintf("%.2f%% / %.2f%%", in.AnnualReturn*100, in.AnnualInflation*100))
	if in.AnnualVolatility > 0 {
		r.line("Volatility:", fmt.Sprintf("%.2f%%", in.AnnualVolatility*100))
	}
	r.pdf.Ln(4)

	r.drawSectionHeader("Results")
	for _, s := range r.report.Summaries() {
		r.pdf.SetFont("Arial", "B", 11)
		r.pdf.CellFormat(contentWidth, 7, strings.ToUpper(s.Label), "", 1, "L", false, 0, "")
		r.line("Target net worth:", s.Target)
		r.line("At retirement:", s.Retirement)
		r.line("Longevity:", s.Longevity)
		r.line("End value:", s.End)
	}
	if mc := r.report.MonteCarlo; mc != nil {
		r.line("Runs:", fmt.Sprintf("%d", mc.RunCount))
		r.line("Success rate:", fmt.Sprintf("%.2f%%", mc.SuccessRate))
		r.line("Target rate:", fmt.Sprintf("%.2f%%", mc.TargetRate))
	}

	if c := r.report.Calibration; c != nil {
		r.pdf.Ln(4)
		r.drawSectionHeader("Suggested Leverage")
		for _, b := range c.Schedule.Bands {
			r.line(c.Schedule.Label(b), fmt.Sprintf("%.2fx", b.Multiplier))
		}
	}
	if s := r.report.Withdrawal; s != nil {
		r.pdf.Ln(4)
		r.drawSectionHeader("Sustainable Withdrawal")
		r.line("Maximum:", s.ValueDisplay)
		r.line("Iterations:", fmt.Sprintf("%d (converged: %t)", s.Iterations, s.Converged))
		for _, note := range s.Notes {
			r.pdf.SetFont("Arial", "I", 9)
			r.pdf.MultiCell(contentWidth, 5, note, "", "L", false)
		}
	}
	for _, warning := range r.report.Warnings {
		r.pdf.SetFont("Arial", "I", 9)
		r.pdf.MultiCell(contentWidth, 5, "Warning: "+warning, "", "L", false)
	}
}

func (r *pdfReport) addYearTable() {
	r.pdf.AddPage()
	r.drawSectionHeader("Year by Year")

	columns := r.report.Columns()
	colWidth := (contentWidth - ageColWidth) / float64(len(columns))

	header := func() {
		r.pdf.SetFillColor(240, 248, 255)
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.CellFormat(ageColWidth, 6, "Age", "1", 0, "C", true, 0, "")
		for i, c := range columns {
			ln := 0
			if i == len(columns)-1 {
				ln = 1
			}
			r.pdf.CellFormat(colWidth, 6, strings.ToUpper(c), "1", ln, "C", true, 0, "")
		}
		r.pdf.SetFont("Arial", "", 9)
	}

	header()
	for _, row := range r.report.Rows() {
		if r.pdf.GetY() > 270 {
			r.pdf.AddPage()
			header()
		}
		r.pdf.CellFormat(ageColWidth, 5, fmt.Sprintf("%d", row.Age), "1", 0, "C", false, 0, "")
		for i, v := range row.Values {
			ln := 0
			if i == len(row.Values)-1 {
				ln = 1
			}
			r.pdf.CellFormat(colWidth, 5, format.NumericCurrency(v/r.unit.Divisor), "1", ln, "R", false, 0, "")
		}
	}
}
