// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/format"
	"github.com/tpma1205/lifecycle-index-sim/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders r to w in the named output format.
func Write(w io.Writer, outputFormat string, r Report) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, r)
	case constants.OutputFormatJSON:
		return JSONFormat(w, r)
	case constants.OutputFormatPDF:
		return PDFFormat(w, r)
	default:
		return PrettyFormat(w, r)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, r Report) error {
	p := message.NewPrinter(language.English)
	u := r.Unit()
	pw := &printer{w: w, p: p}

	pw.printf("--- Lifecycle projection (%s) ---\n", r.Mode)
	if u != format.BaseUnit {
		pw.printf("Values shown in %s\n", u.Suffix)
	}
	for _, s := range r.Summaries() {
		pw.printf("[%s]\n", s.Label)
		pw.printf("  Target net worth:  %s\n", s.Target)
		pw.printf("  At retirement:     %s\n", s.Retirement)
		pw.printf("  Longevity:         %s\n", s.Longevity)
		pw.printf("  End value:         %s\n", s.End)
	}
	if r.Deterministic != nil {
		pw.printf("Total contributions: %.2f\n", r.Deterministic.TotalContributionCost/u.Divisor)
	}
	if mc := r.MonteCarlo; mc != nil {
		pw.printf("Runs: %d | Success rate: %.2f%% | Target rate: %.2f%%\n", mc.RunCount, mc.SuccessRate, mc.TargetRate)
	}

	if c := r.Calibration; c != nil {
		pw.printf("\nSuggested leverage\n")
		pw.printf("Band    | Multiplier\n")
		pw.printf("____    | __________\n")
		for _, b := range c.Schedule.Bands {
			pw.printf("%-7s | %.2fx\n", c.Schedule.Label(b), b.Multiplier)
		}
	}

	if s := r.Withdrawal; s != nil {
		status := "converged"
		if !s.Converged {
			status = "not converged"
		}
		pw.printf("\nMax sustainable withdrawal: %s (%s after %d iterations)\n", s.ValueDisplay, status, s.Iterations)
		for _, note := range s.Notes {
			pw.printf("  note: %s\n", note)
		}
	}

	columns := r.Columns()
	pw.printf("\nAge | %s\n", strings.Join(upper(columns), " | "))
	pw.printf("___ | %s\n", strings.Join(underline(columns), " | "))
	for _, row := range r.Rows() {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = p.Sprintf("%.2f", v/u.Divisor)
		}
		pw.printf("%-3d | %s\n", row.Age, strings.Join(cells, " | "))
	}

	for _, warning := range r.Warnings {
		pw.printf("warning: %s\n", warning)
	}
	return pw.err
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, r Report) error {
	pw := &printer{w: w}
	pw.printf(`"age"`)
	for _, c := range r.Columns() {
		pw.printf(`,"%s"`, c)
	}
	pw.printf("\n")
	for _, row := range r.Rows() {
		pw.printf(`"%d"`, row.Age)
		for _, v := range row.Values {
			pw.printf(`,"%.2f"`, v)
		}
		pw.printf("\n")
	}
	return pw.err
}

// jsonReport is the JSON document layout: the raw results plus their
// display summaries.
type jsonReport struct {
	Report
	Summaries []Summary `json:"summaries"`
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{Report: r, Summaries: r.Summaries()}); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *printer) printf(f string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	if pw.p != nil {
		_, pw.err = pw.p.Fprintf(pw.w, f, args...)
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, f, args...)
}

func upper(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.ToUpper(c[:1]) + c[1:]
	}
	return out
}

func underline(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.Repeat("_", len(c))
	}
	return out
}
