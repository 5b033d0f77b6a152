// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

var outputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatPDF,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	for _, f := range outputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, got %s",
		strings.Join(outputFormats, ", "), format)
}
