// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
)

// OutputFormats lists the supported result formats.
var OutputFormats = []string{
	constants.OutputFormatJSON,
	constants.OutputFormatCSV,
	constants.OutputFormatPretty,
	constants.OutputFormatPDF,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	for _, f := range OutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, %s, %s or %s, got %s",
		constants.OutputFormatJSON, constants.OutputFormatCSV, constants.OutputFormatPretty,
		constants.OutputFormatPDF, format)
}
