package exporter

import (
	"encoding/json"
	"io"

	"bhavcli/pkg/contracts/domain"
)

// WriteJSON writes the report as a JSON document
func WriteJSON(out io.Writer, report *domain.ClosingReport, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

// WriteReport writes report to out in the requested format
func WriteReport(out io.Writer, format Format, report *domain.ClosingReport) error {
	if format == FormatCSV {
		return NewCSVWriter(false).WriteReport(out, report)
	}
	return WriteJSON(out, report, true)
}

// WriteReportFile writes report to filePath in the requested format
func WriteReportFile(filePath string, format Format, report *domain.ClosingReport) error {
	if format == FormatCSV {
		return NewCSVWriter(true).WriteReportFile(filePath, report)
	}
	return writeFile(filePath, func(out io.Writer) error {
		return WriteJSON(out, report, true)
	})
}
