package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bhavcli/pkg/contracts/domain"
)

// reportHeaders matches the JSON field names of domain.StockRecord
var reportHeaders = []string{
	"name", "isin", "symbol", "series",
	"open", "high", "low", "close", "last", "prev_close",
	"total_trading_volume", "total_trading_value", "total_no_of_tx_executed",
}

// CSVWriter exports closing reports as CSV
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(bom bool) *CSVWriter {
	return &CSVWriter{BOMPrefix: bom}
}

// WriteReport writes the header and one line per record in report order
func (w *CSVWriter) WriteReport(out io.Writer, report *domain.ClosingReport) error {
	if w.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if err := writer.Write(reportHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range report.Records {
		if err := writer.Write(recordRow(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteReportFile writes the report to filePath, creating parent directories
func (w *CSVWriter) WriteReportFile(filePath string, report *domain.ClosingReport) error {
	return writeFile(filePath, func(out io.Writer) error {
		return w.WriteReport(out, report)
	})
}

func recordRow(r domain.StockRecord) []string {
	return []string{
		r.Name, r.ISIN, r.Symbol, r.Series,
		formatDecimal(r.Open),
		formatDecimal(r.High),
		formatDecimal(r.Low),
		formatDecimal(r.Close),
		formatDecimal(r.Last),
		formatDecimal(r.PrevClose),
		formatDecimal(r.TotalTradingVolume),
		formatDecimal(r.TotalTradingValue),
		formatDecimal(r.TotalNoOfTxExecuted),
	}
}

func writeFile(filePath string, write func(io.Writer) error) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
