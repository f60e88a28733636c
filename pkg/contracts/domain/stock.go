package domain

import (
	"github.com/shopspring/decimal"
)

// StockRecord is one normalized row of an exchange closing report.
// Text fields are empty and numeric fields null when the source row
// carried no value for them.
type StockRecord struct {
	Name                string              `json:"name"`
	ISIN                string              `json:"isin"`
	Symbol              string              `json:"symbol"`
	Series              string              `json:"series,omitempty"`
	Open                decimal.NullDecimal `json:"open"`
	High                decimal.NullDecimal `json:"high"`
	Low                 decimal.NullDecimal `json:"low"`
	Close               decimal.NullDecimal `json:"close"`
	Last                decimal.NullDecimal `json:"last"`
	PrevClose           decimal.NullDecimal `json:"prev_close"`
	TotalTradingVolume  decimal.NullDecimal `json:"total_trading_volume"`
	TotalTradingValue   decimal.NullDecimal `json:"total_trading_value"`
	TotalNoOfTxExecuted decimal.NullDecimal `json:"total_no_of_tx_executed"`
}

// ClosingReport is the normalized end-of-day report for one exchange and date
type ClosingReport struct {
	Records   []StockRecord `json:"data"`
	SourceURL string        `json:"report_url"`
}

// ContainerFormat describes how a report file is packaged on the exchange server
type ContainerFormat string

const (
	// FormatRaw means the download is the tabular file itself
	FormatRaw ContainerFormat = "raw"
	// FormatArchive means the download is a zip archive wrapping the tabular file
	FormatArchive ContainerFormat = "archive"
)

// ReportLocation tells where a closing report lives for one exchange and date
type ReportLocation struct {
	URL      string          `json:"url"`
	Filename string          `json:"filename"`
	Format   ContainerFormat `json:"container_format"`
}
