package exchange

import (
	"github.com/shopspring/decimal"

	"bhavcli/internal/dataprocessing"
	"bhavcli/pkg/contracts/domain"
)

// RowHook is invoked once per normalized row, after the symbol and name
// fallbacks have been applied, and may modify the record in place.
type RowHook func(rec *domain.StockRecord)

type field int

const (
	fieldName field = iota
	fieldISIN
	fieldSymbol
	fieldSeries
	fieldOpen
	fieldHigh
	fieldLow
	fieldClose
	fieldLast
	fieldPrevClose
	fieldVolume
	fieldValue
	fieldTrades
)

// aliasTable lists, per canonical field, the source columns to probe in order
type aliasTable map[field][]string

var aliasTables = map[domain.Exchange]aliasTable{
	// UDiFF (2024+), NSE_CM_bhavcopy (2022-2023) and cm...bhav (legacy) column names
	domain.ExchangeNSE: {
		fieldName:      {"FinInstrmNm"},
		fieldISIN:      {"ISIN"},
		fieldSymbol:    {"SYMBOL", "TckrSymb"},
		fieldSeries:    {"SctySrs", "SERIES/SCRIP GROUP", "SERIES"},
		fieldOpen:      {"OPEN", "OpnPric", "OPEN PRICE"},
		fieldHigh:      {"HIGH", "HghPric", "HIGH PRICE"},
		fieldLow:       {"LOW", "LwPric", "LOW PRICE"},
		fieldClose:     {"CLOSE", "ClsPric", "CLOSING PRICE"},
		fieldLast:      {"LAST", "LastPric", "LAST TRADED PRICE"},
		fieldPrevClose: {"PREVCLOSE", "PrvsClsgPric", "PREVIOUS CLOSE PRICE"},
		fieldVolume:    {"TOTTRDQTY", "TtlTradgVol", "TRADED QUANTITY"},
		fieldValue:     {"TOTTRDVAL", "TtlTrfVal", "TRADED VALUE"},
		fieldTrades:    {"TOTALTRADES", "TtlNbOfTxsExctd", "NUMBER OF TRADES"},
	},
	domain.ExchangeBSE: {
		fieldName:      {"FinInstrmNm", "SC_NAME"},
		fieldISIN:      {"ISIN", "ISIN_CODE"},
		fieldSymbol:    {"TckrSymb", "SCRIP ID"},
		fieldSeries:    {"SctySrs"},
		fieldOpen:      {"OpnPric", "OPEN PRICE", "OPEN"},
		fieldHigh:      {"HghPric", "HIGH PRICE", "HIGH"},
		fieldLow:       {"LwPric", "LOW PRICE", "LOW"},
		fieldClose:     {"ClsPric", "CLOSING PRICE", "CLOSE"},
		fieldLast:      {"LastPric", "LAST"},
		fieldPrevClose: {"PrvsClsgPric", "PREVIOUS CLOSE PRICE", "PREVCLOSE"},
		fieldVolume:    {"TtlTradgVol", "NO_OF_SHRS"},
		fieldValue:     {"TtlTrfVal", "NET_TURNOV"},
		fieldTrades:    {"TtlNbOfTxsExctd", "NO_TRADES"},
	},
}

// Normalize maps a decoded report row of ex onto the canonical record shape.
// A missing symbol falls back to the ISIN and a missing name to the symbol.
// Missing means no alias is present in the row; an empty string is a value.
// hook may be nil.
func Normalize(ex domain.Exchange, row dataprocessing.Row, hook RowHook) domain.StockRecord {
	aliases := aliasTables[ex]

	name, hasName := text(row, aliases[fieldName])
	isin, _ := text(row, aliases[fieldISIN])
	symbol, hasSymbol := text(row, aliases[fieldSymbol])
	if !hasSymbol {
		symbol = isin
	}
	if !hasName {
		name = symbol
	}
	series, _ := text(row, aliases[fieldSeries])

	rec := domain.StockRecord{
		Name:                name,
		ISIN:                isin,
		Symbol:              symbol,
		Series:              series,
		Open:                number(row, aliases[fieldOpen]),
		High:                number(row, aliases[fieldHigh]),
		Low:                 number(row, aliases[fieldLow]),
		Close:               number(row, aliases[fieldClose]),
		Last:                number(row, aliases[fieldLast]),
		PrevClose:           number(row, aliases[fieldPrevClose]),
		TotalTradingVolume:  number(row, aliases[fieldVolume]),
		TotalTradingValue:   number(row, aliases[fieldValue]),
		TotalNoOfTxExecuted: number(row, aliases[fieldTrades]),
	}

	if hook != nil {
		hook(&rec)
	}
	return rec
}

// firstPresent returns the value of the first alias present in row
func firstPresent(row dataprocessing.Row, aliases []string) (any, bool) {
	for _, column := range aliases {
		if v, ok := row.Lookup(column); ok {
			return v, true
		}
	}
	return nil, false
}

func text(row dataprocessing.Row, aliases []string) (string, bool) {
	v, ok := firstPresent(row, aliases)
	if !ok {
		return "", false
	}
	return dataprocessing.ValueText(v), true
}

// number passes decoded numerics through untouched. Text found in a numeric
// column is not parsed and yields null.
func number(row dataprocessing.Row, aliases []string) decimal.NullDecimal {
	v, ok := firstPresent(row, aliases)
	if !ok {
		return decimal.NullDecimal{}
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return decimal.NewNullDecimal(n)
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(n))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(n))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	}
	return decimal.NullDecimal{}
}
