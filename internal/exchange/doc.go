// Package exchange holds the decision logic for exchange closing reports.
//
// The resolver maps an (exchange, calendar date) pair to the download URL,
// expected file name and container format in force on that date. Each
// exchange keeps a table of date ranges, one per historical naming scheme.
//
// The normalizer maps a decoded report row to domain.StockRecord. Column
// names differ between eras and exchanges, so every canonical field is read
// through an ordered alias list.
//
//	loc := exchange.Resolve(domain.ExchangeNSE, civil.Date{Year: 2023, Month: 6, Day: 1})
//	rec := exchange.Normalize(domain.ExchangeNSE, row, nil)
package exchange
