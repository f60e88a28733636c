// Package exporter writes closing reports as JSON or CSV.
//
// CSV output has one header line followed by one line per record in report
// order. Numbers are written exactly as decoded and null numbers as empty
// cells. Files can carry a UTF-8 BOM so that spreadsheet tools pick the
// right encoding.
package exporter
