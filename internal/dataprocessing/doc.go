// Package dataprocessing turns downloaded report bytes into rows.
//
// ExtractEntry pulls a named file out of a zip archive. DecodeTable sniffs the content type and reads CSV or XLSX data
// into Rows keyed by the header line. Cells that look numeric decode to
// decimal.Decimal; everything else stays text.
//
//	table, err := dataprocessing.ExtractEntry(zipped, "cm15MAR2021bhav.csv")
//	if err != nil {
//	    return err
//	}
//	rows, err := dataprocessing.DecodeTable(table)
package dataprocessing
