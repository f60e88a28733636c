package testutil

import (
	"archive/zip"
	"bytes"
	"testing"
)

// NSEUDiFFCSV is a two row NSE common bhavcopy in the 2024 column layout
const NSEUDiFFCSV = "TradDt,TckrSymb,SctySrs,ISIN,FinInstrmNm,OpnPric,HghPric,LwPric,ClsPric,LastPric,PrvsClsgPric,TtlTradgVol,TtlTrfVal,TtlNbOfTxsExctd\n" +
	"2024-03-15,ALPHA,EQ,INE000A01011,ALPHA CORP LTD,100.5,110,99,105.25,105.3,101,12000,1263000,340\n" +
	"2024-03-15,BETA,EQ,INE000B01012,BETA INDUSTRIES,20,21.5,19.75,21,21.05,20.1,5000,105000,45\n"

// BSEUDiFFCSV is a one row BSE common bhavcopy in the 2024 column layout
const BSEUDiFFCSV = "TradDt,TckrSymb,SctySrs,ISIN,FinInstrmNm,OpnPric,HghPric,LwPric,ClsPric,LastPric,PrvsClsgPric,TtlTradgVol,TtlTrfVal,TtlNbOfTxsExctd\n" +
	"2024-03-15,GAMMA,A,INE000C01013,GAMMA LTD,50,52,49.5,51,51.1,50.2,700,35700,12\n"

// ZipOf returns a zip archive holding a single entry
func ZipOf(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
