package exchange

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bhavcli/pkg/contracts/domain"
)

func TestResolve(t *testing.T) {
	const nseHist = "https://archives.nseindia.com/content/historical/EQUITIES/"
	const bseEq = "https://www.bseindia.com/download/BhavCopy/Equity/"

	tests := []struct {
		name     string
		exchange domain.Exchange
		date     civil.Date
		want     domain.ReportLocation
	}{
		{
			name:     "NSE UDiFF first day",
			exchange: domain.ExchangeNSE,
			date:     date(2024, 1, 1),
			want: domain.ReportLocation{
				URL:      "https://nsearchives.nseindia.com/content/cm/BhavCopy_NSE_CM_0_0_0_20240101_F_0000.csv.zip",
				Filename: "BhavCopy_NSE_CM_0_0_0_20240101_F_0000.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE UDiFF far future",
			exchange: domain.ExchangeNSE,
			date:     date(2026, 10, 16),
			want: domain.ReportLocation{
				URL:      "https://nsearchives.nseindia.com/content/cm/BhavCopy_NSE_CM_0_0_0_20261016_F_0000.csv.zip",
				Filename: "BhavCopy_NSE_CM_0_0_0_20261016_F_0000.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE numeric bhavcopy last day",
			exchange: domain.ExchangeNSE,
			date:     date(2023, 12, 31),
			want: domain.ReportLocation{
				URL:      nseHist + "2023/DEC/NSE_CM_bhavcopy_31122023.csv.zip",
				Filename: "NSE_CM_bhavcopy_31122023.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE numeric bhavcopy first day",
			exchange: domain.ExchangeNSE,
			date:     date(2023, 1, 11),
			want: domain.ReportLocation{
				URL:      nseHist + "2023/JAN/NSE_CM_bhavcopy_11012023.csv.zip",
				Filename: "NSE_CM_bhavcopy_11012023.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE month-name bhavcopy last day",
			exchange: domain.ExchangeNSE,
			date:     date(2023, 1, 10),
			want: domain.ReportLocation{
				URL:      nseHist + "2023/JAN/NSE_CM_bhavcopy_10JAN2023.csv.zip",
				Filename: "NSE_CM_bhavcopy_10JAN2023.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE month-name bhavcopy first day",
			exchange: domain.ExchangeNSE,
			date:     date(2022, 10, 7),
			want: domain.ReportLocation{
				URL:      nseHist + "2022/OCT/NSE_CM_bhavcopy_07OCT2022.csv.zip",
				Filename: "NSE_CM_bhavcopy_07OCT2022.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE legacy last day",
			exchange: domain.ExchangeNSE,
			date:     date(2022, 10, 6),
			want: domain.ReportLocation{
				URL:      nseHist + "2022/OCT/cm06OCT2022bhav.csv.zip",
				Filename: "cm06OCT2022bhav.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE legacy first day",
			exchange: domain.ExchangeNSE,
			date:     date(2011, 6, 22),
			want: domain.ReportLocation{
				URL:      nseHist + "2011/JUN/cm22JUN2011bhav.csv.zip",
				Filename: "cm22JUN2011bhav.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "NSE before every range uses oldest rule",
			exchange: domain.ExchangeNSE,
			date:     date(2005, 3, 15),
			want: domain.ReportLocation{
				URL:      nseHist + "2005/MAR/cm15MAR2005bhav.csv.zip",
				Filename: "cm15MAR2005bhav.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "BSE UDiFF is a raw csv",
			exchange: domain.ExchangeBSE,
			date:     date(2024, 1, 1),
			want: domain.ReportLocation{
				URL:      bseEq + "BhavCopy_BSE_CM_0_0_0_20240101_F_0000.csv",
				Filename: "BhavCopy_BSE_CM_0_0_0_20240101_F_0000.csv",
				Format:   domain.FormatRaw,
			},
		},
		{
			name:     "BSE EQ bhavcopy last day",
			exchange: domain.ExchangeBSE,
			date:     date(2023, 12, 31),
			want: domain.ReportLocation{
				URL:      bseEq + "BSE_EQ_BHAVCOPY_31122023.zip",
				Filename: "BSE_EQ_BHAVCOPY_31122023.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "BSE EQ bhavcopy first day",
			exchange: domain.ExchangeBSE,
			date:     date(2022, 8, 17),
			want: domain.ReportLocation{
				URL:      bseEq + "BSE_EQ_BHAVCOPY_17082022.zip",
				Filename: "BSE_EQ_BHAVCOPY_17082022.csv",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "BSE ISIN code last day",
			exchange: domain.ExchangeBSE,
			date:     date(2022, 8, 16),
			want: domain.ReportLocation{
				URL:      bseEq + "EQ_ISINCODE_160822.zip",
				Filename: "EQ_ISINCODE_160822.CSV",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "BSE ISIN code first day",
			exchange: domain.ExchangeBSE,
			date:     date(2016, 12, 10),
			want: domain.ReportLocation{
				URL:      bseEq + "EQ_ISINCODE_101216.zip",
				Filename: "EQ_ISINCODE_101216.CSV",
				Format:   domain.FormatArchive,
			},
		},
		{
			name:     "BSE before every range uses oldest rule",
			exchange: domain.ExchangeBSE,
			date:     date(2010, 1, 5),
			want: domain.ReportLocation{
				URL:      bseEq + "EQ_ISINCODE_050110.zip",
				Filename: "EQ_ISINCODE_050110.CSV",
				Format:   domain.FormatArchive,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.exchange, tt.date))
		})
	}
}

func TestResolve_UnsupportedExchange(t *testing.T) {
	assert.Equal(t, domain.ReportLocation{}, Resolve(domain.Exchange("LSE"), date(2024, 1, 1)))
}

func TestRules_EveryDateMatchesAtMostOneRule(t *testing.T) {
	for _, ex := range domain.Exchanges() {
		rules := Rules(ex)
		require.NotEmpty(t, rules)
		oldest := rules[len(rules)-1].Start

		for d := date(2010, 1, 1); !d.After(date(2026, 12, 31)); d = d.AddDays(1) {
			matches := 0
			for _, r := range rules {
				if r.Contains(d) {
					matches++
				}
			}
			if d.Before(oldest) {
				assert.Zero(t, matches, "%s %s precedes every range", ex, d)
				continue
			}
			if !assert.Equal(t, 1, matches, "%s %s", ex, d) {
				return
			}
		}
	}
}

func TestRules_BoundariesBelongToTheirOwnRange(t *testing.T) {
	for _, ex := range domain.Exchanges() {
		for i, r := range Rules(ex) {
			assert.True(t, r.Contains(r.Start), "%s rule %d start", ex, i)
			got, ok := ruleFor(ex, r.Start)
			require.True(t, ok)
			assert.Equal(t, r.FilenameTemplate, got.FilenameTemplate, "%s rule %d start", ex, i)

			if r.End.IsZero() {
				continue
			}
			got, ok = ruleFor(ex, r.End)
			require.True(t, ok)
			assert.Equal(t, r.FilenameTemplate, got.FilenameTemplate, "%s rule %d end", ex, i)
		}
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	rules := Rules(domain.ExchangeNSE)
	rules[0].FilenameTemplate = "changed"
	assert.NotEqual(t, "changed", Rules(domain.ExchangeNSE)[0].FilenameTemplate)
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		wantErr string
	}{
		{
			name:    "empty",
			wantErr: "no rules",
		},
		{
			name: "overlapping ranges",
			rules: []Rule{
				{Start: date(2024, 1, 1)},
				{Start: date(2023, 1, 1), End: date(2024, 1, 1)},
			},
			wantErr: "overlaps",
		},
		{
			name: "unsorted",
			rules: []Rule{
				{Start: date(2020, 1, 1), End: date(2020, 12, 31)},
				{Start: date(2024, 1, 1)},
			},
			wantErr: "not sorted",
		},
		{
			name: "open ended in the middle",
			rules: []Rule{
				{Start: date(2024, 1, 1)},
				{Start: date(2023, 1, 1)},
			},
			wantErr: "open ended",
		},
		{
			name: "inverted range",
			rules: []Rule{
				{Start: date(2024, 1, 1)},
				{Start: date(2023, 6, 1), End: date(2023, 1, 1)},
			},
			wantErr: "ends before it starts",
		},
		{
			name: "adjacent ranges are fine",
			rules: []Rule{
				{Start: date(2024, 1, 1)},
				{Start: date(2023, 1, 1), End: date(2023, 12, 31)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRules(tt.rules)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpand(t *testing.T) {
	d := date(2009, 2, 3)
	assert.Equal(t, "03/02/2009/09/FEB/x.csv", expand("{DD}/{MM}/{YYYY}/{YY}/{MON}/{FILENAME}", d, "x.csv"))
}
