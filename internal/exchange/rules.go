package exchange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"bhavcli/pkg/contracts/domain"
)

var monthAbbr = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// Rule describes the report naming scheme valid for an inclusive date range.
// A zero End means the range is open towards the future.
type Rule struct {
	Start            civil.Date
	End              civil.Date
	FilenameTemplate string
	URLTemplate      string
	Format           domain.ContainerFormat
}

// Contains reports whether d falls inside the rule range, bounds included
func (r Rule) Contains(d civil.Date) bool {
	if d.Before(r.Start) {
		return false
	}
	return r.End.IsZero() || !d.After(r.End)
}

// Location expands the rule templates for d
func (r Rule) Location(d civil.Date) domain.ReportLocation {
	filename := expand(r.FilenameTemplate, d, "")
	return domain.ReportLocation{
		URL:      expand(r.URLTemplate, d, filename),
		Filename: filename,
		Format:   r.Format,
	}
}

func expand(template string, d civil.Date, filename string) string {
	year := strconv.Itoa(d.Year)
	return strings.NewReplacer(
		"{DD}", fmt.Sprintf("%02d", d.Day),
		"{MM}", fmt.Sprintf("%02d", int(d.Month)),
		"{YYYY}", year,
		"{YY}", year[len(year)-2:],
		"{MON}", monthAbbr[d.Month-1],
		"{FILENAME}", filename,
	).Replace(template)
}

func date(year, month, day int) civil.Date {
	return civil.Date{Year: year, Month: time.Month(month), Day: day}
}

const (
	nseArchiveHistorical = "https://archives.nseindia.com/content/historical/EQUITIES/{YYYY}/{MON}/{FILENAME}.zip"
	bseEquityBase        = "https://www.bseindia.com/download/BhavCopy/Equity/"
)

// Ordered newest first.
var ruleTables = map[domain.Exchange][]Rule{
	domain.ExchangeNSE: {
		{
			Start:            date(2024, 1, 1),
			FilenameTemplate: "BhavCopy_NSE_CM_0_0_0_{YYYY}{MM}{DD}_F_0000.csv",
			URLTemplate:      "https://nsearchives.nseindia.com/content/cm/{FILENAME}.zip",
			Format:           domain.FormatArchive,
		},
		{
			Start:            date(2023, 1, 11),
			End:              date(2023, 12, 31),
			FilenameTemplate: "NSE_CM_bhavcopy_{DD}{MM}{YYYY}.csv",
			URLTemplate:      nseArchiveHistorical,
			Format:           domain.FormatArchive,
		},
		{
			Start:            date(2022, 10, 7),
			End:              date(2023, 1, 10),
			FilenameTemplate: "NSE_CM_bhavcopy_{DD}{MON}{YYYY}.csv",
			URLTemplate:      nseArchiveHistorical,
			Format:           domain.FormatArchive,
		},
		{
			Start:            date(2011, 6, 22),
			End:              date(2022, 10, 6),
			FilenameTemplate: "cm{DD}{MON}{YYYY}bhav.csv",
			URLTemplate:      nseArchiveHistorical,
			Format:           domain.FormatArchive,
		},
	},
	domain.ExchangeBSE: {
		{
			Start:            date(2024, 1, 1),
			FilenameTemplate: "BhavCopy_BSE_CM_0_0_0_{YYYY}{MM}{DD}_F_0000.csv",
			URLTemplate:      bseEquityBase + "{FILENAME}",
			Format:           domain.FormatRaw,
		},
		{
			Start:            date(2022, 8, 17),
			End:              date(2023, 12, 31),
			FilenameTemplate: "BSE_EQ_BHAVCOPY_{DD}{MM}{YYYY}.csv",
			URLTemplate:      bseEquityBase + "BSE_EQ_BHAVCOPY_{DD}{MM}{YYYY}.zip",
			Format:           domain.FormatArchive,
		},
		{
			Start:            date(2016, 12, 10),
			End:              date(2022, 8, 16),
			FilenameTemplate: "EQ_ISINCODE_{DD}{MM}{YY}.CSV",
			URLTemplate:      bseEquityBase + "EQ_ISINCODE_{DD}{MM}{YY}.zip",
			Format:           domain.FormatArchive,
		},
	},
}

func init() {
	for ex, rules := range ruleTables {
		if err := validateRules(rules); err != nil {
			panic(fmt.Sprintf("exchange: invalid %s rule table: %v", ex, err))
		}
	}
}

// Rules returns a copy of the rule table for ex, newest range first
func Rules(ex domain.Exchange) []Rule {
	rules := ruleTables[ex]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// validateRules checks that ranges are sorted newest first, well formed and
// do not overlap. Only the newest range may be open ended.
func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("no rules")
	}
	if !sort.SliceIsSorted(rules, func(i, j int) bool { return rules[i].Start.After(rules[j].Start) }) {
		return fmt.Errorf("rules are not sorted newest first")
	}
	for i, r := range rules {
		if !r.Start.IsValid() {
			return fmt.Errorf("rule %d has invalid start %s", i, r.Start)
		}
		if r.End.IsZero() {
			if i != 0 {
				return fmt.Errorf("rule %d is open ended but not the newest", i)
			}
			continue
		}
		if r.End.Before(r.Start) {
			return fmt.Errorf("rule %d ends before it starts", i)
		}
		if i > 0 && !r.End.Before(rules[i-1].Start) {
			return fmt.Errorf("rule %d overlaps rule %d", i, i-1)
		}
	}
	return nil
}
