package exchange

import (
	"cloud.google.com/go/civil"

	"bhavcli/pkg/contracts/domain"
)

// Resolve returns the report location for ex on d.
// Dates older than every known range resolve with the oldest rule so that
// callers learn about unavailability from the download, not from here.
// An unsupported exchange resolves to an empty location.
func Resolve(ex domain.Exchange, d civil.Date) domain.ReportLocation {
	rule, ok := ruleFor(ex, d)
	if !ok {
		return domain.ReportLocation{}
	}
	return rule.Location(d)
}

func ruleFor(ex domain.Exchange, d civil.Date) (Rule, bool) {
	rules := ruleTables[ex]
	if len(rules) == 0 {
		return Rule{}, false
	}
	for _, r := range rules {
		if r.Contains(d) {
			return r, true
		}
	}
	return rules[len(rules)-1], true
}
