// Package pricing is the single pricing implementation shared by the wizard
// (displayed price) and the payment initiator (charged price). It is pure:
// same inputs, same output, no side effects. All amounts are euro cents.
package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/medipause/certserve/model"
)

// BaseCents is the price of a consultation before options and duration.
const BaseCents int64 = 2999

// Per-option surcharges. Divergence between this table and whatever a
// client displays is a correctness bug; clients fetch the table from
// /api/intake/steps instead of hardcoding it.
const (
	LongLeaveCents   int64 = 499
	PastDateCents    int64 = 499
	ComplexCaseCents int64 = 999
	UrgentCents      int64 = 1499
	SSNCents         int64 = 499
)

// Duration tier surcharges, keyed by inclusive day count d. Lower bounds are
// exclusive, upper bounds inclusive, so every d lands in exactly one tier.
const (
	Tier1Cents int64 = 499  // 3 < d <= 7
	Tier2Cents int64 = 999  // 7 < d <= 14
	Tier3Cents int64 = 1499 // d > 14
)

// OptionSurcharges returns the surcharge table keyed by the option's wire
// name, for exposure to the wizard UI.
func OptionSurcharges() map[string]int64 {
	return map[string]int64{
		"longLeave":    LongLeaveCents,
		"pastDate":     PastDateCents,
		"complexCase":  ComplexCaseCents,
		"urgentOption": UrgentCents,
		"ssnOption":    SSNCents,
	}
}

// Price computes the total for the given options and leave period. A nil
// range means no dates have been chosen yet: the duration surcharge is zero
// and no error occurs.
func Price(opts model.PricingOptions, rng *model.DateRange) int64 {
	total := BaseCents
	if opts.LongLeave {
		total += LongLeaveCents
	}
	if opts.PastDate {
		total += PastDateCents
	}
	if opts.ComplexCase {
		total += ComplexCaseCents
	}
	if opts.Urgent {
		total += UrgentCents
	}
	if opts.SSN {
		total += SSNCents
	}
	if rng != nil {
		total += DurationSurcharge(rng.Days())
	}
	return total
}

// DurationSurcharge returns the tier surcharge for an inclusive day count.
func DurationSurcharge(days int) int64 {
	switch {
	case days <= 3:
		return 0
	case days <= 7:
		return Tier1Cents
	case days <= 14:
		return Tier2Cents
	default:
		return Tier3Cents
	}
}

// ParseEuros converts a decimal euro string such as "39.97" to cents,
// rounding half-up at the second decimal place. The digits are handled as
// text; a float64 round trip misrepresents ties like "12.345".
func ParseEuros(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	euros, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if euros < 0 || strings.HasPrefix(intPart, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	cents := euros * 100
	if fracPart != "" {
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("parse amount %q: fraction is not numeric", s)
			}
		}
		padded := fracPart + "00"
		cents += int64(padded[0]-'0')*10 + int64(padded[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}
	return cents, nil
}

// FormatEuros renders cents as a decimal euro string: 3997 -> "39.97".
func FormatEuros(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
