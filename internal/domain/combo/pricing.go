package combo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

var hundred = decimal.NewFromInt(100)

// validateDiscount rejects a negative value for both types and a percentage
// above 100.
func validateDiscount(dt DiscountType, value decimal.Decimal) error {
	if value.IsNegative() {
		return errors.Wrap(ErrInvalidDiscount, "discount cannot be negative")
	}
	if dt == DiscountPercentage && value.GreaterThan(hundred) {
		return errors.Wrap(ErrInvalidDiscount, "percentage discount cannot exceed 100%")
	}
	return nil
}

// computeTotals aggregates the resolved member services and applies the
// discount. Pure and deterministic: the result depends only on the inputs.
//
// originalTotal is the sum of member prices, rounded to 2 decimal places.
// finalTotal is originalTotal minus the discount, floored at zero and
// rounded to 2 decimal places. Durations are an exact integer sum.
func computeTotals(services []service.Service, dt DiscountType, value decimal.Decimal) (Totals, error) {
	original := decimal.Zero
	duration := 0
	for _, s := range services {
		original = original.Add(s.Price)
		duration += s.DurationMinutes
	}
	original = original.Round(2)

	var final decimal.Decimal
	switch dt {
	case DiscountAbsolute:
		final = original.Sub(value)
	case DiscountPercentage:
		final = original.Mul(hundred.Sub(value)).Div(hundred)
	default:
		return Totals{}, errors.Wrapf(ErrInvalidDiscount, "unsupported discount type %q", dt)
	}

	if final.IsNegative() {
		final = decimal.Zero
	}

	return Totals{
		OriginalTotal:        original,
		FinalTotal:           final.Round(2),
		TotalDurationMinutes: duration,
	}, nil
}

// dedupe returns ids with duplicates removed, preserving first occurrence
// order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
