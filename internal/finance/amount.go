package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user supplied amount. Both "1234.56" and the European
// "1.234,56" forms are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return d, nil
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
