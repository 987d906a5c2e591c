package cgd

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

// parseAmount reads a European formatted amount such as "1.234,56" or
// "-588,74". Zero amounts are reported as not present.
func parseAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}

	d, err := finance.ParseAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}
