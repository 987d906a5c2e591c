package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders a money amount with two decimals and the euro sign.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with the standard timeout for storage calls.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
