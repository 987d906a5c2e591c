// Package importer turns bank statement exports into expense drafts.
package importer

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Format identifies a statement layout.
type Format string

const (
	FormatCGD   Format = "cgd"
	FormatFleet Format = "fleet"
)

// Entry is one movement read from a statement. Amount is signed: debits are
// negative. Kind carries the free-form type column some exports include.
type Entry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Kind        string
}

type Parser interface {
	Parse(r io.Reader) ([]Entry, error)
}
