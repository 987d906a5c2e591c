// Package cgd reads the CSV exports of Caixa Geral de Depósitos accounts and
// cards.
package cgd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/encoding"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
)

const dateLayout = "02-01-2006"

// Parser auto-detects which CGD layout (conta, extrato, cartão) a file uses
// by matching its header row against the known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]importer.Entry, error) {
	decoded, charset, err := encoding.Decode(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	profile, cols, headerRow := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching CGD format found: expected columns for conta, extrato, or cartão")
	}

	slog.Debug("parsing CGD statement", "profile", profile.Name, "charset", charset, "rows", len(rows)-headerRow-1)

	return parseRows(profile, cols, rows[headerRow+1:], headerRow+1)
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if profiles[i].matches(cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// parseRows skips rows without a date or amount (page footers, totals).
// firstRow is the 0-based index of the first data row in the file.
func parseRows(p *Profile, cols colIndex, rows [][]string, firstRow int) ([]importer.Entry, error) {
	var entries []importer.Entry

	for i, row := range rows {
		date, err := time.Parse(dateLayout, cell(row, cols[p.DateCol]))
		if err != nil {
			continue
		}

		amount, ok := p.amount(cols, row)
		if !ok {
			continue
		}

		desc := cell(row, cols[p.DescCol])
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", firstRow+i+1)
		}

		entries = append(entries, importer.Entry{
			Date:        date,
			Description: desc,
			Amount:      amount,
		})
	}

	return entries, nil
}

// amount returns the signed amount of a row; debits are negative.
func (p *Profile) amount(cols colIndex, row []string) (decimal.Decimal, bool) {
	if p.AmountMode == amountSingle {
		return parseAmount(cell(row, cols[p.AmountCol]))
	}

	if d, ok := parseAmount(cell(row, cols[p.DebitCol])); ok {
		return d.Abs().Neg(), true
	}

	if d, ok := parseAmount(cell(row, cols[p.CreditCol])); ok {
		return d.Abs(), true
	}

	return decimal.Zero, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
