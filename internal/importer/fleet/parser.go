// Package fleet reads the comma separated export produced by fleet
// management tools: a header row with date, description, amount and an
// optional type column, ISO dates and dot decimals.
package fleet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/fleetdesk/internal/encoding"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
)

var errNoHeader = errors.New("missing header row")

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]importer.Entry, error) {
	decoded, _, err := encoding.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding file: %w", err)
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errNoHeader
		}

		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: no %q column", errNoHeader, required)
		}
	}

	kindCol, hasKind := cols["type"]

	var entries []importer.Entry

	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		get := func(i int) string {
			if i >= len(record) {
				return ""
			}

			return strings.TrimSpace(record[i])
		}

		dateStr := get(cols["date"])
		if dateStr == "" {
			continue
		}

		date, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", row, dateStr)
		}

		desc := get(cols["description"])
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", row)
		}

		amount, err := finance.ParseAmount(get(cols["amount"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		e := importer.Entry{Date: date, Description: desc, Amount: amount}
		if hasKind {
			e.Kind = get(kindCol)
		}

		entries = append(entries, e)
	}

	return entries, nil
}
