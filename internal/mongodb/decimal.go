package mongodb

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDecimal is returned when an amount has no exact BSON decimal form or a
// stored decimal is not a finite number.
var ErrDecimal = errors.New("invalid decimal")

// Decimal128 converts an amount to its BSON representation.
func Decimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	p, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: %s: %v", ErrDecimal, d.String(), err)
	}

	return p, nil
}

// FromDecimal128 converts a BSON decimal back to an amount.
func FromDecimal128(p primitive.Decimal128) (decimal.Decimal, error) {
	if p.IsNaN() || p.IsInf() != 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrDecimal, p.String())
	}

	d, err := decimal.NewFromString(p.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrDecimal, p.String(), err)
	}

	return d, nil
}

// Decimals converts a batch of amounts and remembers the first failure, so a
// document can be filled field by field and checked once with Err.
type Decimals struct {
	err error
}

func (c *Decimals) To(d decimal.Decimal) primitive.Decimal128 {
	p, err := Decimal128(d)
	if err != nil && c.err == nil {
		c.err = err
	}

	return p
}

func (c *Decimals) From(p primitive.Decimal128) decimal.Decimal {
	d, err := FromDecimal128(p)
	if err != nil && c.err == nil {
		c.err = err
	}

	return d
}

func (c *Decimals) Err() error {
	return c.err
}

// ParseID decodes a stored string id. Malformed ids decode as uuid.Nil.
func ParseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}

	return id
}
