package finance

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Category is the bucket an expense is counted in.
type Category string

const (
	CategoryFuel        Category = "fuel"
	CategoryMaintenance Category = "maintenance"
	CategoryInsurance   Category = "insurance"
	CategoryPenalties   Category = "penalties"
	CategoryEMI         Category = "emi"
	CategoryPrepayment  Category = "prepayment"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFuel, CategoryMaintenance, CategoryInsurance, CategoryPenalties,
		CategoryEMI, CategoryPrepayment, CategoryOther:
		return true
	}

	return false
}

// Rule maps description keywords to a category.
type Rule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Rules is evaluated in order; the first rule with a matching keyword wins.
type Rules []Rule

// DefaultRules returns the built-in keyword set.
func DefaultRules() Rules {
	return Rules{
		{Category: CategoryFuel, Keywords: []string{"fuel", "petrol", "diesel"}},
		{Category: CategoryMaintenance, Keywords: []string{"maintenance", "repair", "service"}},
		{Category: CategoryInsurance, Keywords: []string{"insurance"}},
		{Category: CategoryPenalties, Keywords: []string{"penalty", "fine", "late fee"}},
		{Category: CategoryEMI, Keywords: []string{"emi", "installment"}},
		{Category: CategoryPrepayment, Keywords: []string{"prepayment", "principal"}},
	}
}

type rulesFile struct {
	Rules Rules `yaml:"rules"`
}

// LoadRules reads a YAML document of the form
//
//	rules:
//	  - category: fuel
//	    keywords: [fuel, diesel]
func LoadRules(r io.Reader) (Rules, error) {
	var f rulesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}

		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	for i, rule := range f.Rules {
		if !rule.Category.Valid() {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, rule.Category)
		}
	}

	return f.Rules, nil
}

// LoadRulesFile reads rules from path. An empty path returns the defaults.
func LoadRulesFile(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, err
	}

	if len(rules) == 0 {
		return DefaultRules(), nil
	}

	return rules, nil
}

// Match returns the category of the first rule whose keyword occurs in the
// description, ignoring case.
func (rs Rules) Match(description string) (Category, bool) {
	desc := strings.ToLower(description)

	for _, rule := range rs {
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}

			if strings.Contains(desc, strings.ToLower(kw)) {
				return rule.Category, true
			}
		}
	}

	return "", false
}

// Classify assigns exactly one category to an expense. Structured fields take
// precedence; the description is only consulted for general expenses.
func (rs Rules) Classify(e Expense) Category {
	switch e.PaymentType {
	case PaymentEMI:
		return CategoryEMI
	case PaymentPrepayment:
		return CategoryPrepayment
	case PaymentRent, PaymentSecurity:
		return CategoryOther
	}

	switch e.ExpenseType {
	case ExpenseFuel:
		return CategoryFuel
	case ExpenseMaintenance:
		return CategoryMaintenance
	case ExpenseInsurance:
		return CategoryInsurance
	case ExpensePenalties:
		return CategoryPenalties
	}

	if c, ok := rs.Match(e.Description); ok {
		return c
	}

	return CategoryOther
}

// CategoryTotals holds the per-bucket sums.
type CategoryTotals struct {
	Fuel        decimal.Decimal
	Maintenance decimal.Decimal
	Insurance   decimal.Decimal
	Penalties   decimal.Decimal
	EMI         decimal.Decimal
	Prepayments decimal.Decimal
	Other       decimal.Decimal
}

func (t *CategoryTotals) add(c Category, amount decimal.Decimal) {
	switch c {
	case CategoryFuel:
		t.Fuel = t.Fuel.Add(amount)
	case CategoryMaintenance:
		t.Maintenance = t.Maintenance.Add(amount)
	case CategoryInsurance:
		t.Insurance = t.Insurance.Add(amount)
	case CategoryPenalties:
		t.Penalties = t.Penalties.Add(amount)
	case CategoryEMI:
		t.EMI = t.EMI.Add(amount)
	case CategoryPrepayment:
		t.Prepayments = t.Prepayments.Add(amount)
	default:
		t.Other = t.Other.Add(amount)
	}
}

// Operational is the sum of every bucket except prepayments.
func (t CategoryTotals) Operational() decimal.Decimal {
	return decimal.Sum(t.Fuel, t.Maintenance, t.Insurance, t.Penalties, t.EMI, t.Other)
}
