package category

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

var ErrInvalidRule = errors.New("invalid category rule")

// Rule is a learned mapping from a description fragment to a category,
// owned by one company.
type Rule struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Pattern   string
	Category  finance.Category
	CreatedAt time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	FindMatch(ctx context.Context, companyID uuid.UUID, description string) (*Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
	ListRules(ctx context.Context, companyID uuid.UUID) ([]*Rule, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the category of the longest learned pattern contained in the
// description. The boolean is false when nothing matched.
func (s *Service) Suggest(ctx context.Context, companyID uuid.UUID, description string) (finance.Category, bool, error) {
	rule, err := s.repo.FindMatch(ctx, companyID, description)
	if err != nil {
		return "", false, err
	}

	if rule == nil {
		return "", false, nil
	}

	return rule.Category, true, nil
}

// Learn remembers that descriptions containing pattern belong to c.
func (s *Service) Learn(ctx context.Context, companyID uuid.UUID, pattern string, c finance.Category) (*Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidRule)
	}

	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRule, c)
	}

	rule := &Rule{
		CompanyID: companyID,
		Pattern:   pattern,
		Category:  c,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*Rule, error) {
	return s.repo.ListRules(ctx, companyID)
}

// Rules converts the company's learned rules into keyword rules, longest
// pattern first, ready to be placed ahead of the default set.
func (s *Service) Rules(ctx context.Context, companyID uuid.UUID) (finance.Rules, error) {
	learned, err := s.repo.ListRules(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing category rules: %w", err)
	}

	sort.SliceStable(learned, func(i, j int) bool {
		return len(learned[i].Pattern) > len(learned[j].Pattern)
	})

	rules := make(finance.Rules, 0, len(learned))
	for _, r := range learned {
		rules = append(rules, finance.Rule{Category: r.Category, Keywords: []string{r.Pattern}})
	}

	return rules, nil
}
