package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatch(ctx context.Context, companyID uuid.UUID, description string) (*category.Rule, error) {
	query := `
		SELECT id, company_id, pattern, category, created_at
		FROM category_rules
		WHERE company_id = $1 AND $2 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var (
		r   category.Rule
		cat string
	)

	err := s.db.QueryRowContext(ctx, query, companyID, description).
		Scan(&r.ID, &r.CompanyID, &r.Pattern, &cat, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding category rule: %w", err)
	}

	r.Category = finance.Category(cat)

	return &r, nil
}

func (s *Store) CreateRule(ctx context.Context, rule *category.Rule) error {
	query := `
		INSERT INTO category_rules (company_id, pattern, category, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, rule.CompanyID, rule.Pattern, rule.Category).
		Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating category rule: %w", err)
	}

	return nil
}

func (s *Store) ListRules(ctx context.Context, companyID uuid.UUID) ([]*category.Rule, error) {
	query := `
		SELECT id, company_id, pattern, category, created_at
		FROM category_rules
		WHERE company_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing category rules: %w", err)
	}
	defer rows.Close()

	var rules []*category.Rule

	for rows.Next() {
		var (
			r   category.Rule
			cat string
		)

		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Pattern, &cat, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category rule: %w", err)
		}

		r.Category = finance.Category(cat)
		rules = append(rules, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rules: %w", err)
	}

	return rules, nil
}
