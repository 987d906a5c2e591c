package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
)

const collectionName = "category_rules"

type ruleDoc struct {
	ID        string    `bson:"_id"`
	CompanyID string    `bson:"company_id"`
	Pattern   string    `bson:"pattern"`
	Category  string    `bson:"category"`
	CreatedAt time.Time `bson:"created_at"`
}

type Store struct {
	rules *mongodb.Collection[ruleDoc]
}

func New(db *mongo.Database) *Store {
	return &Store{rules: mongodb.NewCollection[ruleDoc](db.Collection(collectionName))}
}

// FindMatch loads the company's rules and picks the longest pattern contained
// in the description.
func (s *Store) FindMatch(ctx context.Context, companyID uuid.UUID, description string) (*category.Rule, error) {
	rules, err := s.ListRules(ctx, companyID)
	if err != nil {
		return nil, err
	}

	desc := strings.ToLower(description)

	var best *category.Rule

	for _, r := range rules {
		if !strings.Contains(desc, strings.ToLower(r.Pattern)) {
			continue
		}

		if best == nil || len(r.Pattern) > len(best.Pattern) {
			best = r
		}
	}

	return best, nil
}

func (s *Store) CreateRule(ctx context.Context, rule *category.Rule) error {
	rule.ID = uuid.New()
	rule.CreatedAt = time.Now().UTC()

	return s.rules.Insert(ctx, &ruleDoc{
		ID:        rule.ID.String(),
		CompanyID: rule.CompanyID.String(),
		Pattern:   rule.Pattern,
		Category:  string(rule.Category),
		CreatedAt: rule.CreatedAt,
	})
}

func (s *Store) ListRules(ctx context.Context, companyID uuid.UUID) ([]*category.Rule, error) {
	docs, err := s.rules.Find(ctx,
		bson.M{"company_id": companyID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	rules := make([]*category.Rule, 0, len(docs))
	for _, d := range docs {
		rules = append(rules, &category.Rule{
			ID:        mongodb.ParseID(d.ID),
			CompanyID: companyID,
			Pattern:   d.Pattern,
			Category:  finance.Category(d.Category),
			CreatedAt: d.CreatedAt,
		})
	}

	return rules, nil
}
