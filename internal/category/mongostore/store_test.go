package mongostore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/MrJamesThe3rd/fleetdesk/internal/category/mongostore"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

func ruleDoc(company uuid.UUID, pattern string, c finance.Category) bson.D {
	return bson.D{
		{Key: "_id", Value: uuid.NewString()},
		{Key: "company_id", Value: company.String()},
		{Key: "pattern", Value: pattern},
		{Key: "category", Value: string(c)},
		{Key: "created_at", Value: time.Now().UTC()},
	}
}

func TestStore_FindMatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	company := uuid.New()

	mt.Run("longest pattern wins", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".category_rules"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			ruleDoc(company, "indian oil", finance.CategoryFuel),
			ruleDoc(company, "indian oil lubricants", finance.CategoryMaintenance),
			ruleDoc(company, "rto", finance.CategoryPenalties),
		))

		got, err := mongostore.New(mt.DB).FindMatch(context.Background(), company, "INDIAN OIL LUBRICANTS 5W30")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, finance.CategoryMaintenance, got.Category)
	})

	mt.Run("no match", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".category_rules"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			ruleDoc(company, "rto", finance.CategoryPenalties),
		))

		got, err := mongostore.New(mt.DB).FindMatch(context.Background(), company, "car wash")
		require.NoError(mt, err)
		assert.Nil(mt, got)
	})
}
