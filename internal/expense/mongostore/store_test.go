package mongostore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense/mongostore"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
)

func expenseDoc(company, vehicle uuid.UUID, amount, raw string, date time.Time) bson.D {
	value, err := mongodb.Decimal128(decimal.RequireFromString(amount))
	if err != nil {
		panic(err)
	}

	return bson.D{
		{Key: "_id", Value: uuid.NewString()},
		{Key: "company_id", Value: company.String()},
		{Key: "vehicle_id", Value: vehicle.String()},
		{Key: "amount", Value: value},
		{Key: "description", Value: raw},
		{Key: "raw_description", Value: raw},
		{Key: "payment_type", Value: "expenses"},
		{Key: "expense_type", Value: "fuel"},
		{Key: "status", Value: "pending"},
		{Key: "date", Value: date},
		{Key: "created_at", Value: date},
	}
}

func TestStore_ListExpenses(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	company, vehicle := uuid.New(), uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("decodes documents", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".expenses"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			expenseDoc(company, vehicle, "45.90", "GALP 12", date),
		))

		got, err := mongostore.New(mt.DB).ListExpenses(context.Background(), expense.ListFilter{
			CompanyID:       company,
			VehicleID:       &vehicle,
			ExcludeRejected: true,
		})
		require.NoError(mt, err)
		require.Len(mt, got, 1)

		assert.Equal(mt, vehicle, got[0].VehicleID)
		assert.Equal(mt, "45.90", got[0].Amount.StringFixed(2))
		assert.Equal(mt, finance.ExpenseFuel, got[0].ExpenseType)
		assert.Equal(mt, expense.StatusPending, got[0].Status)
		assert.Nil(mt, got[0].DriverID)
	})
}

func TestStore_GetExpense(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("not found", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".expenses"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := mongostore.New(mt.DB).GetExpense(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(mt, err, expense.ErrNotFound)
	})
}

func TestStore_UpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no pending match", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})

		err := mongostore.New(mt.DB).UpdateStatus(context.Background(), uuid.New(), uuid.New(),
			expense.StatusPending, expense.StatusApproved, uuid.New(), time.Now())
		assert.ErrorIs(mt, err, expense.ErrInvalidTransition)
	})

	mt.Run("moved", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})

		err := mongostore.New(mt.DB).UpdateStatus(context.Background(), uuid.New(), uuid.New(),
			expense.StatusPending, expense.StatusApproved, uuid.New(), time.Now())
		assert.NoError(mt, err)
	})
}

func TestStore_ImportTx(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	company, vehicle := uuid.New(), uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("finds duplicates and commits", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".expenses"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				expenseDoc(company, vehicle, "45.90", "GALP 12", date),
				expenseDoc(company, vehicle, "10.00", "OTHER", date),
			),
			mtest.CreateSuccessResponse(),
		)

		s := mongostore.New(mt.DB)
		itx, err := s.BeginImport(context.Background(), company, date, date)
		require.NoError(mt, err)

		dups, err := itx.FindDuplicates(context.Background(), []expense.CreateParams{
			{VehicleID: vehicle, Amount: decimal.RequireFromString("45.9"), RawDescription: "GALP 12", Date: date},
		})
		require.NoError(mt, err)
		require.Len(mt, dups, 1)
		assert.Equal(mt, "GALP 12", dups[0].RawDescription)

		fresh := []*expense.Expense{{CompanyID: company, VehicleID: vehicle, Amount: decimal.NewFromInt(5), Date: date}}
		require.NoError(mt, itx.CreateExpenses(context.Background(), fresh))
		assert.NotEqual(mt, uuid.Nil, fresh[0].ID)
		require.NoError(mt, itx.Commit())
	})
}
