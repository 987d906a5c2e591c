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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment/mongostore"
)

func paymentDoc(t testing.TB, company, vehicle uuid.UUID, paid string, at time.Time) bson.D {
	t.Helper()

	amount, err := primitive.ParseDecimal128(paid)
	require.NoError(t, err)

	return bson.D{
		{Key: "_id", Value: uuid.NewString()},
		{Key: "company_id", Value: company.String()},
		{Key: "vehicle_id", Value: vehicle.String()},
		{Key: "week_start", Value: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{Key: "amount_due", Value: amount},
		{Key: "amount_paid", Value: amount},
		{Key: "status", Value: "paid"},
		{Key: "type", Value: "received"},
		{Key: "paid_at", Value: at},
		{Key: "created_at", Value: at},
	}
}

func TestStore_ListPayments(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	company, vehicle := uuid.New(), uuid.New()
	paidAt := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	mt.Run("decodes amounts and dates", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".payments"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, paymentDoc(mt, company, vehicle, "1500", paidAt)))

		got, err := mongostore.New(mt.DB).ListPayments(context.Background(), payment.ListFilter{CompanyID: company})
		require.NoError(mt, err)
		require.Len(mt, got, 1)

		assert.Equal(mt, payment.StatusPaid, got[0].Status)
		assert.Equal(mt, "1500", got[0].AmountPaid.String())
		require.NotNil(mt, got[0].PaidAt)
		assert.True(mt, paidAt.Equal(*got[0].PaidAt))
		assert.Nil(mt, got[0].CollectionDate)
	})

	mt.Run("rejects non-finite amounts", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".payments"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, paymentDoc(mt, company, vehicle, "NaN", paidAt)))

		_, err := mongostore.New(mt.DB).ListPayments(context.Background(), payment.ListFilter{CompanyID: company})
		assert.ErrorIs(mt, err, mongodb.ErrDecimal)
	})
}

func TestStore_UpdatePayment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("rejects amounts outside the decimal range", func(mt *mtest.T) {
		p := &payment.Payment{ID: uuid.New(), CompanyID: uuid.New(), AmountPaid: decimal.New(1, 7000)}

		err := mongostore.New(mt.DB).UpdatePayment(context.Background(), p)
		assert.ErrorIs(mt, err, mongodb.ErrDecimal)
	})
}

func TestStore_MarkOverdue(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reports modified count", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 2}, {Key: "nModified", Value: 2}})

		n, err := mongostore.New(mt.DB).MarkOverdue(context.Background(), time.Now())
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})
}
