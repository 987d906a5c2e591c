package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
)

const collectionName = "expenses"

type expenseDoc struct {
	ID             string               `bson:"_id"`
	CompanyID      string               `bson:"company_id"`
	VehicleID      string               `bson:"vehicle_id"`
	DriverID       string               `bson:"driver_id,omitempty"`
	Amount         primitive.Decimal128 `bson:"amount"`
	Description    string               `bson:"description"`
	RawDescription string               `bson:"raw_description,omitempty"`
	PaymentType    string               `bson:"payment_type"`
	ExpenseType    string               `bson:"expense_type,omitempty"`
	Status         string               `bson:"status"`
	ReceiptURL     string               `bson:"receipt_url,omitempty"`
	ReviewedBy     string               `bson:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time           `bson:"reviewed_at,omitempty"`
	Date           time.Time            `bson:"date"`
	CreatedAt      time.Time            `bson:"created_at"`
}

func toDoc(e *expense.Expense) (*expenseDoc, error) {
	amount, err := mongodb.Decimal128(e.Amount)
	if err != nil {
		return nil, fmt.Errorf("encoding expense %s: %w", e.ID, err)
	}

	d := &expenseDoc{
		ID:             e.ID.String(),
		CompanyID:      e.CompanyID.String(),
		VehicleID:      e.VehicleID.String(),
		Amount:         amount,
		Description:    e.Description,
		RawDescription: e.RawDescription,
		PaymentType:    string(e.PaymentType),
		ExpenseType:    string(e.ExpenseType),
		Status:         string(e.Status),
		ReceiptURL:     e.ReceiptURL,
		ReviewedAt:     e.ReviewedAt,
		Date:           e.Date,
		CreatedAt:      e.CreatedAt,
	}

	if e.DriverID != nil {
		d.DriverID = e.DriverID.String()
	}

	if e.ReviewedBy != nil {
		d.ReviewedBy = e.ReviewedBy.String()
	}

	return d, nil
}

func (d *expenseDoc) toExpense() (*expense.Expense, error) {
	amount, err := mongodb.FromDecimal128(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("decoding expense %s: %w", d.ID, err)
	}

	e := &expense.Expense{
		ID:             mongodb.ParseID(d.ID),
		CompanyID:      mongodb.ParseID(d.CompanyID),
		VehicleID:      mongodb.ParseID(d.VehicleID),
		Amount:         amount,
		Description:    d.Description,
		RawDescription: d.RawDescription,
		PaymentType:    finance.PaymentType(d.PaymentType),
		ExpenseType:    finance.ExpenseType(d.ExpenseType),
		Status:         expense.Status(d.Status),
		ReceiptURL:     d.ReceiptURL,
		ReviewedAt:     d.ReviewedAt,
		Date:           d.Date,
		CreatedAt:      d.CreatedAt,
	}

	if d.DriverID != "" {
		e.DriverID = new(mongodb.ParseID(d.DriverID))
	}

	if d.ReviewedBy != "" {
		e.ReviewedBy = new(mongodb.ParseID(d.ReviewedBy))
	}

	return e, nil
}

type Store struct {
	expenses *mongodb.Collection[expenseDoc]
}

func New(db *mongo.Database) *Store {
	return &Store{expenses: mongodb.NewCollection[expenseDoc](db.Collection(collectionName))}
}

func stamp(e *expense.Expense) {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
}

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	stamp(e)

	doc, err := toDoc(e)
	if err != nil {
		return err
	}

	return s.expenses.Insert(ctx, doc)
}

func (s *Store) GetExpense(ctx context.Context, companyID, id uuid.UUID) (*expense.Expense, error) {
	doc, err := s.expenses.FindOne(ctx, bson.M{"_id": id.String(), "company_id": companyID.String()})
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocument) {
			return nil, expense.ErrNotFound
		}

		return nil, err
	}

	return doc.toExpense()
}

func listQuery(filter expense.ListFilter) bson.M {
	q := bson.M{"company_id": filter.CompanyID.String()}

	if filter.VehicleID != nil {
		q["vehicle_id"] = filter.VehicleID.String()
	}

	switch {
	case filter.Status != nil:
		q["status"] = string(*filter.Status)
	case filter.ExcludeRejected:
		q["status"] = bson.M{"$ne": string(expense.StatusRejected)}
	}

	date := bson.M{}
	if filter.StartDate != nil {
		date["$gte"] = *filter.StartDate
	}

	if filter.EndDate != nil {
		date["$lte"] = *filter.EndDate
	}

	if len(date) > 0 {
		q["date"] = date
	}

	return q
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	docs, err := s.expenses.Find(ctx, listQuery(filter),
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}

	out := make([]*expense.Expense, 0, len(docs))
	for _, d := range docs {
		e, err := d.toExpense()
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

func (s *Store) UpdateStatus(ctx context.Context, companyID, id uuid.UUID, from, to expense.Status, reviewer uuid.UUID, at time.Time) error {
	matched, err := s.expenses.Set(ctx,
		bson.M{"_id": id.String(), "company_id": companyID.String(), "status": string(from)},
		bson.M{"status": string(to), "reviewed_by": reviewer.String(), "reviewed_at": at},
	)
	if err != nil {
		return err
	}

	if !matched {
		return expense.ErrInvalidTransition
	}

	return nil
}

func (s *Store) UpdateReceipt(ctx context.Context, companyID, id uuid.UUID, receiptURL string) error {
	matched, err := s.expenses.Set(ctx,
		bson.M{"_id": id.String(), "company_id": companyID.String()},
		bson.M{"receipt_url": receiptURL},
	)
	if err != nil {
		return err
	}

	if !matched {
		return expense.ErrNotFound
	}

	return nil
}

// importTx buffers new expenses and writes them in one InsertMany on commit.
type importTx struct {
	store     *Store
	companyID uuid.UUID
	pending   []*expenseDoc
	done      bool
}

func (s *Store) BeginImport(_ context.Context, companyID uuid.UUID, _, _ time.Time) (expense.ImportTx, error) {
	return &importTx{store: s, companyID: companyID}, nil
}

func (itx *importTx) FindDuplicates(ctx context.Context, params []expense.CreateParams) ([]*expense.Expense, error) {
	if len(params) == 0 {
		return nil, nil
	}

	minDate, maxDate := params[0].Date, params[0].Date
	keys := make(map[string]struct{}, len(params))

	for _, p := range params {
		minDate = minTime(minDate, p.Date)
		maxDate = maxTime(maxDate, p.Date)
		keys[dupKey(p.VehicleID.String(), p.Date, p.Amount.StringFixed(2), p.RawDescription)] = struct{}{}
	}

	existing, err := itx.store.ListExpenses(ctx, expense.ListFilter{
		CompanyID: itx.companyID,
		StartDate: &minDate,
		EndDate:   &maxDate,
	})
	if err != nil {
		return nil, err
	}

	var duplicates []*expense.Expense

	for _, e := range existing {
		if _, ok := keys[dupKey(e.VehicleID.String(), e.Date, e.Amount.StringFixed(2), e.RawDescription)]; ok {
			duplicates = append(duplicates, e)
		}
	}

	return duplicates, nil
}

func (itx *importTx) CreateExpenses(_ context.Context, expenses []*expense.Expense) error {
	for _, e := range expenses {
		stamp(e)

		doc, err := toDoc(e)
		if err != nil {
			return err
		}

		itx.pending = append(itx.pending, doc)
	}

	return nil
}

func (itx *importTx) Commit() error {
	if itx.done {
		return nil
	}

	itx.done = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return itx.store.expenses.InsertMany(ctx, itx.pending)
}

func (itx *importTx) Rollback() error {
	itx.done = true
	itx.pending = nil

	return nil
}

func dupKey(vehicleID string, date time.Time, amount, raw string) string {
	return vehicleID + "|" + date.Format(time.DateOnly) + "|" + amount + "|" + raw
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}

	return a
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}

	return a
}
