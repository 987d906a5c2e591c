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

	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
)

const collectionName = "payments"

type paymentDoc struct {
	ID             string               `bson:"_id"`
	CompanyID      string               `bson:"company_id"`
	VehicleID      string               `bson:"vehicle_id"`
	DriverID       string               `bson:"driver_id,omitempty"`
	WeekStart      time.Time            `bson:"week_start"`
	AmountDue      primitive.Decimal128 `bson:"amount_due"`
	AmountPaid     primitive.Decimal128 `bson:"amount_paid"`
	Status         string               `bson:"status"`
	Type           string               `bson:"type"`
	PaidAt         *time.Time           `bson:"paid_at,omitempty"`
	CollectionDate *time.Time           `bson:"collection_date,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
}

func toDoc(p *payment.Payment) (*paymentDoc, error) {
	var dec mongodb.Decimals

	d := &paymentDoc{
		ID:             p.ID.String(),
		CompanyID:      p.CompanyID.String(),
		VehicleID:      p.VehicleID.String(),
		WeekStart:      p.WeekStart,
		AmountDue:      dec.To(p.AmountDue),
		AmountPaid:     dec.To(p.AmountPaid),
		Status:         string(p.Status),
		Type:           string(p.Type),
		PaidAt:         p.PaidAt,
		CollectionDate: p.CollectionDate,
		CreatedAt:      p.CreatedAt,
	}

	if p.DriverID != nil {
		d.DriverID = p.DriverID.String()
	}

	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("encoding payment %s: %w", p.ID, err)
	}

	return d, nil
}

func (d *paymentDoc) toPayment() (*payment.Payment, error) {
	var dec mongodb.Decimals

	p := &payment.Payment{
		ID:             mongodb.ParseID(d.ID),
		CompanyID:      mongodb.ParseID(d.CompanyID),
		VehicleID:      mongodb.ParseID(d.VehicleID),
		WeekStart:      d.WeekStart,
		AmountDue:      dec.From(d.AmountDue),
		AmountPaid:     dec.From(d.AmountPaid),
		Status:         payment.Status(d.Status),
		Type:           payment.Type(d.Type),
		PaidAt:         d.PaidAt,
		CollectionDate: d.CollectionDate,
		CreatedAt:      d.CreatedAt,
	}

	if d.DriverID != "" {
		p.DriverID = new(mongodb.ParseID(d.DriverID))
	}

	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("decoding payment %s: %w", d.ID, err)
	}

	return p, nil
}

type Store struct {
	payments *mongodb.Collection[paymentDoc]
}

func New(db *mongo.Database) *Store {
	return &Store{payments: mongodb.NewCollection[paymentDoc](db.Collection(collectionName))}
}

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()

	doc, err := toDoc(p)
	if err != nil {
		return err
	}

	return s.payments.Insert(ctx, doc)
}

func (s *Store) GetPayment(ctx context.Context, companyID, id uuid.UUID) (*payment.Payment, error) {
	doc, err := s.payments.FindOne(ctx, bson.M{"_id": id.String(), "company_id": companyID.String()})
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocument) {
			return nil, payment.ErrNotFound
		}

		return nil, err
	}

	return doc.toPayment()
}

func (s *Store) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	q := bson.M{"company_id": filter.CompanyID.String()}

	if filter.VehicleID != nil {
		q["vehicle_id"] = filter.VehicleID.String()
	}

	if filter.DriverID != nil {
		q["driver_id"] = filter.DriverID.String()
	}

	if filter.Status != nil {
		q["status"] = string(*filter.Status)
	}

	week := bson.M{}
	if filter.From != nil {
		week["$gte"] = *filter.From
	}

	if filter.To != nil {
		week["$lte"] = *filter.To
	}

	if len(week) > 0 {
		q["week_start"] = week
	}

	docs, err := s.payments.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "week_start", Value: 1}}))
	if err != nil {
		return nil, err
	}

	out := make([]*payment.Payment, 0, len(docs))
	for _, d := range docs {
		p, err := d.toPayment()
		if err != nil {
			return nil, err
		}

		out = append(out, p)
	}

	return out, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	paid, err := mongodb.Decimal128(p.AmountPaid)
	if err != nil {
		return err
	}

	fields := bson.M{
		"amount_paid":     paid,
		"status":          string(p.Status),
		"paid_at":         p.PaidAt,
		"collection_date": p.CollectionDate,
	}

	matched, err := s.payments.Set(ctx, bson.M{"_id": p.ID.String(), "company_id": p.CompanyID.String()}, fields)
	if err != nil {
		return err
	}

	if !matched {
		return payment.ErrNotFound
	}

	return nil
}

func (s *Store) MarkOverdue(ctx context.Context, weekStartBefore time.Time) (int64, error) {
	return s.payments.SetMany(ctx,
		bson.M{"status": string(payment.StatusDue), "week_start": bson.M{"$lt": weekStartBefore}},
		bson.M{"status": string(payment.StatusOverdue)},
	)
}
