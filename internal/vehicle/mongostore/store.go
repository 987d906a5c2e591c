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

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type entryDoc struct {
	Month         int                  `bson:"month"`
	DueDate       time.Time            `bson:"due_date"`
	Interest      primitive.Decimal128 `bson:"interest"`
	Principal     primitive.Decimal128 `bson:"principal"`
	Outstanding   primitive.Decimal128 `bson:"outstanding"`
	IsPaid        bool                 `bson:"is_paid"`
	PaidAt        *time.Time           `bson:"paid_at,omitempty"`
	EditableUntil *time.Time           `bson:"editable_until,omitempty"`
}

type loanDoc struct {
	TotalLoan         primitive.Decimal128 `bson:"total_loan"`
	OutstandingLoan   primitive.Decimal128 `bson:"outstanding_loan"`
	EMIPerMonth       primitive.Decimal128 `bson:"emi_per_month"`
	InterestRate      primitive.Decimal128 `bson:"interest_rate"`
	DownPayment       primitive.Decimal128 `bson:"down_payment"`
	TotalInstallments int                  `bson:"total_installments"`
	StartDate         time.Time            `bson:"start_date"`
	Schedule          []entryDoc           `bson:"amortization_schedule"`
}

type vehicleDoc struct {
	ID           string               `bson:"_id"`
	CompanyID    string               `bson:"company_id"`
	Registration string               `bson:"registration"`
	Make         string               `bson:"make"`
	Model        string               `bson:"model"`
	Year         int                  `bson:"year"`
	DriverID     string               `bson:"driver_id,omitempty"`
	WeeklyRent   primitive.Decimal128 `bson:"weekly_rent"`
	ImageURLs    []string             `bson:"image_urls"`
	Loan         *loanDoc             `bson:"loan,omitempty"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    *time.Time           `bson:"updated_at,omitempty"`
	DeletedAt    *time.Time           `bson:"deleted_at,omitempty"`
}

func toLoanDoc(l *finance.LoanDetails) (*loanDoc, error) {
	if l == nil {
		return nil, nil
	}

	var dec mongodb.Decimals

	d := &loanDoc{
		TotalLoan:         dec.To(l.TotalLoan),
		OutstandingLoan:   dec.To(l.OutstandingLoan),
		EMIPerMonth:       dec.To(l.EMIPerMonth),
		InterestRate:      dec.To(l.InterestRate),
		DownPayment:       dec.To(l.DownPayment),
		TotalInstallments: l.TotalInstallments,
		StartDate:         l.StartDate,
		Schedule:          make([]entryDoc, len(l.AmortizationSchedule)),
	}

	for i, e := range l.AmortizationSchedule {
		d.Schedule[i] = entryDoc{
			Month:         e.Month,
			DueDate:       e.DueDate,
			Interest:      dec.To(e.Interest),
			Principal:     dec.To(e.Principal),
			Outstanding:   dec.To(e.Outstanding),
			IsPaid:        e.IsPaid,
			PaidAt:        e.PaidAt,
			EditableUntil: e.EditableUntil,
		}
	}

	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("encoding loan: %w", err)
	}

	return d, nil
}

func (d *loanDoc) toLoan() (*finance.LoanDetails, error) {
	if d == nil {
		return nil, nil
	}

	var dec mongodb.Decimals

	l := &finance.LoanDetails{
		TotalLoan:            dec.From(d.TotalLoan),
		OutstandingLoan:      dec.From(d.OutstandingLoan),
		EMIPerMonth:          dec.From(d.EMIPerMonth),
		InterestRate:         dec.From(d.InterestRate),
		DownPayment:          dec.From(d.DownPayment),
		TotalInstallments:    d.TotalInstallments,
		StartDate:            d.StartDate,
		AmortizationSchedule: make([]finance.ScheduleEntry, len(d.Schedule)),
	}

	for i, e := range d.Schedule {
		l.AmortizationSchedule[i] = finance.ScheduleEntry{
			Month:         e.Month,
			DueDate:       e.DueDate,
			Interest:      dec.From(e.Interest),
			Principal:     dec.From(e.Principal),
			Outstanding:   dec.From(e.Outstanding),
			IsPaid:        e.IsPaid,
			PaidAt:        e.PaidAt,
			EditableUntil: e.EditableUntil,
		}
	}

	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("decoding loan: %w", err)
	}

	return l, nil
}

func (d *vehicleDoc) toVehicle() (*vehicle.Vehicle, error) {
	rent, err := mongodb.FromDecimal128(d.WeeklyRent)
	if err != nil {
		return nil, fmt.Errorf("decoding vehicle %s: %w", d.ID, err)
	}

	loan, err := d.Loan.toLoan()
	if err != nil {
		return nil, fmt.Errorf("decoding vehicle %s: %w", d.ID, err)
	}

	v := &vehicle.Vehicle{
		ID:           mongodb.ParseID(d.ID),
		CompanyID:    mongodb.ParseID(d.CompanyID),
		Registration: d.Registration,
		Make:         d.Make,
		Model:        d.Model,
		Year:         d.Year,
		WeeklyRent:   rent,
		ImageURLs:    d.ImageURLs,
		Loan:         loan,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		DeletedAt:    d.DeletedAt,
	}

	if d.DriverID != "" {
		v.DriverID = new(mongodb.ParseID(d.DriverID))
	}

	return v, nil
}

type Store struct {
	vehicles *mongodb.Collection[vehicleDoc]
}

func New(db *mongo.Database) *Store {
	return &Store{vehicles: mongodb.NewCollection[vehicleDoc](db.Collection("vehicles"))}
}

func live(companyID, id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "company_id": companyID.String(), "deleted_at": bson.M{"$exists": false}}
}

func driverRef(id *uuid.UUID) string {
	if id == nil {
		return ""
	}

	return id.String()
}

func (s *Store) CreateVehicle(ctx context.Context, v *vehicle.Vehicle) error {
	rent, err := mongodb.Decimal128(v.WeeklyRent)
	if err != nil {
		return err
	}

	loan, err := toLoanDoc(v.Loan)
	if err != nil {
		return err
	}

	v.ID = uuid.New()
	v.CreatedAt = time.Now().UTC()

	return s.vehicles.Insert(ctx, &vehicleDoc{
		ID:           v.ID.String(),
		CompanyID:    v.CompanyID.String(),
		Registration: v.Registration,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		DriverID:     driverRef(v.DriverID),
		WeeklyRent:   rent,
		ImageURLs:    v.ImageURLs,
		Loan:         loan,
		CreatedAt:    v.CreatedAt,
	})
}

func (s *Store) GetVehicle(ctx context.Context, companyID, id uuid.UUID) (*vehicle.Vehicle, error) {
	doc, err := s.vehicles.FindOne(ctx, live(companyID, id))
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocument) {
			return nil, vehicle.ErrNotFound
		}

		return nil, err
	}

	return doc.toVehicle()
}

func (s *Store) ListVehicles(ctx context.Context, companyID uuid.UUID) ([]*vehicle.Vehicle, error) {
	return s.find(ctx,
		bson.M{"company_id": companyID.String(), "deleted_at": bson.M{"$exists": false}},
		bson.D{{Key: "registration", Value: 1}},
	)
}

// ListFinanced returns every live vehicle with a loan, across companies.
func (s *Store) ListFinanced(ctx context.Context) ([]*vehicle.Vehicle, error) {
	return s.find(ctx,
		bson.M{"loan": bson.M{"$ne": nil}, "deleted_at": bson.M{"$exists": false}},
		bson.D{{Key: "company_id", Value: 1}, {Key: "registration", Value: 1}},
	)
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D) ([]*vehicle.Vehicle, error) {
	docs, err := s.vehicles.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}

	out := make([]*vehicle.Vehicle, 0, len(docs))
	for _, d := range docs {
		v, err := d.toVehicle()
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

func (s *Store) set(ctx context.Context, companyID, id uuid.UUID, fields bson.M) error {
	matched, err := s.vehicles.Set(ctx, live(companyID, id), fields)
	if err != nil {
		return err
	}

	if !matched {
		return vehicle.ErrNotFound
	}

	return nil
}

func (s *Store) UpdateVehicle(ctx context.Context, v *vehicle.Vehicle) error {
	rent, err := mongodb.Decimal128(v.WeeklyRent)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	err = s.set(ctx, v.CompanyID, v.ID, bson.M{
		"registration": v.Registration,
		"make":         v.Make,
		"model":        v.Model,
		"year":         v.Year,
		"driver_id":    driverRef(v.DriverID),
		"weekly_rent":  rent,
		"image_urls":   v.ImageURLs,
		"updated_at":   now,
	})
	if err != nil {
		return err
	}

	v.UpdatedAt = &now

	return nil
}

func (s *Store) UpdateLoan(ctx context.Context, companyID, id uuid.UUID, loan *finance.LoanDetails) error {
	doc, err := toLoanDoc(loan)
	if err != nil {
		return err
	}

	return s.set(ctx, companyID, id, bson.M{"loan": doc, "updated_at": time.Now().UTC()})
}

func (s *Store) DeleteVehicle(ctx context.Context, companyID, id uuid.UUID) error {
	return s.set(ctx, companyID, id, bson.M{"deleted_at": time.Now().UTC()})
}
