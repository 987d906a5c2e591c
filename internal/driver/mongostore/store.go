package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
)

type driverDoc struct {
	ID            string     `bson:"_id"`
	CompanyID     string     `bson:"company_id"`
	Name          string     `bson:"name"`
	Email         string     `bson:"email"`
	Phone         string     `bson:"phone"`
	LicenseNumber string     `bson:"license_number"`
	Active        bool       `bson:"active"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     *time.Time `bson:"updated_at,omitempty"`
}

func (d *driverDoc) toDriver() *driver.Driver {
	return &driver.Driver{
		ID:            mongodb.ParseID(d.ID),
		CompanyID:     mongodb.ParseID(d.CompanyID),
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type Store struct {
	drivers *mongodb.Collection[driverDoc]
}

func New(db *mongo.Database) *Store {
	return &Store{drivers: mongodb.NewCollection[driverDoc](db.Collection("drivers"))}
}

func (s *Store) CreateDriver(ctx context.Context, d *driver.Driver) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()

	return s.drivers.Insert(ctx, &driverDoc{
		ID:            d.ID.String(),
		CompanyID:     d.CompanyID.String(),
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
	})
}

func (s *Store) GetDriver(ctx context.Context, companyID, id uuid.UUID) (*driver.Driver, error) {
	doc, err := s.drivers.FindOne(ctx, bson.M{"_id": id.String(), "company_id": companyID.String()})
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocument) {
			return nil, driver.ErrNotFound
		}

		return nil, err
	}

	return doc.toDriver(), nil
}

func (s *Store) ListDrivers(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*driver.Driver, error) {
	q := bson.M{"company_id": companyID.String()}
	if activeOnly {
		q["active"] = true
	}

	docs, err := s.drivers.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}

	out := make([]*driver.Driver, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDriver())
	}

	return out, nil
}

func (s *Store) UpdateDriver(ctx context.Context, d *driver.Driver) error {
	now := time.Now().UTC()

	matched, err := s.drivers.Set(ctx,
		bson.M{"_id": d.ID.String(), "company_id": d.CompanyID.String()},
		bson.M{
			"name":           d.Name,
			"email":          d.Email,
			"phone":          d.Phone,
			"license_number": d.LicenseNumber,
			"active":         d.Active,
			"updated_at":     now,
		},
	)
	if err != nil {
		return err
	}

	if !matched {
		return driver.ErrNotFound
	}

	d.UpdatedAt = &now

	return nil
}
