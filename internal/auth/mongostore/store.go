package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
)

type companyDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	CompanyID    string    `bson:"company_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type Store struct {
	companies *mongodb.Collection[companyDoc]
	users     *mongodb.Collection[userDoc]
}

func New(db *mongo.Database) *Store {
	return &Store{
		companies: mongodb.NewCollection[companyDoc](db.Collection("companies")),
		users:     mongodb.NewCollection[userDoc](db.Collection("users")),
	}
}

func (s *Store) CreateCompany(ctx context.Context, c *auth.Company) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()

	return s.companies.Insert(ctx, &companyDoc{ID: c.ID.String(), Name: c.Name, CreatedAt: c.CreatedAt})
}

func (s *Store) GetCompanyByName(ctx context.Context, name string) (*auth.Company, error) {
	doc, err := s.companies.FindOne(ctx, bson.M{"name": name})
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocument) {
			return nil, auth.ErrNotFound
		}

		return nil, err
	}

	return &auth.Company{ID: mongodb.ParseID(doc.ID), Name: doc.Name, CreatedAt: doc.CreatedAt}, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()

	return s.users.Insert(ctx, &userDoc{
		ID:           u.ID.String(),
		CompanyID:    u.CompanyID.String(),
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	doc, err := s.users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocument) {
			return nil, auth.ErrNotFound
		}

		return nil, err
	}

	return &auth.User{
		ID:           mongodb.ParseID(doc.ID),
		CompanyID:    mongodb.ParseID(doc.CompanyID),
		Email:        doc.Email,
		Name:         doc.Name,
		Role:         auth.Role(doc.Role),
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
