package driver

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("driver not found")
	ErrInvalidDriver = errors.New("invalid driver")
)

type Driver struct {
	ID            uuid.UUID
	CompanyID     uuid.UUID
	Name          string
	Email         string
	Phone         string
	LicenseNumber string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=driver
type Repository interface {
	CreateDriver(ctx context.Context, d *Driver) error
	GetDriver(ctx context.Context, companyID, id uuid.UUID) (*Driver, error)
	ListDrivers(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*Driver, error)
	UpdateDriver(ctx context.Context, d *Driver) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Params struct {
	Name          string
	Email         string
	Phone         string
	LicenseNumber string
}

func (p *Params) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)

	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDriver)
	}

	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: email: %v", ErrInvalidDriver, err)
		}
	}

	return nil
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params Params) (*Driver, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	d := &Driver{
		CompanyID:     companyID,
		Name:          params.Name,
		Email:         params.Email,
		Phone:         strings.TrimSpace(params.Phone),
		LicenseNumber: strings.TrimSpace(params.LicenseNumber),
		Active:        true,
	}

	if err := s.repo.CreateDriver(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Driver, error) {
	return s.repo.GetDriver(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*Driver, error) {
	return s.repo.ListDrivers(ctx, companyID, activeOnly)
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, params Params) (*Driver, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetDriver(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	d.Name = params.Name
	d.Email = params.Email
	d.Phone = strings.TrimSpace(params.Phone)
	d.LicenseNumber = strings.TrimSpace(params.LicenseNumber)

	if err := s.repo.UpdateDriver(ctx, d); err != nil {
		return nil, fmt.Errorf("updating driver: %w", err)
	}

	return d, nil
}

// SetActive enables or disables a driver. Inactive drivers stay attached to
// their history but get no reminders.
func (s *Service) SetActive(ctx context.Context, companyID, id uuid.UUID, active bool) (*Driver, error) {
	d, err := s.repo.GetDriver(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	d.Active = active

	if err := s.repo.UpdateDriver(ctx, d); err != nil {
		return nil, fmt.Errorf("updating driver: %w", err)
	}

	return d, nil
}
