package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=auth
type Repository interface {
	CreateCompany(ctx context.Context, c *Company) error
	GetCompanyByName(ctx context.Context, name string) (*Company, error)
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo     Repository
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewService(repo Repository, sessions SessionStore, secret string, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

type CreateUserParams struct {
	CompanyName string
	Email       string
	Name        string
	Role        Role
	Password    string
}

// CreateUser registers a user, creating the company on first use.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	companyName := strings.TrimSpace(params.CompanyName)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email: %v", ErrInvalidUser, err)
	}

	switch {
	case companyName == "":
		return nil, fmt.Errorf("%w: company is required", ErrInvalidUser)
	case !params.Role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, params.Role)
	case len(params.Password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password shorter than %d characters", ErrInvalidUser, minPasswordLen)
	}

	company, err := s.repo.GetCompanyByName(ctx, companyName)
	if errors.Is(err, ErrNotFound) {
		company = &Company{Name: companyName}
		err = s.repo.CreateCompany(ctx, company)
	}

	if err != nil {
		return nil, fmt.Errorf("resolving company: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		CompanyID:    company.ID,
		Email:        email,
		Name:         strings.TrimSpace(params.Name),
		Role:         params.Role,
		PasswordHash: string(hash),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

type claims struct {
	CompanyID string `json:"cid"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// Login checks the credentials, opens a session and returns its signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Session, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}

		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &Session{
		ID:        uuid.New(),
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		Role:      u.Role,
		Email:     u.Email,
		Name:      u.Name,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.Save(ctx, session, s.ttl); err != nil {
		return "", nil, fmt.Errorf("saving session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		CompanyID: u.CompanyID.String(),
		Role:      u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}

	return signed, session, nil
}

// Authenticate verifies the token and loads its session. A token whose
// session was logged out or timed out yields ErrSessionExpired.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}

		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	id, err := uuid.Parse(c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session id", ErrInvalidCredentials)
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.UserID.String() != c.Subject {
		return nil, fmt.Errorf("%w: session does not belong to token subject", ErrInvalidCredentials)
	}

	return session, nil
}

func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.Delete(ctx, sessionID)
}
