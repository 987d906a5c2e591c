// Package auth handles back-office users and their login sessions.
//
// A Session is an explicit value: middleware loads it from the session store
// and places it on the request context, and services receive the tenant from
// it. Nothing in the process holds a "current user".
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidUser        = errors.New("invalid user")
	ErrForbidden          = errors.New("forbidden")
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleDriver   Role = "driver"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleDriver:
		return true
	}

	return false
}

// Can reports whether the role is at least min. Admin outranks operator,
// which outranks driver.
func (r Role) Can(min Role) bool {
	return rank(r) >= rank(min)
}

func rank(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleOperator:
		return 2
	case RoleDriver:
		return 1
	}

	return 0
}

type Company struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type User struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// Session is an authenticated login. It expires at ExpiresAt and is removed
// on logout.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession, or nil.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
