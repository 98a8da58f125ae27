package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleRenter Role = "renter"
	RoleAdmin  Role = "admin"
)

func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleRenter:
		return RoleRenter, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Profile holds the renter details reused to prefill checkout.
type Profile struct {
	Phone         string
	NICOrPassport string
	District      string
	City          string
}

type User struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	roles := []Role{RoleRenter}
	for _, r := range params.Roles {
		parsed, ok := ParseRole(string(r))
		if !ok {
			return nil, ErrInvalidRole
		}
		if parsed != RoleRenter {
			roles = append(roles, parsed)
		}
	}
	now := params.CreatedAt.UTC()
	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		PasswordHash: params.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UpdateProfile replaces contact details; empty name keeps the current one.
func (u *User) UpdateProfile(name string, p Profile, now time.Time) {
	if n := strings.TrimSpace(name); n != "" {
		u.Name = n
	}
	u.Profile = Profile{
		Phone:         strings.TrimSpace(p.Phone),
		NICOrPassport: strings.TrimSpace(p.NICOrPassport),
		District:      strings.TrimSpace(p.District),
		City:          strings.TrimSpace(p.City),
	}
	u.UpdatedAt = now.UTC()
}

// ReplacePasswordHash swaps the stored hash, e.g. after a cost upgrade.
func (u *User) ReplacePasswordHash(hash string, now time.Time) {
	u.PasswordHash = hash
	u.UpdatedAt = now.UTC()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
