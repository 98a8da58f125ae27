// Package access decides which bus messages a session may send.
package access

import (
	"context"
	"errors"

	domainauth "rentacar/internal/domain/auth"
	domainuser "rentacar/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("access: sign-in required")
	ErrForbidden       = errors.New("access: admin role required")
)

type Level int

const (
	Public Level = iota
	SignedIn
	AdminOnly
)

// Restricted is implemented by commands and queries that need a session.
// Messages without it are public.
type Restricted interface {
	AccessLevel() Level
}

// Authorizer checks the session carried in the context against the level the
// message asks for.
type Authorizer struct{}

func (Authorizer) Authorize(ctx context.Context, message any) error {
	r, ok := message.(Restricted)
	if !ok {
		return nil
	}
	return Require(ctx, r.AccessLevel())
}

func Require(ctx context.Context, level Level) error {
	if level == Public {
		return nil
	}
	session, ok := domainauth.FromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if level == AdminOnly && !session.HasRole(domainuser.RoleAdmin) {
		return ErrForbidden
	}
	return nil
}

// Actor returns the id of the signed-in user, empty when anonymous.
func Actor(ctx context.Context) string {
	if s, ok := domainauth.FromContext(ctx); ok {
		return string(s.UserID)
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	s, ok := domainauth.FromContext(ctx)
	return ok && s.HasRole(domainuser.RoleAdmin)
}
