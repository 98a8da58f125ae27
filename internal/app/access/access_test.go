package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "rentacar/internal/domain/auth"
	domainuser "rentacar/internal/domain/user"
)

type adminMsg struct{}

func (adminMsg) AccessLevel() Level { return AdminOnly }

type renterMsg struct{}

func (renterMsg) AccessLevel() Level { return SignedIn }

func sessionCtx(roles ...domainuser.Role) context.Context {
	s := &domainauth.Session{Token: "t", UserID: "u1", Roles: roles, ExpiresAt: time.Now().Add(time.Hour)}
	return domainauth.WithSession(context.Background(), s)
}

func TestAuthorizer(t *testing.T) {
	a := Authorizer{}
	anon := context.Background()
	assert.NoError(t, a.Authorize(anon, struct{}{}))
	assert.ErrorIs(t, a.Authorize(anon, renterMsg{}), ErrUnauthenticated)
	assert.ErrorIs(t, a.Authorize(anon, adminMsg{}), ErrUnauthenticated)

	renter := sessionCtx(domainuser.RoleRenter)
	assert.NoError(t, a.Authorize(renter, renterMsg{}))
	assert.ErrorIs(t, a.Authorize(renter, adminMsg{}), ErrForbidden)
	assert.Equal(t, "u1", Actor(renter))
	assert.False(t, IsAdmin(renter))

	admin := sessionCtx(domainuser.RoleRenter, domainuser.RoleAdmin)
	assert.NoError(t, a.Authorize(admin, adminMsg{}))
	assert.True(t, IsAdmin(admin))
	assert.Empty(t, Actor(anon))
}
