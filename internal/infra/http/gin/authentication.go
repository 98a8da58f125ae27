package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainauth "rentacar/internal/domain/auth"
	"rentacar/internal/infra/security"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domainauth.Session, error)
}

// SessionMiddleware attaches the bearer token's session to the request
// context. Anonymous requests pass through; the buses decide what they may do.
type SessionMiddleware struct {
	Resolver SessionResolver
	Logger   *slog.Logger
}

func (m SessionMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if m.Resolver == nil || !security.LooksLikeToken(token) {
		c.Next()
		return
	}
	session, err := m.Resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.DebugContext(c.Request.Context(), "token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Request = c.Request.WithContext(domainauth.WithSession(c.Request.Context(), session))
	c.Next()
}

func currentSession(c *gin.Context) (*domainauth.Session, bool) {
	return domainauth.FromContext(c.Request.Context())
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
