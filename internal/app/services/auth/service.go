package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainauth "rentacar/internal/domain/auth"
	domainuser "rentacar/internal/domain/user"
)

const (
	MinPasswordLength = 8
	DefaultSessionTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
	ErrNotConfigured      = errors.New("auth: service dependencies missing")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// hashUpgrader is implemented by hashers that can tell a stale hash.
type hashUpgrader interface {
	Outdated(hash string) bool
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service signs renters and admins up and in. Emails listed in AdminEmails
// receive the admin role on registration.
type Service struct {
	Users       domainuser.Repository
	Sessions    domainauth.SessionStore
	Passwords   PasswordHasher
	Tokens      TokenGenerator
	SessionTTL  time.Duration
	AdminEmails []string
	Now         func() time.Time
	Logger      *slog.Logger
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type Result struct {
	User    *domainuser.User
	Session *domainauth.Session
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, domainuser.ErrEmailRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, domainuser.ErrNameRequired
	}
	if utf8.RuneCountInString(params.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if existing, err := s.Users.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, domainuser.ErrEmailAlreadyUsed
	} else if err != nil && !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	var roles []domainuser.Role
	if s.isAdminEmail(email) {
		roles = append(roles, domainuser.RoleAdmin)
	}
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         params.Name,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	session, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger().InfoContext(ctx, "user registered", "user_id", u.ID, "admin", u.HasRole(domainuser.RoleAdmin))
	return &Result{User: u, Session: session}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(u.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if up, ok := s.Passwords.(hashUpgrader); ok && up.Outdated(u.PasswordHash) {
		s.upgradeHash(ctx, u, params.Password)
	}
	session, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger().InfoContext(ctx, "user signed in", "user_id", u.ID)
	return &Result{User: u, Session: session}, nil
}

// Logout drops the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	err := s.Sessions.Delete(ctx, domainauth.Token(token))
	if err != nil && !errors.Is(err, domainauth.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Resolve maps a bearer token to its live session. Expired sessions are
// deleted and reported as not found.
func (s *Service) Resolve(ctx context.Context, token string) (*domainauth.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

// Profile returns the signed-in user.
func (s *Service) Profile(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Users.ByID(ctx, id)
}

// UpdateProfile stores the renter details used to prefill checkout.
func (s *Service) UpdateProfile(ctx context.Context, id domainuser.ID, name string, profile domainuser.Profile) (*domainuser.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.UpdateProfile(name, profile, s.now())
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) upgradeHash(ctx context.Context, u *domainuser.User, password string) {
	hash, err := s.Passwords.Hash(password)
	if err == nil {
		u.ReplacePasswordHash(hash, s.now())
		err = s.Users.Save(ctx, u)
	}
	if err != nil {
		s.logger().WarnContext(ctx, "password rehash failed", "user_id", u.ID, "error", err)
	}
}

func (s *Service) issue(ctx context.Context, u *domainuser.User) (*domainauth.Session, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token: domainauth.Token(token),
		User:  u,
		TTL:   ttl,
		Now:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) isAdminEmail(email string) bool {
	for _, candidate := range s.AdminEmails {
		if domainuser.NormalizeEmail(candidate) == email {
			return true
		}
	}
	return false
}

func (s *Service) ready() error {
	if s == nil || s.Users == nil || s.Sessions == nil || s.Passwords == nil || s.Tokens == nil {
		return ErrNotConfigured
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
