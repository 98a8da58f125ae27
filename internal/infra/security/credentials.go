// Package security hashes account passwords and mints session tokens.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("security: password does not match")
	ErrPasswordTooLong  = errors.New("security: password longer than 72 bytes")
)

// BcryptHasher stores passwords as bcrypt hashes. A zero Cost means
// bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", ErrPasswordTooLong
	case err != nil:
		return "", fmt.Errorf("security: hash password: %w", err)
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("security: compare password: %w", err)
	}
}

// Outdated reports whether hash was produced with a cost other than the
// hasher's current one.
func (h BcryptHasher) Outdated(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.cost()
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

const (
	tokenPrefix      = "rc_"
	defaultTokenSize = 32
	minTokenSize     = 16
)

// RandomTokenGenerator issues opaque URL-safe session tokens of the form
// rc_<base64url>. Size is the entropy in bytes, at least 16.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size == 0 {
		size = defaultTokenSize
	}
	if size < minTokenSize {
		size = minTokenSize
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: token entropy: %w", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// LooksLikeToken rejects bearer values that this generator cannot have
// produced, so they never reach the session store.
func LooksLikeToken(v string) bool {
	raw, ok := strings.CutPrefix(v, tokenPrefix)
	if !ok {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	return err == nil && len(decoded) >= minTokenSize
}
