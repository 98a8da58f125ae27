package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.NoError(t, h.Compare(hash, "correct-horse"))
	assert.ErrorIs(t, h.Compare(hash, "battery-staple"), ErrPasswordMismatch)
}

func TestHashRejectsLongPasswords(t *testing.T) {
	_, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestOutdatedComparesCost(t *testing.T) {
	cheap := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := cheap.Hash("pw")
	require.NoError(t, err)

	assert.False(t, cheap.Outdated(hash))
	assert.True(t, BcryptHasher{Cost: bcrypt.MinCost + 1}.Outdated(hash))
	assert.True(t, cheap.Outdated("not-a-hash"))
}

func TestTokensArePrefixedAndUnique(t *testing.T) {
	gen := RandomTokenGenerator{}
	a, err := gen.NewToken()
	require.NoError(t, err)
	b, err := gen.NewToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "rc_"))
	assert.NotEqual(t, a, b)
	assert.True(t, LooksLikeToken(a))
}

func TestSmallSizesAreRaised(t *testing.T) {
	tok, err := RandomTokenGenerator{Size: 4}.NewToken()
	require.NoError(t, err)
	assert.True(t, LooksLikeToken(tok))
}

func TestLooksLikeTokenRejectsForeignValues(t *testing.T) {
	for _, v := range []string{"", "abc", "rc_", "rc_short", "rc_!!!!!!!!!!!!!!!!!!!!!!!!"} {
		assert.False(t, LooksLikeToken(v), v)
	}
}
