package security_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-authflow/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	inputs := []string{"", "secret", "pässwörd", strings.Repeat("x", 1024)}

	for _, in := range inputs {
		h, err := security.Hash(in)
		require.NoError(t, err)
		assert.True(t, security.Verify(in, h.String()), "input %q", in)
	}
}

func TestHashIsDeterministicForSalt(t *testing.T) {
	a, err := security.Hash("data", "salt")
	require.NoError(t, err)
	b, err := security.Hash("data", "salt")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "salt", a.Salt)
	// sha256("datasalt")
	assert.Len(t, a.Digest, 64)
}

func TestHashWithCallerSaltVerifies(t *testing.T) {
	salts := []string{"salt", "pep-per", "c2FsdA", "with space"}

	for _, salt := range salts {
		h, err := security.Hash("secret", salt)
		require.NoError(t, err)
		assert.True(t, security.Verify("secret", h.String()), "salt %q", salt)
	}
}

func TestHashRejectsSaltWithSeparator(t *testing.T) {
	h, err := security.Hash("secret", "pep:per")
	assert.ErrorIs(t, err, security.ErrInvalidSalt)
	assert.Equal(t, security.HashedSecret{}, h)
}

func TestHashGeneratesDistinctSalts(t *testing.T) {
	a, err := security.Hash("data")
	require.NoError(t, err)
	b, err := security.Hash("data")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Digest, b.Digest)
}

func TestVerifyRejectsDifferentData(t *testing.T) {
	h, err := security.Hash("data")
	require.NoError(t, err)

	assert.False(t, security.Verify("data2", h.String()))
}

func TestVerifyFailsClosedOnMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		hashed string
	}{
		{name: "no separator", hashed: "abcdef"},
		{name: "too many segments", hashed: "a:b:c"},
		{name: "empty salt", hashed: ":abcd"},
		{name: "empty digest", hashed: "salt:"},
		{name: "digest not hex", hashed: "salt:zzzz"},
		{name: "empty", hashed: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, security.Verify("data", tt.hashed))
			})
		})
	}
}

func TestParseHashedSecret(t *testing.T) {
	h, err := security.Hash("data", "pepper")
	require.NoError(t, err)

	parsed, ok := security.ParseHashedSecret(h.String())
	require.True(t, ok)
	assert.Equal(t, h, parsed)
}

func TestGenerateToken(t *testing.T) {
	for _, length := range []int{1, 7, 16, 32, 64, 65} {
		token, err := security.GenerateToken(length)
		require.NoError(t, err)
		assert.Len(t, token, length)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.NotContains(t, token, "=")
	}
}

func TestGenerateTokenIsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		token, err := security.GenerateToken(32)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestGenerateTokenRejectsInvalidLength(t *testing.T) {
	_, err := security.GenerateToken(0)
	assert.ErrorIs(t, err, security.ErrInvalidTokenLength)
}
