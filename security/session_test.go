package security_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-authflow/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := security.CreateSession("user-1", time.Hour, now)

	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, "user-1", s.OwnerID)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
	assert.Equal(t, now, s.LastActivity)
	assert.True(t, s.Active)
	assert.Nil(t, s.RevokedAt)
	assert.True(t, security.IsValidSession(s, now))
}

func TestCreateSessionDefaultsTTL(t *testing.T) {
	now := time.Now()
	s := security.CreateSession("user-1", 0, now)
	assert.Equal(t, now.Add(security.DefaultSessionTTL), s.ExpiresAt)
}

func TestIsValidSession(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	base := security.CreateSession("user-1", time.Hour, now)

	assert.False(t, security.IsValidSession(base, now.Add(time.Hour)), "expired at boundary")
	assert.True(t, security.IsValidSession(base, now.Add(59*time.Minute)))

	missingOwner := base
	missingOwner.OwnerID = ""
	assert.False(t, security.IsValidSession(missingOwner, now))

	inverted := base
	inverted.ExpiresAt = base.CreatedAt
	assert.False(t, security.IsValidSession(inverted, now))

	assert.False(t, security.IsValidSession(security.SessionDescriptor{}, now))
}

func TestUpdateSessionActivityNeverExtendsExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := security.CreateSession("user-1", time.Hour, now)

	later := now.Add(30 * time.Minute)
	updated := security.UpdateSessionActivity(s, later)

	assert.Equal(t, later, updated.LastActivity)
	assert.Equal(t, s.ExpiresAt, updated.ExpiresAt)
	assert.Equal(t, now, s.LastActivity, "input is not mutated")
}

func TestRevokeSession(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := security.CreateSession("user-1", time.Hour, now)

	revoked := security.RevokeSession(s, now.Add(time.Minute))
	assert.False(t, revoked.Active)
	require.NotNil(t, revoked.RevokedAt)
	assert.Equal(t, now.Add(time.Minute), *revoked.RevokedAt)
	assert.False(t, security.IsValidSession(revoked, now.Add(2*time.Minute)))

	again := security.RevokeSession(revoked, now.Add(time.Hour))
	assert.Equal(t, now.Add(time.Minute), *again.RevokedAt, "revocation keeps first stamp")

	touched := security.UpdateSessionActivity(revoked, now.Add(5*time.Minute))
	assert.Equal(t, revoked.LastActivity, touched.LastActivity)
}

func TestIsSessionIdle(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := security.CreateSession("user-1", time.Hour, now)

	assert.False(t, security.IsSessionIdle(s, 15*time.Minute, now.Add(10*time.Minute)))
	assert.True(t, security.IsSessionIdle(s, 15*time.Minute, now.Add(15*time.Minute)))
	assert.False(t, security.IsSessionIdle(s, 0, now.Add(24*time.Hour)))
}

func TestSessionCodecRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := security.NewSessionCodec([]byte("secret"), "authflow",
		security.WithSessionCodecClock(func() time.Time { return now.Add(time.Minute) }))

	s := security.CreateSession("user-1", time.Hour, now)
	raw, err := codec.Encode(s)
	require.NoError(t, err)

	decoded, ok := codec.Decode(raw)
	require.True(t, ok)
	assert.Equal(t, s.SessionID, decoded.SessionID)
	assert.Equal(t, s.OwnerID, decoded.OwnerID)
	assert.True(t, decoded.ExpiresAt.Equal(s.ExpiresAt))
	assert.True(t, decoded.Active)
}

func TestSessionCodecFailsClosed(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	codec := security.NewSessionCodec([]byte("secret"), "authflow",
		security.WithSessionCodecClock(func() time.Time { return clock }))

	s := security.CreateSession("user-1", time.Hour, now)
	raw, err := codec.Encode(s)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, ok := codec.Decode("not-a-token")
		assert.False(t, ok)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := security.NewSessionCodec([]byte("other"), "authflow",
			security.WithSessionCodecClock(func() time.Time { return now }))
		_, ok := other.Decode(raw)
		assert.False(t, ok)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := security.NewSessionCodec([]byte("secret"), "someone-else",
			security.WithSessionCodecClock(func() time.Time { return now }))
		_, ok := other.Decode(raw)
		assert.False(t, ok)
	})

	t.Run("revoked", func(t *testing.T) {
		revoked, err := codec.Encode(security.RevokeSession(s, now))
		require.NoError(t, err)
		_, ok := codec.Decode(revoked)
		assert.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		clock = now.Add(2 * time.Hour)
		defer func() { clock = now }()
		_, ok := codec.Decode(raw)
		assert.False(t, ok)
	})
}

func TestSessionCodecRequiresKey(t *testing.T) {
	codec := security.NewSessionCodec(nil, "")
	_, err := codec.Encode(security.CreateSession("user-1", time.Hour, time.Now()))
	assert.Error(t, err)
}
