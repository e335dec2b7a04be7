package security

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is used when CreateSession gets a non-positive TTL.
const DefaultSessionTTL = 24 * time.Hour

// SessionDescriptor is a short-lived record of an authenticated session.
// It is a plain value; the helpers below return modified copies.
type SessionDescriptor struct {
	SessionID    string     `json:"session_id"`
	OwnerID      string     `json:"owner_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastActivity time.Time  `json:"last_activity"`
	Active       bool       `json:"active"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// CreateSession builds an active descriptor for ownerID expiring after ttl.
func CreateSession(ownerID string, ttl time.Duration, now time.Time) SessionDescriptor {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return SessionDescriptor{
		SessionID:    uuid.NewString(),
		OwnerID:      ownerID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		LastActivity: now,
		Active:       true,
	}
}

// IsValidSession reports whether the descriptor is well formed, active and
// not expired at now.
func IsValidSession(s SessionDescriptor, now time.Time) bool {
	if s.SessionID == "" || s.OwnerID == "" {
		return false
	}
	if !s.ExpiresAt.After(s.CreatedAt) {
		return false
	}
	return s.Active && now.Before(s.ExpiresAt)
}

// IsSessionIdle reports whether no activity was recorded within timeout.
// A non-positive timeout disables the idle check.
func IsSessionIdle(s SessionDescriptor, timeout time.Duration, now time.Time) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) >= timeout
}

// UpdateSessionActivity stamps LastActivity. ExpiresAt is never extended.
// Inactive descriptors are returned unchanged.
func UpdateSessionActivity(s SessionDescriptor, now time.Time) SessionDescriptor {
	if !s.Active {
		return s
	}
	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
	return s
}

// RevokeSession deactivates the descriptor and stamps RevokedAt.
func RevokeSession(s SessionDescriptor, now time.Time) SessionDescriptor {
	if !s.Active && s.RevokedAt != nil {
		return s
	}
	revokedAt := now
	s.Active = false
	s.RevokedAt = &revokedAt
	return s
}
