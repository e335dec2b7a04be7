package authflow

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/goliatone/go-authflow/secretstore"
	"github.com/goliatone/go-authflow/security"
)

// DefaultRememberMeDuration is the lifetime of a remember-me credential.
const DefaultRememberMeDuration = 30 * 24 * time.Hour

const defaultRememberMeTokenSize = 64

// RememberMeCredential is the long lived device credential. It is valid
// while Active and before ExpiresAt.
type RememberMeCredential struct {
	Token             string    `json:"token"`
	OwnerID           string    `json:"owner_id"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	Active            bool      `json:"active"`
}

// IsValid reports whether the credential can still be used at now.
func (c RememberMeCredential) IsValid(now time.Time) bool {
	return c.Active && now.Before(c.ExpiresAt)
}

// TokenStore manages a single remember-me slot in a secret storage. Issue,
// Fetch, Refresh and Clear are serialized within the process; storage
// failures never surface from the read paths.
type TokenStore struct {
	mu          sync.Mutex
	storage     secretstore.Storage
	cfg         RememberMeConfig
	logger      Logger
	now         func() time.Time
	fingerprint func(now time.Time) string
}

// TokenStoreOption customizes a TokenStore.
type TokenStoreOption func(*TokenStore)

func WithTokenStoreClock(clock func() time.Time) TokenStoreOption {
	return func(s *TokenStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithTokenStoreLogger(logger Logger) TokenStoreOption {
	return func(s *TokenStore) {
		s.logger = normalizeLogger(logger)
	}
}

// WithDeviceFingerprint replaces the default platform/version/time
// fingerprint. The value is informational and never used for binding.
func WithDeviceFingerprint(fn func(now time.Time) string) TokenStoreOption {
	return func(s *TokenStore) {
		if fn != nil {
			s.fingerprint = fn
		}
	}
}

// NewTokenStore returns a store persisting into storage under
// cfg.StorageKey.
func NewTokenStore(storage secretstore.Storage, cfg RememberMeConfig, opts ...TokenStoreOption) *TokenStore {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultRememberMeDuration
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultConfig().RememberMe.StorageKey
	}
	if cfg.TokenSize <= 0 {
		cfg.TokenSize = defaultRememberMeTokenSize
	}

	s := &TokenStore{
		storage: storage,
		cfg:     cfg,
		logger:  defLogger{},
		now:     time.Now,
	}
	s.fingerprint = s.defaultFingerprint

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Issue creates a fresh credential for ownerID and stores it, replacing any
// previous one.
func (s *TokenStore) Issue(ctx context.Context, ownerID string) (RememberMeCredential, error) {
	if ownerID == "" {
		return RememberMeCredential{}, fmt.Errorf("remember me: owner id is required")
	}

	token, err := security.GenerateToken(s.cfg.TokenSize)
	if err != nil {
		return RememberMeCredential{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cred := RememberMeCredential{
		Token:             token,
		OwnerID:           ownerID,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.cfg.Duration),
		DeviceFingerprint: s.fingerprint(now),
		Active:            true,
	}

	if err := s.write(ctx, cred); err != nil {
		return RememberMeCredential{}, err
	}

	s.logger.Debug("remember me credential issued for %s, expires %s", ownerID, cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

// Fetch returns the stored credential if it is valid. An invalid or
// unreadable credential is evicted and reported as absent.
func (s *TokenStore) Fetch(ctx context.Context) (RememberMeCredential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked(ctx)
}

// Validate reports whether token matches the stored valid credential.
func (s *TokenStore) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	cred, ok := s.Fetch(ctx)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cred.Token), []byte(token)) == 1
}

// Refresh moves the expiry of a valid credential to now plus the full
// duration. It is a no-op without a valid credential. A failed write clears
// the slot. It reports whether the credential was extended.
func (s *TokenStore) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.fetchLocked(ctx)
	if !ok {
		return false
	}

	cred.ExpiresAt = s.now().Add(s.cfg.Duration)
	if err := s.write(ctx, cred); err != nil {
		s.logger.Warn("remember me refresh failed, revoking: %v", err)
		s.clearLocked(ctx)
		return false
	}
	return true
}

// Clear removes the credential. Storage failures are logged only.
func (s *TokenStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

// ClearAll wipes the whole secret storage. Storage failures are logged only.
func (s *TokenStore) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.DeleteAll(ctx); err != nil {
		s.logger.Warn("remember me clear all failed: %v", err)
	}
}

func (s *TokenStore) fetchLocked(ctx context.Context) (RememberMeCredential, bool) {
	raw, ok, err := s.storage.Read(ctx, s.cfg.StorageKey)
	if err != nil {
		s.logger.Warn("remember me read failed: %v", err)
		return RememberMeCredential{}, false
	}
	if !ok {
		return RememberMeCredential{}, false
	}

	var cred RememberMeCredential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		s.logger.Warn("remember me credential unreadable, evicting: %v", err)
		s.clearLocked(ctx)
		return RememberMeCredential{}, false
	}

	if !cred.IsValid(s.now()) {
		s.logger.Debug("remember me credential for %s no longer valid, evicting", cred.OwnerID)
		s.clearLocked(ctx)
		return RememberMeCredential{}, false
	}
	return cred, true
}

func (s *TokenStore) write(ctx context.Context, cred RememberMeCredential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.storage.Write(ctx, s.cfg.StorageKey, string(payload))
}

func (s *TokenStore) clearLocked(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.cfg.StorageKey); err != nil {
		s.logger.Warn("remember me clear failed: %v", err)
	}
}

func (s *TokenStore) defaultFingerprint(now time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%d", runtime.GOOS, runtime.GOARCH, s.cfg.AppVersion, now.UnixMilli())
}
