package social

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	authflow "github.com/goliatone/go-authflow"
	"github.com/goliatone/go-authflow/security"
)

const (
	defaultStateTTL = 10 * time.Minute
	stateNonceSize  = 24
)

// sealedState is the payload carried after the provider prefix.
type sealedState struct {
	Nonce     string `json:"n"`
	Provider  string `json:"p"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// SealedStateCodec issues "<provider>_<sealed>" state values. The sealed
// part is AES-GCM encrypted and HMAC signed and repeats the provider, so a
// tampered prefix or an expired state fails to route.
type SealedStateCodec struct {
	encryptionKey []byte
	hmacKey       []byte
	ttl           time.Duration
	now           func() time.Time
}

var _ authflow.StateCodec = (*SealedStateCodec)(nil)

// SealedStateOption configures a SealedStateCodec.
type SealedStateOption func(*SealedStateCodec)

// WithStateClock overrides the clock used for issue and expiry checks.
func WithStateClock(now func() time.Time) SealedStateOption {
	return func(c *SealedStateCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewSealedStateCodec creates a codec. encryptionKey must be a valid AES key
// size. A zero ttl defaults to ten minutes.
func NewSealedStateCodec(encryptionKey, hmacKey []byte, ttl time.Duration, opts ...SealedStateOption) (*SealedStateCodec, error) {
	if _, err := aes.NewCipher(encryptionKey); err != nil {
		return nil, fmt.Errorf("sealed state: %w", err)
	}
	if len(hmacKey) == 0 {
		return nil, fmt.Errorf("sealed state: empty hmac key")
	}
	if ttl == 0 {
		ttl = defaultStateTTL
	}

	c := &SealedStateCodec{
		encryptionKey: append([]byte(nil), encryptionKey...),
		hmacKey:       append([]byte(nil), hmacKey...),
		ttl:           ttl,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Issue implements authflow.StateCodec.
func (c *SealedStateCodec) Issue(provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || strings.Contains(provider, authflow.StateSeparator) {
		return "", ErrStateInvalid
	}

	nonce, err := security.GenerateToken(stateNonceSize)
	if err != nil {
		return "", err
	}

	now := c.now()
	sealed, err := c.seal(sealedState{
		Nonce:     nonce,
		Provider:  provider,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	})
	if err != nil {
		return "", err
	}

	return provider + authflow.StateSeparator + sealed, nil
}

// Route implements authflow.StateCodec.
func (c *SealedStateCodec) Route(state string) (string, error) {
	provider, payload, ok := strings.Cut(state, authflow.StateSeparator)
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !ok || provider == "" || payload == "" {
		return "", ErrStateInvalid
	}

	st, err := c.open(payload)
	if err != nil {
		return "", err
	}
	if st.Provider != provider {
		return "", ErrStateInvalid
	}
	if c.now().Unix() > st.ExpiresAt {
		return "", ErrStateExpired
	}

	return provider, nil
}

func (c *SealedStateCodec) seal(st sealedState) (string, error) {
	plaintext, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	signature := c.sign(ciphertext)

	return base64.RawURLEncoding.EncodeToString(append(signature, ciphertext...)), nil
}

func (c *SealedStateCodec) open(payload string) (sealedState, error) {
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(data) < sha256.Size {
		return sealedState{}, ErrStateInvalid
	}

	signature, ciphertext := data[:sha256.Size], data[sha256.Size:]
	if !hmac.Equal(signature, c.sign(ciphertext)) {
		return sealedState{}, ErrStateInvalid
	}

	gcm, err := c.gcm()
	if err != nil {
		return sealedState{}, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return sealedState{}, ErrStateInvalid
	}

	plaintext, err := gcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return sealedState{}, ErrStateInvalid
	}

	var st sealedState
	if err := json.Unmarshal(plaintext, &st); err != nil {
		return sealedState{}, ErrStateInvalid
	}
	return st, nil
}

func (c *SealedStateCodec) sign(data []byte) []byte {
	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write(data)
	return mac.Sum(nil)
}

func (c *SealedStateCodec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
