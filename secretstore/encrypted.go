package secretstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key size expected by NewEncrypted.
const KeySize = 32

// DeriveKey stretches a passphrase into a KeySize key with Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Encrypted seals values with AES-GCM before handing them to the wrapped
// Storage. The storage key is bound as additional data so a ciphertext
// cannot be replayed under a different key.
type Encrypted struct {
	inner Storage
	aead  cipher.AEAD
}

var _ Storage = (*Encrypted)(nil)

// NewEncrypted wraps inner with AES-GCM using key.
func NewEncrypted(inner Storage, key []byte) (*Encrypted, error) {
	if inner == nil {
		return nil, fmt.Errorf("secretstore: inner storage is required")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encrypted{inner: inner, aead: gcm}, nil
}

func (e *Encrypted) Write(ctx context.Context, key, value string) error {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return StorageError("encrypt", key, err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return e.inner.Write(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

func (e *Encrypted) Read(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := e.inner.Read(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	data, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, StorageError("decrypt", key, err)
	}

	size := e.aead.NonceSize()
	if len(data) < size {
		return "", false, StorageError("decrypt", key, fmt.Errorf("ciphertext too short"))
	}

	plain, err := e.aead.Open(nil, data[:size], data[size:], []byte(key))
	if err != nil {
		return "", false, StorageError("decrypt", key, err)
	}
	return string(plain), true, nil
}

func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

func (e *Encrypted) DeleteAll(ctx context.Context) error {
	return e.inner.DeleteAll(ctx)
}
