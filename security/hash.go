package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// SaltSize is the number of random bytes used for generated salts.
const SaltSize = 32

const hashSeparator = ":"

// ErrInvalidSalt is returned by Hash for a salt that cannot be serialized.
var ErrInvalidSalt = goerrors.New("salt must not contain \":\"", goerrors.CategoryBadInput).
	WithTextCode("INVALID_SALT").
	WithCode(goerrors.CodeBadRequest)

// HashedSecret is a salted SHA-256 digest. Its wire form is "salt:digest".
type HashedSecret struct {
	Salt   string
	Digest string
}

// String returns the "salt:digest" serialization.
func (h HashedSecret) String() string {
	return h.Salt + hashSeparator + h.Digest
}

// ParseHashedSecret parses a "salt:digest" string.
func ParseHashedSecret(raw string) (HashedSecret, bool) {
	parts := strings.Split(raw, hashSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return HashedSecret{}, false
	}
	if _, err := hex.DecodeString(parts[1]); err != nil {
		return HashedSecret{}, false
	}
	return HashedSecret{Salt: parts[0], Digest: parts[1]}, true
}

// Hash computes SHA-256(data || salt). When salt is omitted a fresh random
// salt is generated. The result is deterministic for a given salt. A salt
// containing the ":" separator is rejected with ErrInvalidSalt.
func Hash(data string, salt ...string) (HashedSecret, error) {
	s := ""
	if len(salt) > 0 {
		s = salt[0]
	}
	if strings.Contains(s, hashSeparator) {
		return HashedSecret{}, ErrInvalidSalt
	}
	if s == "" {
		b, err := randomBytes(SaltSize)
		if err != nil {
			return HashedSecret{}, err
		}
		s = base64.RawURLEncoding.EncodeToString(b)
	}

	return HashedSecret{
		Salt:   s,
		Digest: digest(data, s),
	}, nil
}

// Verify reports whether data hashes to the given "salt:digest" value.
// Malformed input yields false. The digest comparison uses
// subtle.ConstantTimeCompare; parsing itself is not constant time.
func Verify(data, hashed string) bool {
	h, ok := ParseHashedSecret(hashed)
	if !ok {
		return false
	}

	expected := digest(data, h.Salt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(h.Digest))) == 1
}

func digest(data, salt string) string {
	sum := sha256.Sum256([]byte(data + salt))
	return hex.EncodeToString(sum[:])
}
