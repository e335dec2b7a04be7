package security

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidTokenLength is returned when a non-positive token length is requested.
var ErrInvalidTokenLength = goerrors.New("token length must be positive", goerrors.CategoryBadInput).
	WithTextCode("INVALID_TOKEN_LENGTH").
	WithCode(goerrors.CodeBadRequest)

// GenerateToken returns a URL-safe token of exactly length characters built
// from crypto/rand bytes.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidTokenLength
	}

	// 3 raw bytes encode to 4 characters
	b, err := randomBytes((length*3)/4 + 3)
	if err != nil {
		return "", err
	}

	token := base64.RawURLEncoding.EncodeToString(b)
	return token[:length], nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes")
	}
	return b, nil
}
