package authflow

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/security"
)

// StateSeparator splits the provider prefix from the nonce in an OAuth
// state value.
const StateSeparator = "_"

const stateNonceSize = 32

// StateCodec issues the OAuth state parameter for a provider and routes an
// incoming state back to the provider that issued it. It is the single
// place where callback routing policy lives.
type StateCodec interface {
	Issue(provider string) (string, error)
	Route(state string) (provider string, err error)
}

// PrefixStateCodec issues "<provider>_<nonce>" with a CSPRNG nonce and
// routes on the prefix. The prefix is not authenticated; use a sealed codec
// when the state must be tamper evident.
type PrefixStateCodec struct{}

func (PrefixStateCodec) Issue(provider string) (string, error) {
	provider = normalizeProvider(provider)
	if provider == "" || strings.Contains(provider, StateSeparator) {
		return "", fmt.Errorf("oauth state: invalid provider %q", provider)
	}

	nonce, err := security.GenerateToken(stateNonceSize)
	if err != nil {
		return "", err
	}
	return provider + StateSeparator + nonce, nil
}

func (PrefixStateCodec) Route(state string) (string, error) {
	provider, nonce, ok := strings.Cut(state, StateSeparator)
	provider = normalizeProvider(provider)
	if !ok || provider == "" || nonce == "" {
		return "", fmt.Errorf("oauth state: no provider prefix")
	}
	return provider, nil
}
