package authflow

import (
	"sort"
	"sync"
)

// ProviderRegistry maps auth methods to their collaborators.
type ProviderRegistry struct {
	mu             sync.RWMutex
	password       AuthProvider
	phone          PhoneVerifier
	federated      map[string]FederatedProvider
	authenticators map[AuthMethod]MethodAuthenticator
}

// NewProviderRegistry returns an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		federated:      make(map[string]FederatedProvider),
		authenticators: make(map[AuthMethod]MethodAuthenticator),
	}
}

func (r *ProviderRegistry) SetPasswordProvider(p AuthProvider) *ProviderRegistry {
	r.mu.Lock()
	r.password = p
	r.mu.Unlock()
	return r
}

func (r *ProviderRegistry) SetPhoneVerifier(v PhoneVerifier) *ProviderRegistry {
	r.mu.Lock()
	r.phone = v
	r.mu.Unlock()
	return r
}

// RegisterFederated adds or replaces a provider keyed by its Name.
func (r *ProviderRegistry) RegisterFederated(p FederatedProvider) *ProviderRegistry {
	if p == nil {
		return r
	}
	r.mu.Lock()
	r.federated[normalizeProvider(p.Name())] = p
	r.mu.Unlock()
	return r
}

// RegisterAuthenticator binds a generic authenticator to a method, e.g.
// biometric.
func (r *ProviderRegistry) RegisterAuthenticator(method AuthMethod, a MethodAuthenticator) *ProviderRegistry {
	if a == nil {
		return r
	}
	r.mu.Lock()
	r.authenticators[method] = a
	r.mu.Unlock()
	return r
}

func (r *ProviderRegistry) PasswordProvider() (AuthProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.password, r.password != nil
}

func (r *ProviderRegistry) PhoneVerifier() (PhoneVerifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phone, r.phone != nil
}

// Federated returns the named provider only when it is registered and
// reports itself available.
func (r *ProviderRegistry) Federated(name string) (FederatedProvider, bool) {
	r.mu.RLock()
	p, ok := r.federated[normalizeProvider(name)]
	r.mu.RUnlock()
	if !ok || !p.Available() {
		return nil, false
	}
	return p, true
}

func (r *ProviderRegistry) Authenticator(method AuthMethod) (MethodAuthenticator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.authenticators[method]
	return a, ok
}

// Methods lists every method with an available collaborator.
func (r *ProviderRegistry) Methods() []AuthMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []AuthMethod
	if r.password != nil {
		out = append(out, EmailMethod())
	}
	if r.phone != nil {
		out = append(out, PhoneMethod())
	}

	names := make([]string, 0, len(r.federated))
	for name, p := range r.federated {
		if p.Available() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, FederatedMethod(name))
	}

	custom := make([]AuthMethod, 0, len(r.authenticators))
	for m := range r.authenticators {
		if !m.IsFederated() && m != EmailMethod() && m != PhoneMethod() {
			custom = append(custom, m)
		}
	}
	sort.Slice(custom, func(i, j int) bool {
		return custom[i].String() < custom[j].String()
	})
	return append(out, custom...)
}
