package authflow

import "strings"

// MethodKind is the family of an AuthMethod.
type MethodKind string

const (
	MethodKindEmail     MethodKind = "email"
	MethodKindPhone     MethodKind = "phone"
	MethodKindFederated MethodKind = "federated"
	MethodKindBiometric MethodKind = "biometric"
)

// Well known federated providers.
const (
	ProviderGoogle = "google"
	ProviderSlack  = "slack"
	ProviderTeams  = "teams"
)

// AuthMethod identifies a sign-in method. It is comparable and used both as
// the registry key and as the event tag.
type AuthMethod struct {
	Kind     MethodKind `json:"kind"`
	Provider string     `json:"provider,omitempty"`
}

func EmailMethod() AuthMethod     { return AuthMethod{Kind: MethodKindEmail} }
func PhoneMethod() AuthMethod     { return AuthMethod{Kind: MethodKindPhone} }
func BiometricMethod() AuthMethod { return AuthMethod{Kind: MethodKindBiometric} }

// FederatedMethod returns the method for an OAuth style provider.
func FederatedMethod(provider string) AuthMethod {
	return AuthMethod{Kind: MethodKindFederated, Provider: normalizeProvider(provider)}
}

// IsFederated reports whether m is a federated provider method.
func (m AuthMethod) IsFederated() bool {
	return m.Kind == MethodKindFederated
}

// IsZero reports whether m is unset.
func (m AuthMethod) IsZero() bool {
	return m.Kind == ""
}

// Valid reports whether m is a member of the closed method set.
func (m AuthMethod) Valid() bool {
	switch m.Kind {
	case MethodKindEmail, MethodKindPhone, MethodKindBiometric:
		return m.Provider == ""
	case MethodKindFederated:
		return m.Provider != ""
	}
	return false
}

func (m AuthMethod) String() string {
	if m.IsFederated() {
		return string(m.Kind) + ":" + m.Provider
	}
	return string(m.Kind)
}

// ParseAuthMethod parses the String form of a method.
func ParseAuthMethod(s string) (AuthMethod, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if provider, ok := strings.CutPrefix(s, string(MethodKindFederated)+":"); ok {
		m := FederatedMethod(provider)
		return m, m.Valid()
	}

	m := AuthMethod{Kind: MethodKind(s)}
	return m, m.Valid()
}

func normalizeProvider(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
