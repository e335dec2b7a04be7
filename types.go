package authflow

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the user record returned by a provider. The orchestrator
// treats it as an immutable value once obtained.
type Identity struct {
	ID          string         `json:"id"`
	Method      AuthMethod     `json:"method"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Profile     map[string]any `json:"profile,omitempty"`
}

// IsZero reports whether no identity was resolved.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// Credentials carries the method specific sign-in input.
type Credentials struct {
	Email          string
	Password       string
	Phone          string
	VerificationID string
	Code           string
	RememberMe     bool
	Extra          map[string]any
}

// AuthProvider is the email/password collaborator. It also owns the
// session notifications the orchestrator re-exposes.
type AuthProvider interface {
	SignIn(ctx context.Context, creds Credentials) (Identity, error)
	SignUp(ctx context.Context, creds Credentials) (Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	// CurrentIdentity returns the signed in identity, if any.
	CurrentIdentity() (Identity, bool)
	// IdentityChanges streams session changes until ctx is done. A nil
	// value means signed out.
	IdentityChanges(ctx context.Context) <-chan *Identity
}

// PhoneVerifier is the phone/OTP collaborator.
type PhoneVerifier interface {
	Verify(ctx context.Context, phone string, onCodeSent func(verificationID string), onFailed func(error)) error
	SignInWithCode(ctx context.Context, verificationID, code string) (Identity, error)
}

// FederatedProvider is one OAuth style provider. Available reports false
// when its configuration is incomplete.
type FederatedProvider interface {
	Name() string
	Available() bool
	AuthCodeURL(state string) string
	SignInWithCode(ctx context.Context, code string) (Identity, error)
}

// MethodAuthenticator signs in with a method that has no richer capability,
// e.g. biometric unlock.
type MethodAuthenticator interface {
	SignIn(ctx context.Context, creds Credentials) (Identity, error)
}

// MethodAuthenticatorFunc adapts a function to MethodAuthenticator.
type MethodAuthenticatorFunc func(ctx context.Context, creds Credentials) (Identity, error)

// SignIn implements MethodAuthenticator.
func (f MethodAuthenticatorFunc) SignIn(ctx context.Context, creds Credentials) (Identity, error) {
	return f(ctx, creds)
}

// Launcher opens the OAuth front channel (browser, redirect, deep link).
type Launcher interface {
	Launch(ctx context.Context, url string) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, url string) error

// Launch implements Launcher.
func (f LauncherFunc) Launch(ctx context.Context, url string) error {
	if f == nil {
		return nil
	}
	return f(ctx, url)
}

type noopLauncher struct{}

func (noopLauncher) Launch(context.Context, string) error { return nil }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHFLOW "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
