package authflow

import (
	"context"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-authflow/security"
	"github.com/google/uuid"
)

// Orchestrator is the single entry point for authentication operations.
// Every operation emits a Started event before calling its collaborator
// and exactly one terminal event afterwards. Collaborator errors are
// returned unchanged after the Failed event is published.
type Orchestrator struct {
	cfg      Config
	registry *ProviderRegistry
	bus      *EventBus
	tokens   *TokenStore
	limiter  *security.AttemptLimiter
	launcher Launcher
	states   StateCodec
	logger   Logger
	now      func() time.Time
	newID    func() string

	limiterSet bool
	register   []func(*ProviderRegistry)

	pendingMu sync.Mutex
	pending   map[string]pendingAttempt
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) {
		o.cfg = cfg
	}
}

// WithRegistry replaces the default registry. Collaborators passed with
// WithPasswordProvider, WithPhoneVerifier, WithFederatedProvider or
// WithMethodAuthenticator are added to it whatever the option order.
func WithRegistry(r *ProviderRegistry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.registry = r
		}
	}
}

func WithPasswordProvider(p AuthProvider) Option {
	return func(o *Orchestrator) {
		o.register = append(o.register, func(r *ProviderRegistry) { r.SetPasswordProvider(p) })
	}
}

func WithPhoneVerifier(v PhoneVerifier) Option {
	return func(o *Orchestrator) {
		o.register = append(o.register, func(r *ProviderRegistry) { r.SetPhoneVerifier(v) })
	}
}

func WithFederatedProvider(p FederatedProvider) Option {
	return func(o *Orchestrator) {
		o.register = append(o.register, func(r *ProviderRegistry) { r.RegisterFederated(p) })
	}
}

func WithMethodAuthenticator(method AuthMethod, a MethodAuthenticator) Option {
	return func(o *Orchestrator) {
		o.register = append(o.register, func(r *ProviderRegistry) { r.RegisterAuthenticator(method, a) })
	}
}

func WithEventBus(bus *EventBus) Option {
	return func(o *Orchestrator) {
		if bus != nil {
			o.bus = bus
		}
	}
}

// WithTokenStore enables remember-me issuance and clearing.
func WithTokenStore(s *TokenStore) Option {
	return func(o *Orchestrator) {
		o.tokens = s
	}
}

// WithLimiter replaces the limiter built from Config.RateLimit. A nil
// limiter disables attempt limiting.
func WithLimiter(l *security.AttemptLimiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
		o.limiterSet = true
	}
}

func WithLauncher(l Launcher) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.launcher = l
		}
	}
}

func WithStateCodec(c StateCodec) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.states = c
		}
	}
}

func WithLogger(logger Logger) Option {
	return func(o *Orchestrator) {
		o.logger = normalizeLogger(logger)
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.now = clock
		}
	}
}

// WithAttemptIDGenerator overrides the uuid based attempt ids.
func WithAttemptIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// NewOrchestrator wires an orchestrator. Without options it uses
// DefaultConfig, a fresh EventBus and the prefix state codec. A non-positive
// OAuth.StateTTL falls back to the default so pending federated attempts
// always expire.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      DefaultConfig(),
		registry: NewProviderRegistry(),
		launcher: noopLauncher{},
		states:   PrefixStateCodec{},
		logger:   defLogger{},
		now:      time.Now,
		newID:    uuid.NewString,
		pending:  make(map[string]pendingAttempt),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	for _, register := range o.register {
		register(o.registry)
	}
	o.register = nil

	if o.cfg.OAuth.StateTTL <= 0 {
		o.cfg.OAuth.StateTTL = DefaultConfig().OAuth.StateTTL
	}

	if o.bus == nil {
		o.bus = NewEventBus(WithEventBusClock(o.now))
	}

	if !o.limiterSet && o.cfg.RateLimit.Enabled && o.cfg.RateLimit.Attempts > 0 {
		o.limiter = security.NewAttemptLimiter(
			o.cfg.RateLimit.Attempts,
			o.cfg.RateLimit.Window,
			o.cfg.RateLimit.Burst,
			security.WithLimiterClock(o.now),
		)
	}

	return o
}

// Events returns the bus the orchestrator publishes to.
func (o *Orchestrator) Events() *EventBus {
	return o.bus
}

// Subscribe is a shortcut for Events().Subscribe().
func (o *Orchestrator) Subscribe() *Subscription {
	return o.bus.Subscribe()
}

// Registry returns the provider registry.
func (o *Orchestrator) Registry() *ProviderRegistry {
	return o.registry
}

// Config returns the configuration snapshot.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Close shuts the event bus down.
func (o *Orchestrator) Close() {
	o.bus.Close()
}

// SignIn authenticates with the given method.
func (o *Orchestrator) SignIn(ctx context.Context, method AuthMethod, creds Credentials) (Identity, error) {
	a := o.begin(OperationSignIn, method, nil)

	if !method.Valid() || !o.cfg.Methods.Enabled(method) {
		return Identity{}, a.fail(withDetails(ErrMethodNotSupported, nil, map[string]any{"method": method.String()}))
	}

	limitKey := attemptKey(method, creds)
	if !o.allow(limitKey) {
		return Identity{}, a.fail(withDetails(ErrTooManyAttempts, nil, map[string]any{"method": method.String()}))
	}

	identity, err := o.dispatchSignIn(ctx, method, creds)
	if err != nil {
		return Identity{}, a.fail(err)
	}

	identity = stampMethod(identity, method)
	o.resetLimit(limitKey)
	if creds.RememberMe {
		o.issueRememberMe(ctx, identity)
	}

	a.succeed(&identity, nil)
	return identity, nil
}

// SignUp registers a new email/password account.
func (o *Orchestrator) SignUp(ctx context.Context, email, password string) (Identity, error) {
	method := EmailMethod()
	a := o.begin(OperationSignUp, method, nil)

	if !o.cfg.Methods.Enabled(method) {
		return Identity{}, a.fail(withDetails(ErrMethodNotSupported, nil, map[string]any{"method": method.String()}))
	}

	if err := validateEmail(email); err != nil {
		return Identity{}, a.fail(err)
	}

	required := o.cfg.Password.Strength()
	if strength := security.ClassifyPasswordStrength(password); !strength.AtLeast(required) {
		return Identity{}, a.fail(withDetails(ErrWeakPassword, nil, map[string]any{
			"strength":     string(strength),
			"min_strength": string(required),
		}))
	}

	provider, ok := o.registry.PasswordProvider()
	if !ok {
		return Identity{}, a.fail(withDetails(ErrProviderUnavailable, nil, map[string]any{"method": method.String()}))
	}

	identity, err := provider.SignUp(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		return Identity{}, a.fail(err)
	}

	identity = stampMethod(identity, method)
	a.succeed(&identity, nil)
	return identity, nil
}

// SignInWithPhoneCode completes a phone verification started with
// VerifyPhoneNumber.
func (o *Orchestrator) SignInWithPhoneCode(ctx context.Context, verificationID, code string) (Identity, error) {
	return o.SignIn(ctx, PhoneMethod(), Credentials{VerificationID: verificationID, Code: code})
}

// SignInWithOAuthCode signs in with an authorization code obtained out of
// band for provider.
func (o *Orchestrator) SignInWithOAuthCode(ctx context.Context, provider, code string) (Identity, error) {
	return o.SignIn(ctx, FederatedMethod(provider), Credentials{Code: code})
}

// SendPasswordReset asks the email provider to send a reset link.
func (o *Orchestrator) SendPasswordReset(ctx context.Context, email string) error {
	method := EmailMethod()
	a := o.begin(OperationPasswordReset, method, nil)

	if err := validateEmail(email); err != nil {
		return a.fail(err)
	}

	provider, ok := o.registry.PasswordProvider()
	if !ok {
		return a.fail(withDetails(ErrProviderUnavailable, nil, map[string]any{"method": method.String()}))
	}

	if err := provider.SendPasswordReset(ctx, email); err != nil {
		return a.fail(err)
	}

	a.succeed(nil, nil)
	return nil
}

// SignOut ends the provider session. The remember-me credential is cleared
// whether or not the provider call succeeds.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	var method AuthMethod
	provider, ok := o.registry.PasswordProvider()
	if ok {
		if current, signedIn := provider.CurrentIdentity(); signedIn {
			method = current.Method
		}
	}

	a := o.begin(OperationSignOut, method, nil)

	if o.tokens != nil {
		o.tokens.Clear(ctx)
	}

	if !ok {
		return a.fail(withDetails(ErrProviderUnavailable, nil, map[string]any{"method": EmailMethod().String()}))
	}

	if err := provider.SignOut(ctx); err != nil {
		return a.fail(err)
	}

	a.succeed(nil, nil)
	return nil
}

// CurrentIdentity returns the identity the email provider reports as
// signed in.
func (o *Orchestrator) CurrentIdentity() (Identity, bool) {
	provider, ok := o.registry.PasswordProvider()
	if !ok {
		return Identity{}, false
	}
	return provider.CurrentIdentity()
}

// IdentityChanges streams the provider's session notifications. Without a
// provider the returned channel is closed.
func (o *Orchestrator) IdentityChanges(ctx context.Context) <-chan *Identity {
	provider, ok := o.registry.PasswordProvider()
	if !ok {
		ch := make(chan *Identity)
		close(ch)
		return ch
	}
	return provider.IdentityChanges(ctx)
}

// RestoreSession checks a presented remember-me token. On success the
// credential expiry slides forward and the refreshed credential is
// returned.
func (o *Orchestrator) RestoreSession(ctx context.Context, token string) (RememberMeCredential, bool) {
	if o.tokens == nil {
		return RememberMeCredential{}, false
	}
	if !o.tokens.Validate(ctx, token) {
		return RememberMeCredential{}, false
	}
	if !o.tokens.Refresh(ctx) {
		return RememberMeCredential{}, false
	}
	return o.tokens.Fetch(ctx)
}

func (o *Orchestrator) dispatchSignIn(ctx context.Context, method AuthMethod, creds Credentials) (Identity, error) {
	unavailable := func() error {
		return withDetails(ErrProviderUnavailable, nil, map[string]any{"method": method.String()})
	}

	switch method.Kind {
	case MethodKindEmail:
		provider, ok := o.registry.PasswordProvider()
		if !ok {
			return Identity{}, unavailable()
		}
		return provider.SignIn(ctx, creds)

	case MethodKindPhone:
		verifier, ok := o.registry.PhoneVerifier()
		if !ok {
			return Identity{}, unavailable()
		}
		return verifier.SignInWithCode(ctx, creds.VerificationID, creds.Code)

	case MethodKindFederated:
		provider, ok := o.registry.Federated(method.Provider)
		if !ok {
			return Identity{}, unavailable()
		}
		return provider.SignInWithCode(ctx, creds.Code)
	}

	authenticator, ok := o.registry.Authenticator(method)
	if !ok {
		return Identity{}, unavailable()
	}
	return authenticator.SignIn(ctx, creds)
}

func (o *Orchestrator) issueRememberMe(ctx context.Context, identity Identity) {
	if o.tokens == nil {
		o.logger.Debug("remember me requested for %s but no token store is configured", identity.ID)
		return
	}
	if _, err := o.tokens.Issue(ctx, identity.ID); err != nil {
		o.logger.Warn("failed to issue remember me credential for %s: %v", identity.ID, err)
	}
}

func (o *Orchestrator) allow(key string) bool {
	if o.limiter == nil {
		return true
	}
	return o.limiter.Allow(key)
}

func (o *Orchestrator) resetLimit(key string) {
	if o.limiter != nil {
		o.limiter.Reset(key)
	}
}

func attemptKey(method AuthMethod, creds Credentials) string {
	subject := creds.Email
	switch {
	case subject != "":
	case creds.Phone != "":
		subject = creds.Phone
	case creds.VerificationID != "":
		subject = creds.VerificationID
	}
	return method.String() + "|" + strings.ToLower(strings.TrimSpace(subject))
}

func stampMethod(identity Identity, method AuthMethod) Identity {
	if identity.Method.IsZero() {
		identity.Method = method
	}
	return identity
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return withDetails(ErrInvalidEmail, err, map[string]any{"email": email})
	}
	return nil
}
