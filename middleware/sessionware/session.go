// Package sessionware provides go-router middleware that authenticates
// requests carrying a signed authflow session.
package sessionware

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-authflow/security"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "cookie:authflow_session,header:" + router.HeaderAuthorization

	ErrSessionMissing = errors.New("missing or malformed session token")
	ErrSessionInvalid = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired or revoked")
	ErrSessionIdle    = errors.New("session idle timeout exceeded")
)

// ValidationListener runs after the session decoded and passed expiry checks.
type ValidationListener func(ctx router.Context, session security.SessionDescriptor) error

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	Codec          *security.SessionCodec
	ContextKey     string
	// TokenLookup is a comma separated list of source:name pairs, e.g.
	// "cookie:authflow_session,header:Authorization,query:session".
	TokenLookup string
	AuthScheme  string
	// IdleTimeout rejects sessions without activity within the window.
	// Zero disables the check.
	IdleTimeout time.Duration
	Now         func() time.Time

	// ContextEnricher propagates the session to the standard context.
	ContextEnricher     func(c context.Context, session security.SessionDescriptor) context.Context
	ValidationListeners []ValidationListener
}

func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return next(ctx)
			}

			raw, err := ExtractRawTokenFromContext(ctx, extractors)
			if err != nil || raw == "" {
				return cfg.ErrorHandler(ctx, ErrSessionMissing)
			}

			session, err := cfg.validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			for _, listener := range cfg.ValidationListeners {
				if listener == nil {
					continue
				}
				if err := listener(ctx, session); err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
			}

			ctx.Locals(cfg.ContextKey, session)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), session))
			}

			if cfg.SuccessHandler != nil {
				return cfg.SuccessHandler(ctx)
			}
			return next(ctx)
		}
	}
}

func (cfg Config) validate(raw string) (security.SessionDescriptor, error) {
	session, ok := cfg.Codec.Decode(raw)
	if !ok {
		return security.SessionDescriptor{}, ErrSessionInvalid
	}

	now := cfg.Now()
	if !security.IsValidSession(session, now) {
		return security.SessionDescriptor{}, ErrSessionExpired
	}
	if security.IsSessionIdle(session, cfg.IdleTimeout, now) {
		return security.SessionDescriptor{}, ErrSessionIdle
	}
	return security.UpdateSessionActivity(session, now), nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrSessionMissing) {
				return c.Status(router.StatusBadRequest).SendString(ErrSessionMissing.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired session")
		}
	}

	if cfg.Codec == nil {
		panic("AUTHFLOW: session middleware configuration: Codec is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return cfg
}

type sessionContextKey struct{}

// WithSession stores the session on a standard context. It can be used as
// Config.ContextEnricher.
func WithSession(ctx context.Context, session security.SessionDescriptor) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (security.SessionDescriptor, bool) {
	if ctx == nil {
		return security.SessionDescriptor{}, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(security.SessionDescriptor)
	return session, ok
}
