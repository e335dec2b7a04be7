package authflow

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-authflow/security"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// OAuthControllerConfig configures the OAuth HTTP routes.
type OAuthControllerConfig struct {
	// SuccessRedirect is where the browser lands after a completed sign-in
	// (default: "/")
	SuccessRedirect string

	// ErrorRedirect receives failed flows with an error query parameter
	// (default: "/login")
	ErrorRedirect string

	// CookieName for the signed session token (default: "authflow_session")
	CookieName     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite string

	// ErrorHandler replaces the default redirect on failure (optional)
	ErrorHandler func(ctx router.Context, err error) error
}

// OAuthController exposes the federated front channel over HTTP: one route
// begins the flow for a provider and one completes it from the callback.
type OAuthController struct {
	orchestrator *Orchestrator
	sessions     *security.SessionCodec
	config       OAuthControllerConfig
	logger       Logger
}

// OAuthControllerOption customizes an OAuthController.
type OAuthControllerOption func(*OAuthController)

// WithSessionCodec makes the callback set a signed session cookie.
func WithSessionCodec(codec *security.SessionCodec) OAuthControllerOption {
	return func(c *OAuthController) {
		c.sessions = codec
	}
}

func WithControllerLogger(logger Logger) OAuthControllerOption {
	return func(c *OAuthController) {
		c.logger = normalizeLogger(logger)
	}
}

func NewOAuthController(o *Orchestrator, cfg OAuthControllerConfig, opts ...OAuthControllerOption) *OAuthController {
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "authflow_session"
	}
	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}

	c := &OAuthController{
		orchestrator: o,
		config:       cfg,
		logger:       defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RegisterRoutes registers the OAuth routes on group.
func (c *OAuthController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/callback", c.Callback)
	group.Get("/:provider", c.Begin)
}

// Begin starts a federated sign-in and redirects to the provider.
func (c *OAuthController) Begin(ctx router.Context) error {
	redirect, err := c.orchestrator.SignInWithFederated(ctx.Context(), ctx.Param("provider"))
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.Redirect(redirect.URL, http.StatusTemporaryRedirect)
}

// Callback completes the flow started by Begin.
func (c *OAuthController) Callback(ctx router.Context) error {
	query := url.Values{}
	for _, key := range []string{"code", "state", "error", "error_description"} {
		if v := ctx.Query(key, ""); v != "" {
			query.Set(key, v)
		}
	}

	identity, err := c.orchestrator.HandleOAuthCallback(ctx.Context(), "/callback?"+query.Encode())
	if err != nil {
		return c.handleError(ctx, err)
	}

	if c.sessions != nil {
		now := c.orchestrator.now()
		session := security.CreateSession(identity.ID, c.orchestrator.cfg.Session.TTL, now)
		token, err := c.sessions.Encode(session)
		if err != nil {
			c.logger.Error("failed to encode session for %s: %v", identity.ID, err)
			return c.handleError(ctx, err)
		}
		ctx.Cookie(&router.Cookie{
			Name:     c.config.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			Secure:   c.config.CookieSecure,
			HTTPOnly: c.config.CookieHTTPOnly,
			SameSite: c.config.CookieSameSite,
		})
	}

	return ctx.Redirect(c.config.SuccessRedirect, http.StatusTemporaryRedirect)
}

func (c *OAuthController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	code := "auth_failed"
	var rich *goerrors.Error
	if errors.As(err, &rich) && rich != nil && rich.TextCode != "" {
		code = strings.ToLower(rich.TextCode)
	}

	c.logger.Info("oauth flow failed: %v", err)
	return ctx.Redirect(appendQueryParam(c.config.ErrorRedirect, "error", code), http.StatusTemporaryRedirect)
}

func appendQueryParam(rawURL, key, value string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		query := parsed.Query()
		query.Set(key, value)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
