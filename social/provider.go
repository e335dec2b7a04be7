package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	authflow "github.com/goliatone/go-authflow"
	"golang.org/x/oauth2"
)

const maxUserInfoBody = 1 << 20

// OAuthProvider is an authflow.FederatedProvider backed by an OAuth 2.0
// authorization code exchange followed by an OpenID Connect userinfo call.
type OAuthProvider struct {
	preset               Preset
	config               authflow.OAuthProviderConfig
	oauth                *oauth2.Config
	httpClient           *http.Client
	requireVerifiedEmail bool
}

var _ authflow.FederatedProvider = (*OAuthProvider)(nil)

// ProviderOption configures an OAuthProvider.
type ProviderOption func(*OAuthProvider)

// WithHTTPClient sets the client used for token and userinfo requests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *OAuthProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithVerifiedEmail rejects identities whose email is not verified by the
// provider.
func WithVerifiedEmail(required bool) ProviderOption {
	return func(p *OAuthProvider) {
		p.requireVerifiedEmail = required
	}
}

// NewOAuthProvider builds a provider from a preset and its configuration.
// Configured endpoints and scopes override the preset values.
func NewOAuthProvider(preset Preset, cfg authflow.OAuthProviderConfig, opts ...ProviderOption) *OAuthProvider {
	preset = preset.withOverrides(cfg)
	p := &OAuthProvider{
		preset: preset,
		config: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       preset.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   preset.AuthURL,
				TokenURL:  preset.TokenURL,
				AuthStyle: preset.AuthStyle,
			},
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// NewProvider resolves the named preset and builds a provider for it.
func NewProvider(name string, cfg authflow.OAuthProviderConfig, opts ...ProviderOption) (*OAuthProvider, error) {
	preset, err := PresetFor(name, cfg)
	if err != nil {
		return nil, err
	}
	return NewOAuthProvider(preset, cfg, opts...), nil
}

// ProvidersFromConfig builds the Google, Slack and Teams providers. Providers
// with incomplete settings are still returned and report Available() false.
func ProvidersFromConfig(cfg authflow.OAuthConfig, opts ...ProviderOption) []authflow.FederatedProvider {
	names := []string{authflow.ProviderGoogle, authflow.ProviderSlack, authflow.ProviderTeams}
	out := make([]authflow.FederatedProvider, 0, len(names))
	for _, name := range names {
		pcfg, _ := cfg.Provider(name)
		provider, err := NewProvider(name, pcfg, opts...)
		if err != nil {
			continue
		}
		out = append(out, provider)
	}
	return out
}

// Name implements authflow.FederatedProvider.
func (p *OAuthProvider) Name() string {
	return p.preset.Name
}

// Available implements authflow.FederatedProvider.
func (p *OAuthProvider) Available() bool {
	return p.config.Complete()
}

// AuthCodeURL implements authflow.FederatedProvider.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.preset.AuthParams))
	for k, v := range p.preset.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return p.oauth.AuthCodeURL(state, opts...)
}

// SignInWithCode implements authflow.FederatedProvider.
func (p *OAuthProvider) SignInWithCode(ctx context.Context, code string) (authflow.Identity, error) {
	if !p.Available() {
		return authflow.Identity{}, annotate(ErrProviderNotConfigured, p.config.Validate(), map[string]any{
			"provider": p.Name(),
		})
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return authflow.Identity{}, exchangeFailure(p.Name(), err)
	}

	claims, perr := p.userInfo(ctx, token)
	if perr != nil {
		return authflow.Identity{}, userInfoFailure(perr)
	}

	if claims.Subject == "" {
		return authflow.Identity{}, annotate(ErrNoSubject, nil, map[string]any{
			"provider":  p.Name(),
			"operation": string(StepUserInfo),
		})
	}
	if p.requireVerifiedEmail && (claims.Email == "" || !bool(claims.EmailVerified)) {
		return authflow.Identity{}, annotate(ErrUnverifiedEmail, nil, map[string]any{
			"provider":  p.Name(),
			"operation": string(StepUserInfo),
			"subject":   claims.Subject,
		})
	}

	return claims.identity(p.Name()), nil
}

func (p *OAuthProvider) userInfo(ctx context.Context, token *oauth2.Token) (userClaims, *ProviderError) {
	fail := func(status int, code string, err error) *ProviderError {
		return &ProviderError{Provider: p.Name(), Step: StepUserInfo, Status: status, Code: code, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.preset.UserInfoURL, nil)
	if err != nil {
		return userClaims{}, fail(0, "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return userClaims{}, fail(0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return userClaims{}, fail(resp.StatusCode, "", err)
	}

	if resp.StatusCode != http.StatusOK {
		return userClaims{}, rejectedUserInfo(p.Name(), resp.StatusCode, body)
	}

	var claims userClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return userClaims{}, fail(resp.StatusCode, "invalid_response", err)
	}
	// Slack reports API failures with a 200 and ok=false.
	if claims.OK != nil && !*claims.OK {
		perr := fail(resp.StatusCode, claims.Error, nil)
		perr.Description = "userinfo request rejected"
		return userClaims{}, perr
	}

	return claims, nil
}

type userClaims struct {
	Subject       string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	GivenName     string   `json:"given_name"`
	FamilyName    string   `json:"family_name"`
	Picture       string   `json:"picture"`
	Locale        string   `json:"locale"`
	OK            *bool    `json:"ok,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func (c userClaims) identity(provider string) authflow.Identity {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	}

	profile := map[string]any{
		"provider":       provider,
		"subject":        c.Subject,
		"email_verified": bool(c.EmailVerified),
	}
	if c.GivenName != "" {
		profile["given_name"] = c.GivenName
	}
	if c.FamilyName != "" {
		profile["family_name"] = c.FamilyName
	}
	if c.Locale != "" {
		profile["locale"] = c.Locale
	}

	return authflow.Identity{
		ID:          c.Subject,
		Method:      authflow.FederatedMethod(provider),
		Email:       strings.ToLower(strings.TrimSpace(c.Email)),
		DisplayName: name,
		AvatarURL:   c.Picture,
		Profile:     profile,
	}
}

// flexBool accepts both JSON booleans and their string form.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("email_verified: %w", err)
	}
	*b = flexBool(v)
	return nil
}
