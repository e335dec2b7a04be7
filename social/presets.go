package social

import (
	"strings"

	authflow "github.com/goliatone/go-authflow"
	"golang.org/x/oauth2"
)

const defaultTeamsTenant = "common"

// Preset describes the endpoints and defaults of a well known provider.
type Preset struct {
	Name        string
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	Scopes      []string
	// AuthParams are appended to every front channel URL.
	AuthParams map[string]string
	AuthStyle  oauth2.AuthStyle
}

// GooglePreset returns the Google OpenID Connect preset.
func GooglePreset() Preset {
	return Preset{
		Name:        authflow.ProviderGoogle,
		AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:    "https://oauth2.googleapis.com/token",
		UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		Scopes:      []string{"openid", "email", "profile"},
		AuthParams:  map[string]string{"access_type": "offline"},
		AuthStyle:   oauth2.AuthStyleInParams,
	}
}

// SlackPreset returns the Sign in with Slack (OpenID Connect) preset.
func SlackPreset() Preset {
	return Preset{
		Name:        authflow.ProviderSlack,
		AuthURL:     "https://slack.com/openid/connect/authorize",
		TokenURL:    "https://slack.com/api/openid.connect.token",
		UserInfoURL: "https://slack.com/api/openid.connect.userInfo",
		Scopes:      []string{"openid", "email", "profile"},
		AuthStyle:   oauth2.AuthStyleInParams,
	}
}

// TeamsPreset returns the Microsoft identity platform preset used for Teams.
// An empty tenant resolves to "common".
func TeamsPreset(tenant string) Preset {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		tenant = defaultTeamsTenant
	}
	base := "https://login.microsoftonline.com/" + tenant + "/oauth2/v2.0"
	return Preset{
		Name:        authflow.ProviderTeams,
		AuthURL:     base + "/authorize",
		TokenURL:    base + "/token",
		UserInfoURL: "https://graph.microsoft.com/oidc/userinfo",
		Scopes:      []string{"openid", "email", "profile", "User.Read"},
		AuthParams:  map[string]string{"response_mode": "query"},
		AuthStyle:   oauth2.AuthStyleInParams,
	}
}

// PresetFor resolves a preset by provider name.
func PresetFor(name string, cfg authflow.OAuthProviderConfig) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case authflow.ProviderGoogle:
		return GooglePreset(), nil
	case authflow.ProviderSlack:
		return SlackPreset(), nil
	case authflow.ProviderTeams:
		return TeamsPreset(cfg.Tenant), nil
	}
	return Preset{}, annotate(ErrUnknownPreset, nil, map[string]any{"provider": name})
}

// withOverrides applies endpoint and scope overrides from configuration.
func (p Preset) withOverrides(cfg authflow.OAuthProviderConfig) Preset {
	if cfg.AuthURL != "" {
		p.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		p.TokenURL = cfg.TokenURL
	}
	if cfg.UserInfoURL != "" {
		p.UserInfoURL = cfg.UserInfoURL
	}
	if len(cfg.Scopes) > 0 {
		p.Scopes = append([]string(nil), cfg.Scopes...)
	}
	return p
}
