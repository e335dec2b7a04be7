package authflow

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-authflow/security"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadConfigFromEnv.
const EnvPrefix = "AUTHFLOW_"

// Config is the immutable configuration snapshot consumed at construction.
// Use DefaultConfig as the base and override fields from there.
type Config struct {
	Methods    MethodsConfig         `mapstructure:"methods" envPrefix:"METHODS_"`
	Password   PasswordConfig        `mapstructure:"password" envPrefix:"PASSWORD_"`
	Upload     security.UploadPolicy `mapstructure:"upload" envPrefix:"UPLOAD_"`
	RememberMe RememberMeConfig      `mapstructure:"remember_me" envPrefix:"REMEMBER_ME_"`
	Session    SessionConfig         `mapstructure:"session" envPrefix:"SESSION_"`
	Phone      PhoneConfig           `mapstructure:"phone" envPrefix:"PHONE_"`
	RateLimit  RateLimitConfig       `mapstructure:"rate_limit" envPrefix:"RATE_LIMIT_"`
	OAuth      OAuthConfig           `mapstructure:"oauth" envPrefix:"OAUTH_"`
}

// MethodsConfig toggles the sign-in methods.
type MethodsConfig struct {
	Email     bool `mapstructure:"email" env:"EMAIL" envDefault:"true"`
	Phone     bool `mapstructure:"phone" env:"PHONE" envDefault:"true"`
	Federated bool `mapstructure:"federated" env:"FEDERATED" envDefault:"true"`
	Biometric bool `mapstructure:"biometric" env:"BIOMETRIC" envDefault:"false"`
}

// Enabled reports whether the method family is switched on.
func (m MethodsConfig) Enabled(method AuthMethod) bool {
	switch method.Kind {
	case MethodKindEmail:
		return m.Email
	case MethodKindPhone:
		return m.Phone
	case MethodKindFederated:
		return m.Federated
	case MethodKindBiometric:
		return m.Biometric
	}
	return false
}

type PasswordConfig struct {
	// MinStrength is the weakest password accepted on sign-up.
	MinStrength string `mapstructure:"min_strength" env:"MIN_STRENGTH" envDefault:"medium"`
}

// Strength returns MinStrength parsed, falling back to medium.
func (p PasswordConfig) Strength() security.PasswordStrength {
	if s, ok := security.ParsePasswordStrength(p.MinStrength); ok {
		return s
	}
	return security.PasswordMedium
}

type RememberMeConfig struct {
	Duration   time.Duration `mapstructure:"duration" env:"DURATION" envDefault:"720h"`
	StorageKey string        `mapstructure:"storage_key" env:"STORAGE_KEY" envDefault:"remember_me_token"`
	TokenSize  int           `mapstructure:"token_size" env:"TOKEN_SIZE" envDefault:"64"`
	AppVersion string        `mapstructure:"app_version" env:"APP_VERSION" envDefault:"0.0.0"`
}

type SessionConfig struct {
	TTL         time.Duration `mapstructure:"ttl" env:"TTL" envDefault:"24h"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"30m"`
	SigningKey  string        `mapstructure:"signing_key" env:"SIGNING_KEY"`
	Issuer      string        `mapstructure:"issuer" env:"ISSUER" envDefault:"authflow"`
}

type PhoneConfig struct {
	// DefaultRegion is the ISO 3166 region used for numbers without a
	// leading country code.
	DefaultRegion string `mapstructure:"default_region" env:"DEFAULT_REGION" envDefault:"US"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled" env:"ENABLED" envDefault:"true"`
	Attempts int           `mapstructure:"attempts" env:"ATTEMPTS" envDefault:"5"`
	Window   time.Duration `mapstructure:"window" env:"WINDOW" envDefault:"15m"`
	Burst    int           `mapstructure:"burst" env:"BURST" envDefault:"5"`
}

// OAuthConfig holds the federated provider settings.
type OAuthConfig struct {
	StateTTL time.Duration       `mapstructure:"state_ttl" env:"STATE_TTL" envDefault:"10m"`
	StateKey string              `mapstructure:"state_key" env:"STATE_KEY"`
	Google   OAuthProviderConfig `mapstructure:"google" envPrefix:"GOOGLE_"`
	Slack    OAuthProviderConfig `mapstructure:"slack" envPrefix:"SLACK_"`
	Teams    OAuthProviderConfig `mapstructure:"teams" envPrefix:"TEAMS_"`
}

// Provider returns the settings for a well known provider name.
func (o OAuthConfig) Provider(name string) (OAuthProviderConfig, bool) {
	switch normalizeProvider(name) {
	case ProviderGoogle:
		return o.Google, true
	case ProviderSlack:
		return o.Slack, true
	case ProviderTeams:
		return o.Teams, true
	}
	return OAuthProviderConfig{}, false
}

// OAuthProviderConfig configures one OAuth front channel. Endpoint URLs are
// optional overrides of the provider presets.
type OAuthProviderConfig struct {
	ClientID     string   `mapstructure:"client_id" env:"CLIENT_ID"`
	ClientSecret string   `mapstructure:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string   `mapstructure:"redirect_url" env:"REDIRECT_URL"`
	Scopes       []string `mapstructure:"scopes" env:"SCOPES" envSeparator:","`
	Tenant       string   `mapstructure:"tenant" env:"TENANT"`
	AuthURL      string   `mapstructure:"auth_url" env:"AUTH_URL"`
	TokenURL     string   `mapstructure:"token_url" env:"TOKEN_URL"`
	UserInfoURL  string   `mapstructure:"user_info_url" env:"USER_INFO_URL"`
}

// Validate checks the provider configuration is complete.
func (c OAuthProviderConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.RedirectURL, validation.Required, is.URL),
		validation.Field(&c.AuthURL, is.URL),
		validation.Field(&c.TokenURL, is.URL),
		validation.Field(&c.UserInfoURL, is.URL),
	)
}

// Complete reports whether Validate passes.
func (c OAuthProviderConfig) Complete() bool {
	return c.Validate() == nil
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Methods: MethodsConfig{
			Email:     true,
			Phone:     true,
			Federated: true,
		},
		Password: PasswordConfig{
			MinStrength: string(security.PasswordMedium),
		},
		Upload: security.DefaultUploadPolicy(),
		RememberMe: RememberMeConfig{
			Duration:   DefaultRememberMeDuration,
			StorageKey: "remember_me_token",
			TokenSize:  64,
			AppVersion: "0.0.0",
		},
		Session: SessionConfig{
			TTL:         security.DefaultSessionTTL,
			IdleTimeout: 30 * time.Minute,
			Issuer:      "authflow",
		},
		Phone: PhoneConfig{
			DefaultRegion: "US",
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Attempts: 5,
			Window:   15 * time.Minute,
			Burst:    5,
		},
		OAuth: OAuthConfig{
			StateTTL: 10 * time.Minute,
		},
	}
}

// LoadConfigFromEnv reads AUTHFLOW_* variables on top of the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML file on top of the defaults. Keys the file
// does not set keep their default value.
func LoadConfigFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

