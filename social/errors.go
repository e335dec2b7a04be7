package social

import goerrors "github.com/goliatone/go-errors"

// Text codes carried by the social sentinels. They share the SOCIAL_ prefix
// so callback redirects can tell provider failures from orchestrator ones.
const (
	TextCodeUnknownPreset         = "SOCIAL_UNKNOWN_PRESET"
	TextCodeProviderNotConfigured = "SOCIAL_PROVIDER_NOT_CONFIGURED"
	TextCodeCodeExchange          = "SOCIAL_CODE_EXCHANGE"
	TextCodeUserInfo              = "SOCIAL_USER_INFO"
	TextCodeNoSubject             = "SOCIAL_NO_SUBJECT"
	TextCodeUnverifiedEmail       = "SOCIAL_UNVERIFIED_EMAIL"
	TextCodeStateInvalid          = "SOCIAL_STATE_INVALID"
	TextCodeStateExpired          = "SOCIAL_STATE_EXPIRED"
)

var (
	// ErrUnknownPreset is returned by PresetFor and NewProvider for a name
	// outside google, slack and teams.
	ErrUnknownPreset = goerrors.New("no oauth preset for provider", goerrors.CategoryNotFound).
		WithTextCode(TextCodeUnknownPreset).
		WithCode(goerrors.CodeNotFound)

	// ErrProviderNotConfigured is returned by SignInWithCode while the
	// provider lacks a client id, secret or redirect URL.
	ErrProviderNotConfigured = goerrors.New("oauth provider is not configured", goerrors.CategoryValidation).
		WithTextCode(TextCodeProviderNotConfigured).
		WithCode(goerrors.CodeBadRequest)

	// ErrCodeExchange wraps a token endpoint rejection or transport failure.
	ErrCodeExchange = goerrors.New("authorization code exchange failed", goerrors.CategoryAuth).
		WithTextCode(TextCodeCodeExchange).
		WithCode(goerrors.CodeUnauthorized)

	// ErrUserInfo wraps a userinfo response that could not be used.
	ErrUserInfo = goerrors.New("userinfo request failed", goerrors.CategoryAuth).
		WithTextCode(TextCodeUserInfo).
		WithCode(goerrors.CodeUnauthorized)

	ErrNoSubject = goerrors.New("userinfo response has no subject", goerrors.CategoryAuth).
		WithTextCode(TextCodeNoSubject).
		WithCode(goerrors.CodeUnauthorized)

	ErrUnverifiedEmail = goerrors.New("provider email is not verified", goerrors.CategoryAuth).
		WithTextCode(TextCodeUnverifiedEmail).
		WithCode(goerrors.CodeForbidden)

	// ErrStateInvalid covers sealed states that fail to open or name a
	// different provider than their prefix.
	ErrStateInvalid = goerrors.New("oauth state rejected", goerrors.CategoryBadInput).
		WithTextCode(TextCodeStateInvalid).
		WithCode(goerrors.CodeBadRequest)

	ErrStateExpired = goerrors.New("oauth state expired", goerrors.CategoryBadInput).
		WithTextCode(TextCodeStateExpired).
		WithCode(goerrors.CodeBadRequest)
)

// annotate clones base with the provider details of one failure.
func annotate(base *goerrors.Error, cause error, meta map[string]any) error {
	rich := base.Clone()
	if rich == nil {
		rich = base
	}
	if cause != nil {
		rich.Source = cause
	}
	if len(meta) > 0 {
		rich.WithMetadata(meta)
	}
	return rich
}
