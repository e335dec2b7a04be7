package authflow

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCode         = "AUTHFLOW_MISSING_CODE"
	TextCodeUnknownProvider     = "AUTHFLOW_UNKNOWN_PROVIDER"
	TextCodeOAuthCallback       = "AUTHFLOW_OAUTH_CALLBACK"
	TextCodeProviderUnavailable = "AUTHFLOW_PROVIDER_UNAVAILABLE"
	TextCodeMethodNotSupported  = "AUTHFLOW_METHOD_NOT_SUPPORTED"
	TextCodeInvalidEmail        = "AUTHFLOW_INVALID_EMAIL"
	TextCodeInvalidPhone        = "AUTHFLOW_INVALID_PHONE"
	TextCodeWeakPassword        = "AUTHFLOW_WEAK_PASSWORD"
	TextCodeTooManyAttempts     = "AUTHFLOW_TOO_MANY_ATTEMPTS"
	TextCodeBusClosed           = "AUTHFLOW_BUS_CLOSED"
)

// ErrMissingCode is returned when an OAuth callback carries no code.
var ErrMissingCode = goerrors.New("authorization code missing from callback", goerrors.CategoryValidation).
	WithTextCode(TextCodeMissingCode).
	WithCode(goerrors.CodeBadRequest)

// ErrUnknownProvider is returned when the callback state cannot be routed
// to a registered federated provider.
var ErrUnknownProvider = goerrors.New("unknown federated provider", goerrors.CategoryValidation).
	WithTextCode(TextCodeUnknownProvider).
	WithCode(goerrors.CodeBadRequest)

// ErrOAuthCallback is returned when the provider redirected back with an
// error parameter.
var ErrOAuthCallback = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeOAuthCallback).
	WithCode(goerrors.CodeUnauthorized)

// ErrProviderUnavailable is returned when a provider is not registered or
// its configuration is incomplete.
var ErrProviderUnavailable = goerrors.New("auth provider unavailable", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProviderUnavailable).
	WithCode(http.StatusServiceUnavailable)

var ErrMethodNotSupported = goerrors.New("auth method not supported", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMethodNotSupported).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidEmail = goerrors.New("invalid email address", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidPhoneNumber = goerrors.New("invalid phone number", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidPhone).
	WithCode(goerrors.CodeBadRequest)

var ErrWeakPassword = goerrors.New("password does not meet the required strength", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(goerrors.CodeBadRequest)

var ErrTooManyAttempts = goerrors.New("too many authentication attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(http.StatusTooManyRequests)

// ErrBusClosed reports a subscription request against a closed bus when the
// caller asks for it explicitly. Emit never returns it.
var ErrBusClosed = goerrors.New("event bus closed", goerrors.CategoryOperation).
	WithTextCode(TextCodeBusClosed).
	WithCode(goerrors.CodeInternal)

// withDetails clones base, attaches meta and keeps the cause as Source.
func withDetails(base *goerrors.Error, cause error, meta map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	if cause != nil {
		clone.Source = cause
	}
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}
	return clone
}

// HasTextCode reports whether err carries the given go-errors text code.
func HasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !errors.As(err, &rich) || rich == nil {
		return false
	}
	return rich.TextCode == code
}

// errorDescription is the string carried by Failed events.
func errorDescription(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type metadataCarrier interface {
	Metadata() map[string]any
}

// errorMetadata extracts structured details from err for Failed events.
func errorMetadata(err error) map[string]any {
	if err == nil {
		return nil
	}

	meta := map[string]any{}
	var carrier metadataCarrier
	if errors.As(err, &carrier) && carrier != nil {
		for k, v := range carrier.Metadata() {
			meta[k] = v
		}
	}

	var rich *goerrors.Error
	if errors.As(err, &rich) && rich != nil {
		for k, v := range rich.Metadata {
			meta[k] = v
		}
		if rich.TextCode != "" {
			meta["text_code"] = rich.TextCode
		}
		meta["category"] = fmt.Sprintf("%v", rich.Category)
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}

const TextCodeAttemptExpired = "AUTHFLOW_ATTEMPT_EXPIRED"

// ErrAttemptExpired closes a federated attempt whose callback never arrived
// within the state TTL.
var ErrAttemptExpired = goerrors.New("federated sign-in attempt expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeAttemptExpired).
	WithCode(goerrors.CodeUnauthorized)
