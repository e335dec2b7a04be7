package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Step is the leg of the authorization code flow a provider call belongs to.
type Step string

const (
	StepExchange Step = "exchange"
	StepUserInfo Step = "user_info"
)

// ProviderError describes a failed call to a provider endpoint. It is the
// Source of ErrCodeExchange and ErrUserInfo, and its Metadata ends up on the
// Failed event of the sign-in attempt.
type ProviderError struct {
	Provider    string
	Step        Step
	Status      int
	Code        string
	Description string
	ErrorURI    string
	Err         error
}

func (e *ProviderError) Error() string {
	detail := e.Description
	if detail == "" {
		detail = e.Code
	}
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Step, detail)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Metadata reports the provider response details.
func (e *ProviderError) Metadata() map[string]any {
	meta := map[string]any{
		"provider":  e.Provider,
		"operation": string(e.Step),
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	if e.ErrorURI != "" {
		meta["error_uri"] = e.ErrorURI
	}
	return meta
}

// exchangeFailure turns an oauth2 Exchange error into ErrCodeExchange. Token
// endpoint rejections arrive as *oauth2.RetrieveError, anything else is a
// transport failure.
func exchangeFailure(provider string, err error) error {
	perr := &ProviderError{Provider: provider, Step: StepExchange, Err: err}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr != nil {
		perr.Code = rerr.ErrorCode
		perr.Description = rerr.ErrorDescription
		perr.ErrorURI = rerr.ErrorURI
		if rerr.Response != nil {
			perr.Status = rerr.Response.StatusCode
		}
		if perr.Code == "" && perr.Description == "" {
			perr.Description = strings.TrimSpace(string(rerr.Body))
		}
	}

	return annotate(ErrCodeExchange, perr, perr.Metadata())
}

// userInfoFailure turns a userinfo failure into ErrUserInfo.
func userInfoFailure(perr *ProviderError) error {
	perr.Step = StepUserInfo
	return annotate(ErrUserInfo, perr, perr.Metadata())
}

// rejectedUserInfo reads a non 200 userinfo response. Google and Slack answer
// with the OAuth {"error","error_description"} shape, Microsoft Graph with
// {"error":{"code","message"}}.
func rejectedUserInfo(provider string, status int, body []byte) *ProviderError {
	perr := &ProviderError{Provider: provider, Step: StepUserInfo, Status: status}

	var oauthBody struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(body, &oauthBody) == nil && oauthBody.Error != "" {
		perr.Code = oauthBody.Error
		perr.Description = oauthBody.Description
		return perr
	}

	var graphBody struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &graphBody) == nil && graphBody.Error.Code != "" {
		perr.Code = graphBody.Error.Code
		perr.Description = graphBody.Error.Message
		return perr
	}

	perr.Description = strings.TrimSpace(string(body))
	return perr
}
