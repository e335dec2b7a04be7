package authflow

import (
	"context"
	"net/url"
	"time"
)

// FederatedRedirect describes a front channel request handed to the
// Launcher. The sign-in attempt stays open until the callback arrives.
type FederatedRedirect struct {
	Provider  string `json:"provider"`
	URL       string `json:"url"`
	State     string `json:"state"`
	AttemptID string `json:"attempt_id"`
}

type pendingAttempt struct {
	id        string
	provider  string
	startedAt time.Time
}

// SignInWithFederated opens a federated sign-in attempt: it issues a state
// value, builds the provider authorization URL and launches it. The attempt
// is resolved by HandleOAuthCallback.
func (o *Orchestrator) SignInWithFederated(ctx context.Context, provider string) (*FederatedRedirect, error) {
	method := FederatedMethod(provider)
	a := o.begin(OperationSignIn, method, nil)

	if !method.Valid() || !o.cfg.Methods.Enabled(method) {
		return nil, a.fail(withDetails(ErrMethodNotSupported, nil, map[string]any{"method": method.String()}))
	}

	fp, ok := o.registry.Federated(method.Provider)
	if !ok {
		return nil, a.fail(withDetails(ErrProviderUnavailable, nil, map[string]any{"provider": method.Provider}))
	}

	state, err := o.states.Issue(method.Provider)
	if err != nil {
		return nil, a.fail(err)
	}

	redirect := &FederatedRedirect{
		Provider:  method.Provider,
		URL:       fp.AuthCodeURL(state),
		State:     state,
		AttemptID: a.id,
	}

	o.expirePending()
	o.pendingMu.Lock()
	o.pending[state] = pendingAttempt{id: a.id, provider: method.Provider, startedAt: o.now()}
	o.pendingMu.Unlock()

	if err := o.launcher.Launch(ctx, redirect.URL); err != nil {
		o.takePending(state)
		return nil, a.fail(err)
	}

	return redirect, nil
}

// HandleOAuthCallback completes a federated flow from the redirect URI.
//
// An error parameter fails with ErrOAuthCallback, a missing code with
// ErrMissingCode and a state that does not route to an available provider
// with ErrUnknownProvider. Each of these publishes OAuthCallbackFailed and
// closes the pending attempt, if any, with SignInFailed.
func (o *Orchestrator) HandleOAuthCallback(ctx context.Context, uri string) (Identity, error) {
	u, err := url.Parse(uri)
	if err != nil {
		cbErr := withDetails(ErrOAuthCallback, err, map[string]any{"reason": "malformed callback uri"})
		o.callbackFailed(AuthMethod{}, cbErr, nil)
		return Identity{}, cbErr
	}

	query := u.Query()
	code := query.Get("code")
	state := query.Get("state")
	pending, hasPending := o.takePending(state)

	var open *attempt
	if hasPending {
		open = o.resume(OperationSignIn, pending.id, FederatedMethod(pending.provider))
	}

	if oauthErr := query.Get("error"); oauthErr != "" {
		meta := map[string]any{"error": oauthErr}
		if desc := query.Get("error_description"); desc != "" {
			meta["error_description"] = desc
		}
		cbErr := withDetails(ErrOAuthCallback, nil, meta)
		o.callbackFailed(pendingMethod(pending, hasPending), cbErr, open)
		return Identity{}, cbErr
	}

	if code == "" {
		cbErr := withDetails(ErrMissingCode, nil, nil)
		o.callbackFailed(pendingMethod(pending, hasPending), cbErr, open)
		return Identity{}, cbErr
	}

	providerName, routeErr := o.states.Route(state)
	var fp FederatedProvider
	if routeErr == nil {
		fp, _ = o.registry.Federated(providerName)
	}
	if fp == nil {
		cbErr := withDetails(ErrUnknownProvider, routeErr, map[string]any{"provider": providerName})
		o.callbackFailed(pendingMethod(pending, hasPending), cbErr, open)
		return Identity{}, cbErr
	}

	method := FederatedMethod(providerName)
	a := open
	if a == nil || a.method != method {
		if a != nil {
			a.fail(withDetails(ErrUnknownProvider, nil, map[string]any{"provider": providerName}))
		}
		a = o.begin(OperationSignIn, method, map[string]any{"source": "oauth_callback"})
	}

	identity, err := fp.SignInWithCode(ctx, code)
	if err != nil {
		return Identity{}, a.fail(err)
	}

	identity = stampMethod(identity, method)
	a.succeed(&identity, nil)
	return identity, nil
}

func (o *Orchestrator) callbackFailed(method AuthMethod, err error, pending *attempt) {
	o.emit(AuthEvent{
		Kind:      EventOAuthCallbackFailed,
		AttemptID: o.newID(),
		Method:    method,
		Error:     errorDescription(err),
		Metadata:  errorMetadata(err),
	})
	if pending != nil {
		pending.fail(err)
	}
}

func (o *Orchestrator) takePending(state string) (pendingAttempt, bool) {
	if state == "" {
		return pendingAttempt{}, false
	}
	o.expirePending()

	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	p, ok := o.pending[state]
	if ok {
		delete(o.pending, state)
	}
	return p, ok
}

// expirePending closes attempts whose callback did not arrive within the
// state TTL.
func (o *Orchestrator) expirePending() {
	ttl := o.cfg.OAuth.StateTTL
	now := o.now()

	var expired []pendingAttempt
	o.pendingMu.Lock()
	for state, p := range o.pending {
		if now.Sub(p.startedAt) > ttl {
			expired = append(expired, p)
			delete(o.pending, state)
		}
	}
	o.pendingMu.Unlock()

	for _, p := range expired {
		o.resume(OperationSignIn, p.id, FederatedMethod(p.provider)).
			fail(withDetails(ErrAttemptExpired, nil, map[string]any{"provider": p.provider}))
	}
}

// PendingFederatedAttempts returns the number of open federated attempts.
func (o *Orchestrator) PendingFederatedAttempts() int {
	o.expirePending()
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	return len(o.pending)
}

func pendingMethod(p pendingAttempt, ok bool) AuthMethod {
	if !ok {
		return AuthMethod{}
	}
	return FederatedMethod(p.provider)
}
