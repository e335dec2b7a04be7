package authflow

import (
	"context"

	"github.com/nyaruka/phonenumbers"
)

// VerifyPhoneNumber starts phone verification. The terminal event
// (CodeSent or Failed) is published before the matching caller callback
// runs, and only once per call even if the verifier reports both.
func (o *Orchestrator) VerifyPhoneNumber(ctx context.Context, phone string, onCodeSent func(verificationID string), onFailed func(error)) error {
	method := PhoneMethod()
	a := o.begin(OperationPhoneVerification, method, nil)

	failed := func(err error) {
		a.fail(err)
		if onFailed != nil {
			onFailed(err)
		}
	}

	if !o.cfg.Methods.Enabled(method) {
		err := withDetails(ErrMethodNotSupported, nil, map[string]any{"method": method.String()})
		failed(err)
		return err
	}

	normalized, err := NormalizePhoneNumber(phone, o.cfg.Phone.DefaultRegion)
	if err != nil {
		failed(err)
		return err
	}

	verifier, ok := o.registry.PhoneVerifier()
	if !ok {
		err := withDetails(ErrProviderUnavailable, nil, map[string]any{"method": method.String()})
		failed(err)
		return err
	}

	if !o.allow(method.String() + "|" + normalized) {
		err := withDetails(ErrTooManyAttempts, nil, map[string]any{"method": method.String()})
		failed(err)
		return err
	}

	codeSent := func(verificationID string) {
		a.succeed(nil, map[string]any{"verification_id": verificationID})
		if onCodeSent != nil {
			onCodeSent(verificationID)
		}
	}

	if err := verifier.Verify(ctx, normalized, codeSent, failed); err != nil {
		a.fail(err)
		return err
	}
	return nil
}

// NormalizePhoneNumber parses phone in region and formats it as E.164.
func NormalizePhoneNumber(phone, region string) (string, error) {
	num, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return "", withDetails(ErrInvalidPhoneNumber, err, map[string]any{"phone": phone})
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", withDetails(ErrInvalidPhoneNumber, nil, map[string]any{"phone": phone})
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
