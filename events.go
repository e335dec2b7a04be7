package authflow

import "time"

// EventKind tags an AuthEvent variant.
type EventKind string

const (
	EventSignInStarted   EventKind = "auth.sign_in.started"
	EventSignInSucceeded EventKind = "auth.sign_in.succeeded"
	EventSignInFailed    EventKind = "auth.sign_in.failed"

	EventSignUpStarted   EventKind = "auth.sign_up.started"
	EventSignUpSucceeded EventKind = "auth.sign_up.succeeded"
	EventSignUpFailed    EventKind = "auth.sign_up.failed"

	EventSignOutStarted   EventKind = "auth.sign_out.started"
	EventSignOutSucceeded EventKind = "auth.sign_out.succeeded"
	EventSignOutFailed    EventKind = "auth.sign_out.failed"

	EventPhoneVerificationStarted  EventKind = "auth.phone_verification.started"
	EventPhoneVerificationCodeSent EventKind = "auth.phone_verification.code_sent"
	EventPhoneVerificationFailed   EventKind = "auth.phone_verification.failed"

	EventPasswordResetStarted EventKind = "auth.password_reset.started"
	EventPasswordResetSent    EventKind = "auth.password_reset.sent"
	EventPasswordResetFailed  EventKind = "auth.password_reset.failed"

	EventOAuthCallbackFailed EventKind = "auth.oauth_callback.failed"
)

// Operation groups the variants belonging to one orchestrated call.
type Operation string

const (
	OperationSignIn            Operation = "sign_in"
	OperationSignUp            Operation = "sign_up"
	OperationSignOut           Operation = "sign_out"
	OperationPhoneVerification Operation = "phone_verification"
	OperationPasswordReset     Operation = "password_reset"
	OperationOAuthCallback     Operation = "oauth_callback"
)

// Phase is the position of a variant in the attempt lifecycle.
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

type eventShape struct {
	op    Operation
	phase Phase
}

var eventShapes = map[EventKind]eventShape{
	EventSignInStarted:             {OperationSignIn, PhaseStarted},
	EventSignInSucceeded:           {OperationSignIn, PhaseSucceeded},
	EventSignInFailed:              {OperationSignIn, PhaseFailed},
	EventSignUpStarted:             {OperationSignUp, PhaseStarted},
	EventSignUpSucceeded:           {OperationSignUp, PhaseSucceeded},
	EventSignUpFailed:              {OperationSignUp, PhaseFailed},
	EventSignOutStarted:            {OperationSignOut, PhaseStarted},
	EventSignOutSucceeded:          {OperationSignOut, PhaseSucceeded},
	EventSignOutFailed:             {OperationSignOut, PhaseFailed},
	EventPhoneVerificationStarted:  {OperationPhoneVerification, PhaseStarted},
	EventPhoneVerificationCodeSent: {OperationPhoneVerification, PhaseSucceeded},
	EventPhoneVerificationFailed:   {OperationPhoneVerification, PhaseFailed},
	EventPasswordResetStarted:      {OperationPasswordReset, PhaseStarted},
	EventPasswordResetSent:         {OperationPasswordReset, PhaseSucceeded},
	EventPasswordResetFailed:       {OperationPasswordReset, PhaseFailed},
	EventOAuthCallbackFailed:       {OperationOAuthCallback, PhaseFailed},
}

// Operation returns the operation the kind belongs to.
func (k EventKind) Operation() Operation {
	return eventShapes[k].op
}

// Phase returns the lifecycle phase of the kind.
func (k EventKind) Phase() Phase {
	return eventShapes[k].phase
}

// Known reports whether k is one of the declared variants.
func (k EventKind) Known() bool {
	_, ok := eventShapes[k]
	return ok
}

// AuthEvent is the single tagged union published on the EventBus. Kind
// selects the variant; Identity is set on success variants that resolve a
// user and Error on failure variants.
type AuthEvent struct {
	Kind       EventKind      `json:"kind"`
	AttemptID  string         `json:"attempt_id"`
	Sequence   uint64         `json:"sequence"`
	Method     AuthMethod     `json:"method"`
	Identity   *Identity      `json:"identity,omitempty"`
	Error      string         `json:"error,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// IsStarted reports whether the event opens an attempt.
func (e AuthEvent) IsStarted() bool {
	return e.Kind.Phase() == PhaseStarted
}

// IsTerminal reports whether the event closes an attempt.
func (e AuthEvent) IsTerminal() bool {
	p := e.Kind.Phase()
	return p == PhaseSucceeded || p == PhaseFailed
}

// Failed reports whether the event is a failure variant.
func (e AuthEvent) Failed() bool {
	return e.Kind.Phase() == PhaseFailed
}

// terminalKinds maps each operation to its success and failure variants.
var terminalKinds = map[Operation][2]EventKind{
	OperationSignIn:            {EventSignInSucceeded, EventSignInFailed},
	OperationSignUp:            {EventSignUpSucceeded, EventSignUpFailed},
	OperationSignOut:           {EventSignOutSucceeded, EventSignOutFailed},
	OperationPhoneVerification: {EventPhoneVerificationCodeSent, EventPhoneVerificationFailed},
	OperationPasswordReset:     {EventPasswordResetSent, EventPasswordResetFailed},
}

var startedKinds = map[Operation]EventKind{
	OperationSignIn:            EventSignInStarted,
	OperationSignUp:            EventSignUpStarted,
	OperationSignOut:           EventSignOutStarted,
	OperationPhoneVerification: EventPhoneVerificationStarted,
	OperationPasswordReset:     EventPasswordResetStarted,
}
