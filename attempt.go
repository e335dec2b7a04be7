package authflow

import "sync"

// attempt tracks one orchestrated call from its Started event to its single
// terminal event.
type attempt struct {
	o      *Orchestrator
	id     string
	op     Operation
	method AuthMethod

	once sync.Once
}

func (o *Orchestrator) begin(op Operation, method AuthMethod, meta map[string]any) *attempt {
	a := &attempt{o: o, id: o.newID(), op: op, method: method}
	o.emit(AuthEvent{
		Kind:      startedKinds[op],
		AttemptID: a.id,
		Method:    method,
		Metadata:  meta,
	})
	return a
}

// resume rebinds an attempt opened earlier, e.g. a federated sign-in that
// completes in the OAuth callback.
func (o *Orchestrator) resume(op Operation, id string, method AuthMethod) *attempt {
	return &attempt{o: o, id: id, op: op, method: method}
}

// succeed emits the success variant. Only the first terminal call emits.
func (a *attempt) succeed(identity *Identity, meta map[string]any) bool {
	emitted := false
	a.once.Do(func() {
		emitted = true
		a.o.emit(AuthEvent{
			Kind:      terminalKinds[a.op][0],
			AttemptID: a.id,
			Method:    a.method,
			Identity:  identity,
			Metadata:  meta,
		})
	})
	return emitted
}

// fail emits the failure variant and returns err unchanged.
func (a *attempt) fail(err error) error {
	a.once.Do(func() {
		a.o.logger.Debug("%s %s attempt %s failed: %v", a.op, a.method, a.id, err)
		a.o.emit(AuthEvent{
			Kind:      terminalKinds[a.op][1],
			AttemptID: a.id,
			Method:    a.method,
			Error:     errorDescription(err),
			Metadata:  errorMetadata(err),
		})
	})
	return err
}

func (o *Orchestrator) emit(event AuthEvent) AuthEvent {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = o.now()
	}
	return o.bus.Emit(event)
}
