package authflow

import (
	"context"
)

// ActivitySink consumes auth events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event AuthEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event AuthEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event AuthEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, AuthEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// RelayActivity drains a bus subscription into sink until the bus closes
// or ctx is done. Sink failures are logged and never stop the relay. It
// returns ErrBusClosed when the bus is already closed.
func RelayActivity(ctx context.Context, bus *EventBus, sink ActivitySink, logger Logger) error {
	if bus == nil || bus.Closed() {
		return ErrBusClosed
	}

	sink = normalizeActivitySink(sink)
	logger = normalizeLogger(logger)

	sub := bus.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := sink.Record(ctx, event); err != nil {
				logger.Warn("activity sink failed for %s (attempt %s): %v", event.Kind, event.AttemptID, err)
			}
		}
	}
}
