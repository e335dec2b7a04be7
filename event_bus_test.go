package authflow_test

import (
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusFansOutInOrder(t *testing.T) {
	bus := authflow.NewEventBus()
	defer bus.Close()

	first := bus.Subscribe()
	second := bus.Subscribe()

	emitted := []authflow.EventKind{
		authflow.EventSignInStarted,
		authflow.EventSignInFailed,
		authflow.EventSignUpStarted,
		authflow.EventSignUpSucceeded,
	}
	for _, kind := range emitted {
		bus.Emit(authflow.AuthEvent{Kind: kind, Method: authflow.EmailMethod()})
	}

	a := collect(t, first, len(emitted))
	b := collect(t, second, len(emitted))

	assert.Equal(t, emitted, kinds(a))
	assert.Equal(t, a, b)
	for i, ev := range a {
		assert.Equal(t, uint64(i+1), ev.Sequence)
		assert.False(t, ev.OccurredAt.IsZero())
	}
}

func TestEventBusEmitWithoutSubscribers(t *testing.T) {
	bus := authflow.NewEventBus()

	assert.NotPanics(t, func() {
		ev := bus.Emit(authflow.AuthEvent{Kind: authflow.EventSignOutStarted})
		assert.Equal(t, uint64(1), ev.Sequence)
	})
}

func TestEventBusCloseIsIdempotentAndSilencesEmit(t *testing.T) {
	clock := newTestClock()
	bus := authflow.NewEventBus(authflow.WithEventBusClock(clock.Now))
	sub := bus.Subscribe()

	bus.Emit(authflow.AuthEvent{Kind: authflow.EventSignInStarted})
	bus.Close()
	bus.Close()

	ev := bus.Emit(authflow.AuthEvent{Kind: authflow.EventSignInSucceeded})
	assert.Zero(t, ev.Sequence)
	assert.True(t, bus.Closed())

	events := drain(t, sub)
	require.Len(t, events, 1, "pending events are delivered before the stream ends")
	assert.Equal(t, authflow.EventSignInStarted, events[0].Kind)
	assert.Equal(t, clock.Now(), events[0].OccurredAt)

	late := bus.Subscribe()
	assert.Empty(t, drain(t, late))
}

func TestEventBusCancelDetachesSubscriber(t *testing.T) {
	bus := authflow.NewEventBus()
	defer bus.Close()

	kept := bus.Subscribe()
	cancelled := bus.Subscribe()
	require.Equal(t, 2, bus.SubscriberCount())

	cancelled.Cancel()
	cancelled.Cancel()
	assert.Equal(t, 1, bus.SubscriberCount())

	bus.Emit(authflow.AuthEvent{Kind: authflow.EventPasswordResetStarted})

	assert.Equal(t, authflow.EventPasswordResetStarted, collect(t, kept, 1)[0].Kind)
	assert.Empty(t, drain(t, cancelled))
}

func TestEventBusEmitDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := authflow.NewEventBus()
	defer bus.Close()

	slow := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Emit(authflow.AuthEvent{Kind: authflow.EventSignInStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on an idle subscriber")
	}

	events := collect(t, slow, 500)
	assert.Equal(t, uint64(500), events[499].Sequence)
}

func TestEventBusConcurrentEmittersShareOneOrder(t *testing.T) {
	bus := authflow.NewEventBus()
	defer bus.Close()

	first := bus.Subscribe()
	second := bus.Subscribe()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				bus.Emit(authflow.AuthEvent{Kind: authflow.EventSignInStarted})
			}
		}()
	}
	wg.Wait()

	a := collect(t, first, 200)
	b := collect(t, second, 200)
	for i := range a {
		assert.Equal(t, uint64(i+1), a[i].Sequence)
		assert.Equal(t, a[i].Sequence, b[i].Sequence)
	}
}

func TestEventKindShape(t *testing.T) {
	tests := []struct {
		kind  authflow.EventKind
		op    authflow.Operation
		phase authflow.Phase
	}{
		{authflow.EventSignInStarted, authflow.OperationSignIn, authflow.PhaseStarted},
		{authflow.EventSignUpSucceeded, authflow.OperationSignUp, authflow.PhaseSucceeded},
		{authflow.EventPhoneVerificationCodeSent, authflow.OperationPhoneVerification, authflow.PhaseSucceeded},
		{authflow.EventPasswordResetFailed, authflow.OperationPasswordReset, authflow.PhaseFailed},
		{authflow.EventOAuthCallbackFailed, authflow.OperationOAuthCallback, authflow.PhaseFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.True(t, tt.kind.Known())
			assert.Equal(t, tt.op, tt.kind.Operation())
			assert.Equal(t, tt.phase, tt.kind.Phase())
		})
	}

	assert.False(t, authflow.EventKind("auth.unknown").Known())
	assert.True(t, authflow.AuthEvent{Kind: authflow.EventSignOutFailed}.IsTerminal())
	assert.True(t, authflow.AuthEvent{Kind: authflow.EventSignOutFailed}.Failed())
	assert.True(t, authflow.AuthEvent{Kind: authflow.EventSignOutStarted}.IsStarted())
}
