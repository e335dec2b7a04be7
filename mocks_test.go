package authflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthProvider implements authflow.AuthProvider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) SignIn(ctx context.Context, creds authflow.Credentials) (authflow.Identity, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(authflow.Identity), args.Error(1)
}

func (m *MockAuthProvider) SignUp(ctx context.Context, creds authflow.Credentials) (authflow.Identity, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(authflow.Identity), args.Error(1)
}

func (m *MockAuthProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuthProvider) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthProvider) CurrentIdentity() (authflow.Identity, bool) {
	args := m.Called()
	return args.Get(0).(authflow.Identity), args.Bool(1)
}

func (m *MockAuthProvider) IdentityChanges(ctx context.Context) <-chan *authflow.Identity {
	args := m.Called(ctx)
	return args.Get(0).(<-chan *authflow.Identity)
}

// MockPhoneVerifier implements authflow.PhoneVerifier
type MockPhoneVerifier struct {
	mock.Mock
}

func (m *MockPhoneVerifier) Verify(ctx context.Context, phone string, onCodeSent func(string), onFailed func(error)) error {
	args := m.Called(ctx, phone, onCodeSent, onFailed)
	return args.Error(0)
}

func (m *MockPhoneVerifier) SignInWithCode(ctx context.Context, verificationID, code string) (authflow.Identity, error) {
	args := m.Called(ctx, verificationID, code)
	return args.Get(0).(authflow.Identity), args.Error(1)
}

// stubFederated implements authflow.FederatedProvider
type stubFederated struct {
	name      string
	available bool
	identity  authflow.Identity
	err       error

	mu    sync.Mutex
	codes []string
}

func (s *stubFederated) Name() string    { return s.name }
func (s *stubFederated) Available() bool { return s.available }

func (s *stubFederated) AuthCodeURL(state string) string {
	return "https://auth.example/" + s.name + "?state=" + state
}

func (s *stubFederated) SignInWithCode(ctx context.Context, code string) (authflow.Identity, error) {
	s.mu.Lock()
	s.codes = append(s.codes, code)
	s.mu.Unlock()
	if s.err != nil {
		return authflow.Identity{}, s.err
	}
	return s.identity, nil
}

func (s *stubFederated) receivedCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.codes...)
}

// failingStorage implements secretstore.Storage and fails selected calls.
type failingStorage struct {
	mu        sync.Mutex
	values    map[string]string
	failWrite bool
	failRead  bool
	failDel   bool
	deletes   int
}

func newFailingStorage() *failingStorage {
	return &failingStorage{values: map[string]string{}}
}

var errStorageDown = errors.New("storage down")

func (s *failingStorage) Write(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return errStorageDown
	}
	s.values[key] = value
	return nil
}

func (s *failingStorage) Read(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return "", false, errStorageDown
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *failingStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failDel {
		return errStorageDown
	}
	delete(s.values, key)
	return nil
}

func (s *failingStorage) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDel {
		return errStorageDown
	}
	s.values = map[string]string{}
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

// collect reads n events from sub or fails the test.
func collect(t *testing.T, sub *authflow.Subscription, n int) []authflow.AuthEvent {
	t.Helper()

	out := make([]authflow.AuthEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-sub.Events():
			require.True(t, ok, "stream closed after %d of %d events", len(out), n)
			out = append(out, ev)
		case <-timeout:
			require.FailNow(t, "timed out waiting for events", "got %d of %d", len(out), n)
		}
	}
	return out
}

// drain reads until the stream closes.
func drain(t *testing.T, sub *authflow.Subscription) []authflow.AuthEvent {
	t.Helper()

	var out []authflow.AuthEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			require.FailNow(t, "timed out waiting for stream to close")
		}
	}
}

func kinds(events []authflow.AuthEvent) []authflow.EventKind {
	out := make([]authflow.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}
