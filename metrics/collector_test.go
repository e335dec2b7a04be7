package metrics_test

import (
	"context"
	"testing"
	"time"

	authflow "github.com/goliatone/go-authflow"
	"github.com/goliatone/go-authflow/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, c *metrics.Collector) map[string]*dto.MetricFamily {
	t.Helper()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func findMetric(mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	if mf == nil {
		return nil
	}
	for _, m := range mf.GetMetric() {
		matched := 0
		for _, lp := range m.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return m
		}
	}
	return nil
}

func TestCollectorCountsAndLatency(t *testing.T) {
	c := metrics.NewCollector("test")
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	google := authflow.FederatedMethod("google")

	c.Observe(authflow.AuthEvent{Kind: authflow.EventSignInStarted, AttemptID: "a1", Method: google, OccurredAt: start})
	c.Observe(authflow.AuthEvent{Kind: authflow.EventSignInStarted, AttemptID: "a2", Method: authflow.EmailMethod(), OccurredAt: start})
	c.Observe(authflow.AuthEvent{Kind: authflow.EventSignInSucceeded, AttemptID: "a1", Method: google, OccurredAt: start.Add(2 * time.Second)})

	families := gather(t, c)

	started := findMetric(families["test_events_total"], map[string]string{
		"kind":   string(authflow.EventSignInStarted),
		"method": "federated:google",
	})
	require.NotNil(t, started)
	assert.Equal(t, float64(1), started.GetCounter().GetValue())

	attempts := findMetric(families["test_attempts_total"], map[string]string{
		"operation": "sign_in",
		"method":    "federated:google",
		"outcome":   "succeeded",
	})
	require.NotNil(t, attempts)
	assert.Equal(t, float64(1), attempts.GetCounter().GetValue())

	latency := findMetric(families["test_attempt_duration_seconds"], map[string]string{
		"operation": "sign_in",
		"method":    "federated:google",
		"outcome":   "succeeded",
	})
	require.NotNil(t, latency)
	assert.Equal(t, uint64(1), latency.GetHistogram().GetSampleCount())
	assert.InDelta(t, 2.0, latency.GetHistogram().GetSampleSum(), 1e-9)

	inflight := families["test_attempts_in_flight"]
	require.NotNil(t, inflight)
	assert.Equal(t, float64(1), inflight.GetMetric()[0].GetGauge().GetValue())
}

func TestCollectorStandaloneFailureHasNoLatency(t *testing.T) {
	c := metrics.NewCollector("")
	c.Observe(authflow.AuthEvent{Kind: authflow.EventOAuthCallbackFailed, AttemptID: "cb"})

	families := gather(t, c)

	events := findMetric(families["authflow_events_total"], map[string]string{
		"kind":   string(authflow.EventOAuthCallbackFailed),
		"method": "none",
	})
	require.NotNil(t, events)
	assert.Equal(t, float64(1), events.GetCounter().GetValue())

	attempts := findMetric(families["authflow_attempts_total"], map[string]string{
		"operation": "oauth_callback",
		"outcome":   "failed",
	})
	require.NotNil(t, attempts)

	_, hasLatency := families["authflow_attempt_duration_seconds"]
	assert.False(t, hasLatency)
}

type instantVerifier struct{}

func (instantVerifier) Verify(_ context.Context, _ string, onCodeSent func(string), _ func(error)) error {
	onCodeSent("verification-1")
	return nil
}

func (instantVerifier) SignInWithCode(context.Context, string, string) (authflow.Identity, error) {
	return authflow.Identity{}, nil
}

func TestCollectorRunsFromOrchestratorEvents(t *testing.T) {
	c := metrics.NewCollector("flow")
	o := authflow.NewOrchestrator(authflow.WithPhoneVerifier(instantVerifier{}))

	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), o.Events(), nil)
	}()
	require.Eventually(t, func() bool { return o.Events().SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	err := o.VerifyPhoneNumber(context.Background(), "+1 650 253 0000", nil, nil)
	require.NoError(t, err)
	o.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop after bus close")
	}

	families := gather(t, c)
	attempts := findMetric(families["flow_attempts_total"], map[string]string{
		"operation": "phone_verification",
		"method":    "phone",
		"outcome":   "succeeded",
	})
	require.NotNil(t, attempts)
	assert.Equal(t, float64(1), attempts.GetCounter().GetValue())
}
