package monitor

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisteredWithDefaultRegistry(t *testing.T) {
	ObserveSign("unit-test", 0.001, nil)
	DerivationRetriesTotal.Add(0)
	KeysDestroyedTotal.Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"wallet_sign_requests_total",
		"wallet_sign_duration_seconds",
		"wallet_derivation_retries_total",
		"wallet_keys_destroyed_total",
	} {
		if !names[want] {
			t.Fatalf("默认 Registry 未导出 %s", want)
		}
	}
}

func TestObserveSign(t *testing.T) {
	okBefore := testutil.ToFloat64(SignRequestsTotal.WithLabelValues("unit-test", "ok"))
	errBefore := testutil.ToFloat64(SignRequestsTotal.WithLabelValues("unit-test", "error"))

	ObserveSign("unit-test", 0.001, nil)
	ObserveSign("unit-test", 0.001, errors.New("boom"))
	ObserveSign("unit-test", 0.002, nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(SignRequestsTotal.WithLabelValues("unit-test", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(SignRequestsTotal.WithLabelValues("unit-test", "error")))
}
