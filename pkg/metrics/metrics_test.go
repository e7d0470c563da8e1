package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.HandleAllocated("party_keys")
	m.HandleAllocated("party_keys")
	m.HandleAllocated("keyshare_p1")
	m.HandleReleased("party_keys")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveHandles.WithLabelValues("party_keys")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveHandles.WithLabelValues("keyshare_p1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.allocated.WithLabelValues("party_keys")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.released.WithLabelValues("party_keys")))

	expected := `
# HELP tss2p_live_handles Number of live handles by kind
# TYPE tss2p_live_handles gauge
tss2p_live_handles{kind="keyshare_p1"} 1
tss2p_live_handles{kind="party_keys"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tss2p_live_handles"))
}

func TestObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveStep("keygen", "p1_msg1", "ok", time.Millisecond)
	m.ObserveStep("keygen", "p1_msg1", "ok", time.Millisecond)
	m.ObserveStep("sign", "p2_msg5", "process message error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps.WithLabelValues("keygen", "p1_msg1", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("sign", "p2_msg5", "process message error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilRegisterer(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.HandleAllocated("party_keys")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveHandles.WithLabelValues("party_keys")))
}

func TestInitKinds(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.InitKinds("party_keys", "keyshare_p1")
	m.HandleAllocated("keyshare_p1")

	expected := `
# HELP tss2p_handles_released_total Total number of handles released by kind
# TYPE tss2p_handles_released_total counter
tss2p_handles_released_total{kind="keyshare_p1"} 0
tss2p_handles_released_total{kind="party_keys"} 0
# HELP tss2p_live_handles Number of live handles by kind
# TYPE tss2p_live_handles gauge
tss2p_live_handles{kind="keyshare_p1"} 1
tss2p_live_handles{kind="party_keys"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tss2p_live_handles", "tss2p_handles_released_total"))
}
