package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Mutations.WithLabelValues("users").Inc()
	m.SyncWrites.WithLabelValues("ok").Add(2)
	m.FeedClients.Set(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "codequiz_store_mutations_total")
	assert.Contains(t, names, "codequiz_filesync_writes_total")
	assert.Contains(t, names, "codequiz_server_feed_clients")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SyncWrites.WithLabelValues("ok")))
}

func TestNop_IsIndependent(t *testing.T) {
	a, b := Nop(), Nop()
	a.Notifications.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Notifications))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Notifications))
}
