package centrifuge

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestClientMetricsRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newClientMetrics(reg, "test_client")
	require.NotNil(t, m.reconnects)
	require.NotNil(t, m.commandsSent)
	require.NotNil(t, m.commandErr)
	require.NotNil(t, m.pingRTT)

	m.reconnects.Inc()
	m.commandsSent.WithLabelValues("publish").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestCommandMethodNameCoversEveryMethod(t *testing.T) {
	methods := []CommandMethod{
		MethodConnect, MethodSubscribe, MethodUnsubscribe, MethodPublish,
		MethodPresence, MethodPresenceStats, MethodHistory, MethodPing,
		MethodSend, MethodRPC, MethodRefresh, MethodSubRefresh,
	}
	for _, m := range methods {
		require.NotEqual(t, "unknown", commandMethodName(m))
	}
}
