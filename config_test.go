package centrifuge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiresTransport(t *testing.T) {
	var c Config
	require.Error(t, c.Validate())

	c.NewTransport = func(string) Transport { return nil }
	require.NoError(t, c.Validate())
}

func TestConfigValidateAcceptsEmulationEndpoints(t *testing.T) {
	c := Config{EmulationEndpoints: []EmulationEndpoint{{Endpoint: "/connect"}}}
	require.NoError(t, c.Validate())
}

func TestMergeConfigFillsDefaults(t *testing.T) {
	merged := mergeConfig(Config{})
	require.Equal(t, DefaultConfig.Protocol, merged.Protocol)
	require.Equal(t, DefaultConfig.PrivateChannelPrefix, merged.PrivateChannelPrefix)
	require.Equal(t, DefaultConfig.Timeout, merged.Timeout)
}

func TestMergeConfigPreservesExplicitValues(t *testing.T) {
	merged := mergeConfig(Config{Timeout: 2 * time.Second, Protocol: ProtocolTypeProtobuf})
	require.Equal(t, 2*time.Second, merged.Timeout)
	require.Equal(t, ProtocolTypeProtobuf, merged.Protocol)
}
