package centrifuge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeIsReconnectableBands(t *testing.T) {
	require.True(t, codeIsReconnectable(0))
	require.True(t, codeIsReconnectable(2999))
	require.True(t, codeIsReconnectable(3000))
	require.True(t, codeIsReconnectable(3499))
	require.False(t, codeIsReconnectable(3500))
	require.False(t, codeIsReconnectable(3999))
	require.True(t, codeIsReconnectable(4000))
	require.True(t, codeIsReconnectable(4499))
	require.False(t, codeIsReconnectable(4500))
	require.False(t, codeIsReconnectable(4999))
}

func TestPreservesServerSubs(t *testing.T) {
	require.False(t, preservesServerSubs(CloseReasonClient))
	require.False(t, preservesServerSubs(CloseReasonUnrecoverablePosition))
	require.True(t, preservesServerSubs(CloseReasonServer))
	require.True(t, preservesServerSubs(CloseReasonConnectFailed))
}

func TestCloseReasonForDisconnect(t *testing.T) {
	require.Equal(t, CloseReasonConnectFailed, closeReasonForDisconnect(DisconnectConnectFailed))
	require.Equal(t, CloseReasonUnauthorized, closeReasonForDisconnect(DisconnectUnauthorized))
	require.Equal(t, CloseReasonServer, closeReasonForDisconnect(DisconnectForceClose))
}
