package centrifuge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerSubscriptionApplyResultTakesLastPublicationOffset(t *testing.T) {
	ss := &serverSubscription{channel: "news"}
	ss.applyResult(&SubscribeResult{
		Recoverable: true,
		Positioned:  true,
		Epoch:       "e1",
		Offset:      5,
		Publications: []*wirePublication{
			{Offset: 6},
			{Offset: 7},
		},
	})
	require.True(t, ss.recoverable)
	require.Equal(t, "e1", ss.epoch)
	require.Equal(t, uint64(7), ss.offset)
}

func TestServerSubscriptionApplyResultFallsBackToOffsetWithoutPublications(t *testing.T) {
	ss := &serverSubscription{channel: "news"}
	ss.applyResult(&SubscribeResult{Offset: 3})
	require.Equal(t, uint64(3), ss.offset)
}
