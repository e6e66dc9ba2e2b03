package centrifuge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionHandleSubscribeSuccessMergesBufferedWithRecovered(t *testing.T) {
	c, _ := newTestClient(t)
	sub, err := c.NewSubscription("news")
	require.NoError(t, err)

	var got []PublicationEvent
	sub.OnPublication(func(e PublicationEvent) { got = append(got, e) })

	sub.mu.Lock()
	sub.recovering = true
	sub.buffered = []*Publication{{Offset: 3, Data: []byte("c")}}
	sub.mu.Unlock()

	sub.handleSubscribeSuccess(&SubscribeResult{
		Epoch:  "e1",
		Offset: 2,
		Publications: []*wirePublication{
			{Offset: 1, Data: []byte("a")},
			{Offset: 2, Data: []byte("b")},
		},
	})

	require.Len(t, got, 3)
	require.Equal(t, uint64(1), got[0].Offset)
	require.Equal(t, uint64(2), got[1].Offset)
	require.Equal(t, uint64(3), got[2].Offset)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.False(t, sub.recovering)
	require.Nil(t, sub.buffered)
	require.Equal(t, uint64(3), sub.offset)
}

func TestSubscriptionHandlePublicationBuffersWhileRecovering(t *testing.T) {
	c, _ := newTestClient(t)
	sub, err := c.NewSubscription("news")
	require.NoError(t, err)

	called := false
	sub.OnPublication(func(e PublicationEvent) { called = true })

	sub.mu.Lock()
	sub.recovering = true
	sub.mu.Unlock()

	sub.handlePublication(&wirePublication{Offset: 9, Data: []byte("x")})

	require.False(t, called)
	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.Len(t, sub.buffered, 1)
	require.Equal(t, uint64(9), sub.buffered[0].Offset)
}

func TestSubscriptionHandlePublicationEmitsWhenNotRecovering(t *testing.T) {
	c, _ := newTestClient(t)
	sub, err := c.NewSubscription("news")
	require.NoError(t, err)

	var got *PublicationEvent
	sub.OnPublication(func(e PublicationEvent) { got = &e })

	sub.handlePublication(&wirePublication{Offset: 4, Data: []byte("y")})

	require.NotNil(t, got)
	require.Equal(t, uint64(4), got.Offset)
	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.Equal(t, uint64(4), sub.offset)
}

func TestSubscriptionHandleUnsubscribePushMovesToUnsubscribed(t *testing.T) {
	c, _ := newTestClient(t)
	sub, err := c.NewSubscription("news")
	require.NoError(t, err)
	sub.mu.Lock()
	sub.status = subStatusSubscribed
	sub.mu.Unlock()

	var got UnsubscribedEvent
	sub.OnUnsubscribed(func(e UnsubscribedEvent) { got = e })

	sub.handleUnsubscribePush(&PushUnsubscribe{Code: 1000, Reason: "kicked"})

	require.Equal(t, uint32(1000), got.Code)
	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.Equal(t, subStatusUnsubscribed, sub.status)
}

func TestNewSubscriptionRejectsDuplicateChannel(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.NewSubscription("news")
	require.NoError(t, err)
	_, err = c.NewSubscription("news")
	require.Error(t, err)
}

func TestIsPrivateChannel(t *testing.T) {
	require.True(t, isPrivateChannel("$news", "$"))
	require.False(t, isPrivateChannel("news", "$"))
	require.False(t, isPrivateChannel("news", ""))
}
