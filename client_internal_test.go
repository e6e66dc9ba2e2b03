package centrifuge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubTransport is a scripted Transport double: Send records frames, Close
// marks it closed, and it never calls back into the handler on its own -
// tests drive the handler directly to simulate server frames.
type stubTransport struct {
	sent   [][]byte
	closed bool
}

func (t *stubTransport) Name() string    { return "stub" }
func (t *stubTransport) Emulation() bool { return false }
func (t *stubTransport) Initialize(ctx context.Context, handler TransportHandler) error {
	return nil
}
func (t *stubTransport) Send(data []byte) error { t.sent = append(t.sent, data); return nil }
func (t *stubTransport) Close() error           { t.closed = true; return nil }

func newTestClient(t *testing.T) (*Client, *stubTransport) {
	t.Helper()
	tr := &stubTransport{}
	cfg := Config{
		NewTransport: func(endpoint string) Transport { return tr },
		Timeout:      50 * time.Millisecond,
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c, tr
}

func TestNewClientStartsDisconnected(t *testing.T) {
	c, _ := newTestClient(t)
	require.Equal(t, "disconnected", c.State())
}

func TestCallRejectedWhenNotConnected(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.Publish(context.Background(), "news", []byte("hi"))
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestDispatchResolvesPendingCall(t *testing.T) {
	c, _ := newTestClient(t)
	id, ch := c.mux.register(time.Second)
	c.dispatcher.dispatch(&Reply{ID: id, Publish: &PublishResult{}})
	reply := <-ch
	require.Nil(t, reply.Error)
}

func TestDispatchServerPingResetsWatchdog(t *testing.T) {
	c, _ := newTestClient(t)
	c.mu.Lock()
	c.status = statusConnected
	c.pingWatchdog = time.AfterFunc(time.Hour, func() {})
	c.pingWatchdog.Stop()
	c.mu.Unlock()
	require.NotPanics(t, func() {
		c.dispatcher.dispatch(&Reply{})
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	require.True(t, c.pingWatchdog.Stop(), "a server ping must re-arm the stopped watchdog")
}

func TestDispatchRoutesPublicationToSubscription(t *testing.T) {
	c, _ := newTestClient(t)
	sub, err := c.NewSubscription("news")
	require.NoError(t, err)

	var got PublicationEvent
	sub.OnPublication(func(e PublicationEvent) { got = e })

	c.dispatcher.dispatch(&Reply{Push: &Push{
		Type:        PushTypePublication,
		Channel:     "news",
		Publication: &wirePublication{Offset: 5, Data: []byte("hello")},
	}})

	require.Equal(t, uint64(5), got.Offset)
	require.Equal(t, []byte("hello"), got.Data)
}

func TestDispatchRoutesUnknownChannelPublicationToServerHandler(t *testing.T) {
	c, _ := newTestClient(t)
	var got ServerPublicationEvent
	c.OnServerPublication(func(e ServerPublicationEvent) { got = e })

	c.dispatcher.dispatch(&Reply{Push: &Push{
		Type:        PushTypePublication,
		Channel:     "orphan",
		Publication: &wirePublication{Offset: 1, Data: []byte("x")},
	}})

	require.Equal(t, "orphan", got.Channel)
}

func TestCloseIsIdempotent(t *testing.T) {
	c, tr := newTestClient(t)
	c.Close()
	require.Equal(t, "closed", c.State())
	require.NotPanics(t, c.Close)
	_ = tr
}
