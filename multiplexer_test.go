package centrifuge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMultiplexerResolveDeliversReply(t *testing.T) {
	m := newMultiplexer()
	id, ch := m.register(time.Second)
	require.NotZero(t, id)

	m.resolve(id, &Reply{ID: id, Connect: &ConnectResult{Client: "c1"}}, nil)

	reply := <-ch
	require.Equal(t, "c1", reply.Connect.Client)
}

func TestMultiplexerTimeout(t *testing.T) {
	m := newMultiplexer()
	_, ch := m.register(10 * time.Millisecond)

	reply := <-ch
	require.NotNil(t, reply.Error)
}

func TestMultiplexerResolveUnknownIDIsNoop(t *testing.T) {
	m := newMultiplexer()
	require.NotPanics(t, func() {
		m.resolve(999, &Reply{ID: 999}, nil)
	})
}

func TestMultiplexerDrainFailsAllPending(t *testing.T) {
	m := newMultiplexer()
	_, ch1 := m.register(time.Second)
	_, ch2 := m.register(time.Second)

	m.drain(ErrDisconnected)

	r1 := <-ch1
	r2 := <-ch2
	require.NotNil(t, r1.Error)
	require.NotNil(t, r2.Error)
}

func TestMultiplexerResolveThenTimeoutIsSafe(t *testing.T) {
	// Regression: resolving a call before its timeout fires must not leak
	// the timeout-watcher goroutine or panic when the timer eventually
	// would have fired.
	m := newMultiplexer()
	id, ch := m.register(20 * time.Millisecond)
	m.resolve(id, &Reply{ID: id}, nil)
	<-ch
	time.Sleep(40 * time.Millisecond)
}
