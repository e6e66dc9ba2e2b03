package centrifuge

import (
	"sync"
	"time"

	"github.com/centrifugal/centrifuge-go-client/internal/timers"
)

// pendingCall is one in-flight command awaiting its Reply (spec.md §4.2).
type pendingCall struct {
	replyCh chan *Reply
	timer   *time.Timer
	done    chan struct{}
}

// multiplexer allocates monotonic command IDs and resolves replies to the
// caller that issued the matching command, guaranteeing at most one
// in-flight goroutine is blocked per ID (spec.md §4.2, "multiplexer").
type multiplexer struct {
	mu      sync.Mutex
	nextID  uint32
	pending map[uint32]*pendingCall
}

func newMultiplexer() *multiplexer {
	return &multiplexer{pending: make(map[uint32]*pendingCall)}
}

// register allocates a new command ID and a channel that will receive its
// Reply. If no Reply arrives within timeout the channel receives a Reply
// carrying ErrTimeout and the entry is removed.
func (m *multiplexer) register(timeout time.Duration) (uint32, <-chan *Reply) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	ch := make(chan *Reply, 1)
	call := &pendingCall{replyCh: ch, done: make(chan struct{})}
	call.timer = timers.AcquireTimer(timeout)
	m.pending[id] = call
	m.mu.Unlock()

	go func() {
		select {
		case <-call.timer.C:
			m.resolve(id, nil, ErrTimeout)
		case <-call.done:
		}
	}()

	return id, ch
}

// resolve delivers reply (or err, wrapped as a Reply carrying a wireError)
// to the call registered under id, if still pending. Safe to call more than
// once for the same id; only the first call has an effect.
func (m *multiplexer) resolve(id uint32, reply *Reply, err error) {
	m.mu.Lock()
	call, ok := m.pending[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pending, id)
	m.mu.Unlock()

	close(call.done)
	timers.ReleaseTimer(call.timer)

	if reply == nil {
		reply = &Reply{ID: id, Error: &wireError{Message: err.Error()}}
	}
	call.replyCh <- reply
	close(call.replyCh)
}

// drain fails every pending call with err, called when the session leaves
// CONNECTED (spec.md §4.7: "in-flight calls are rejected with DISCONNECTED
// when the session leaves CONNECTED").
func (m *multiplexer) drain(err error) {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[uint32]*pendingCall)
	m.mu.Unlock()

	for id, call := range pending {
		close(call.done)
		timers.ReleaseTimer(call.timer)
		call.replyCh <- &Reply{ID: id, Error: &wireError{Message: err.Error()}}
		close(call.replyCh)
	}
}
