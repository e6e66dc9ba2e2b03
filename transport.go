package centrifuge

import "context"

// Transport is the capability a connection establishment method must
// provide (spec.md §6). Implementations wrap a concrete carrier such as a
// websocket, SSE, or HTTP-streaming connection.
type Transport interface {
	// Name identifies the transport for logging ("websocket", "sse", ...).
	Name() string
	// Emulation reports whether the connect reply arrives over a side
	// channel rather than as the first frame on this transport (spec.md
	// §4.8, "emulation").
	Emulation() bool
	// Initialize opens the underlying carrier and starts delivering
	// events to handler until Close is called or the carrier fails.
	Initialize(ctx context.Context, handler TransportHandler) error
	// Send writes one buffer of already-encoded frames. The client's
	// writeLoop (client.go) concatenates every frame queued since its last
	// write into a single Send call: JSON frames joined by "\n", protobuf
	// frames back to back as length-prefixed records.
	Send(data []byte) error
	// Close tears down the underlying carrier. Send after Close returns
	// ErrTransportWrite.
	Close() error
}

// TransportHandler receives asynchronous events from a Transport. A Client
// implements this to drive its state machine (client.go).
type TransportHandler interface {
	OnOpen()
	OnMessage(data []byte)
	OnError(err error)
	OnClose(disconnect *Disconnect)
}

// transportHandlerFuncs adapts four closures to TransportHandler, the way
// the teacher's transport code prefers small function fields over a named
// struct type for one-off handlers.
type transportHandlerFuncs struct {
	onOpen    func()
	onMessage func(data []byte)
	onError   func(err error)
	onClose   func(disconnect *Disconnect)
}

func (h *transportHandlerFuncs) OnOpen() {
	if h.onOpen != nil {
		h.onOpen()
	}
}

func (h *transportHandlerFuncs) OnMessage(data []byte) {
	if h.onMessage != nil {
		h.onMessage(data)
	}
}

func (h *transportHandlerFuncs) OnError(err error) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *transportHandlerFuncs) OnClose(disconnect *Disconnect) {
	if h.onClose != nil {
		h.onClose(disconnect)
	}
}
