package centrifuge

// CommandMethod enumerates the client-to-server command methods of spec.md
// §6, shared by both wire codecs.
type CommandMethod uint32

const (
	MethodConnect CommandMethod = iota
	MethodSubscribe
	MethodUnsubscribe
	MethodPublish
	MethodPresence
	MethodPresenceStats
	MethodHistory
	MethodPing
	MethodSend
	MethodRPC
	MethodRefresh
	MethodSubRefresh
)

// PushType enumerates the asynchronous, idless server-to-client frames of
// spec.md §4.4 ("push" vs "reply with id").
type PushType uint32

const (
	PushTypePublication PushType = iota
	PushTypeJoin
	PushTypeLeave
	PushTypeUnsubscribe
	PushTypeMessage
	PushTypeSubscribe
	PushTypeConnect
	PushTypeDisconnect
	PushTypeRefresh
)

// Command is one client-to-server frame. The *Request field matching Method
// is set; a MethodPing command carries none.
type Command struct {
	ID     uint32
	Method CommandMethod

	Connect          *ConnectRequest
	Subscribe        *SubscribeRequest
	Unsubscribe      *UnsubscribeRequest
	Publish          *PublishRequest
	Presence         *PresenceRequest
	PresenceStats    *PresenceStatsRequest
	History          *HistoryRequest
	Send             *SendRequest
	RPC              *RPCRequest
	Refresh          *RefreshRequest
	SubRefresh       *SubRefreshRequest
}

// Reply is one server-to-client frame. A Reply with ID != 0 answers a
// Command of the same ID; a Reply with ID == 0 and Push == nil is a server
// ping (spec.md §4.9); a Reply with Push set is an asynchronous push.
type Reply struct {
	ID    uint32
	Error *wireError
	Push  *Push

	Connect       *ConnectResult
	Subscribe     *SubscribeResult
	Unsubscribe   *UnsubscribeResult
	Publish       *PublishResult
	Presence      *PresenceResult
	PresenceStats *PresenceStatsResult
	History       *HistoryResult
	Send          *SendResult
	RPC           *RPCResult
	Refresh       *RefreshResult
	SubRefresh    *SubRefreshResult
}

// Push is a server-initiated, idless frame (spec.md §4.4).
type Push struct {
	Type    PushType
	Channel string

	Publication *wirePublication
	Join        *wireClientInfo
	Leave       *wireClientInfo
	Unsubscribe *PushUnsubscribe
	Message     *PushMessage
	Subscribe   *PushSubscribe
	Connect     *ConnectResult
	Disconnect  *Disconnect
	Refresh     *PushRefresh
}

type wireError struct {
	Code      uint32
	Message   string
	Temporary bool
}

type wirePublication struct {
	Offset uint64
	Data   []byte
	Info   *wireClientInfo
	// Delta indicates Data is a fossil-delta patch against the previous
	// publication's payload rather than a full payload (spec.md §4.5,
	// "delta compression").
	Delta bool
}

type wireClientInfo struct {
	User     string
	Client   string
	ConnInfo []byte
	ChanInfo []byte
}

// ConnectRequest is the body of the first command sent on every connection
// attempt (spec.md §4.6).
type ConnectRequest struct {
	Token   string
	Data    []byte
	Name    string
	Version string
	// Subs carries subscribe requests for already-known server
	// subscriptions, recovering them inline with connect (spec.md §4.6
	// step 7).
	Subs map[string]*SubscribeRequest
}

// ConnectResult is returned by the server in response to ConnectRequest, or
// delivered as an unsolicited PushTypeConnect on protocol upgrade.
type ConnectResult struct {
	Client  string
	Version string
	Expires bool
	TTL     uint32
	Data    []byte
	Subs    map[string]*SubscribeResult
	// Ping is the server's advertised ping interval in seconds; 0 means
	// the client must drive pings itself (spec.md §4.9).
	Ping int
	Pong bool
}

type SubscribeRequest struct {
	Channel     string
	Token       string
	Recover     bool
	Epoch       string
	Offset      uint64
	Data        []byte
	JoinLeave   bool
	Positioned  bool
	Recoverable bool
}

type SubscribeResult struct {
	Expires    bool
	TTL        uint32
	Recoverable bool
	Epoch      string
	Offset     uint64
	Recovered  bool
	Positioned bool
	Data       []byte
	Publications []*wirePublication
}

type UnsubscribeRequest struct {
	Channel string
}

type UnsubscribeResult struct{}

type PublishRequest struct {
	Channel string
	Data    []byte
}

type PublishResult struct{}

type PresenceRequest struct {
	Channel string
}

type PresenceResult struct {
	Presence map[string]*wireClientInfo
}

type PresenceStatsRequest struct {
	Channel string
}

type PresenceStatsResult struct {
	NumClients int
	NumUsers   int
}

type HistoryRequest struct {
	Channel string
	Limit   int
	Since   *StreamPosition
	Reverse bool
}

type HistoryResult struct {
	Publications []*wirePublication
	Offset       uint64
	Epoch        string
}

type SendRequest struct {
	Data []byte
}

type SendResult struct{}

type RPCRequest struct {
	Method string
	Data   []byte
}

type RPCResult struct {
	Data []byte
}

type RefreshRequest struct {
	Token string
}

type RefreshResult struct {
	Expires bool
	TTL     uint32
}

type SubRefreshRequest struct {
	Channel string
	Token   string
}

type SubRefreshResult struct {
	Expires bool
	TTL     uint32
}

type PushUnsubscribe struct {
	Code   uint32
	Reason string
}

type PushMessage struct {
	Data []byte
}

type PushSubscribe struct {
	Recoverable bool
	Positioned  bool
	Epoch       string
	Offset      uint64
	Data        []byte
}

type PushRefresh struct {
	Expires bool
	TTL     uint32
}

// Encoder turns Commands into frames ready for Transport.Send.
type Encoder interface {
	EncodeCommand(cmd *Command) ([]byte, error)
}

// Decoder turns frames received from a Transport into Replies. A single
// frame can decode to more than one Reply when the transport batches
// (spec.md §4.3).
type Decoder interface {
	DecodeReplies(data []byte) ([]*Reply, error)
}

func newCodec(protocol ProtocolType) (Encoder, Decoder) {
	if protocol == ProtocolTypeProtobuf {
		c := newProtobufCodec()
		return c, c
	}
	c := newJSONCodec()
	return c, c
}
