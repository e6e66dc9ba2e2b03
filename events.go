package centrifuge

// Event types and handler signatures for Client, grounded in the shape of
// the real centrifuge-go client API (OnConnecting/OnConnected/OnDisconnected
// /OnError, sub.OnSubscribing/OnSubscribed/OnUnsubscribed/OnPublication).

type ConnectingEvent struct {
	Code   uint32
	Reason string
}

type ConnectedEvent struct {
	ClientID string
	Version  string
	Data     []byte
}

type DisconnectedEvent struct {
	Code      uint32
	Reason    string
	Reconnect bool
}

type ClosedEvent struct {
	Reason CloseReason
}

type ErrorEvent struct {
	Error error
}

type MessageEvent struct {
	Data []byte
}

type ServerPublicationEvent struct {
	Channel string
	Publication
}

type ServerJoinEvent struct {
	Channel string
	ClientInfo
}

type ServerLeaveEvent struct {
	Channel string
	ClientInfo
}

type ServerSubscribeEvent struct {
	Channel     string
	Recoverable bool
	Positioned  bool
	StreamPosition
	Data []byte
}

type ServerUnsubscribeEvent struct {
	Channel string
}

type (
	ConnectingHandler       func(ConnectingEvent)
	ConnectedHandler        func(ConnectedEvent)
	DisconnectedHandler     func(DisconnectedEvent)
	ClosedHandler           func(ClosedEvent)
	ErrorHandler            func(ErrorEvent)
	MessageHandler          func(MessageEvent)
	ServerPublicationHandler func(ServerPublicationEvent)
	ServerJoinHandler        func(ServerJoinEvent)
	ServerLeaveHandler       func(ServerLeaveEvent)
	ServerSubscribeHandler   func(ServerSubscribeEvent)
	ServerUnsubscribeHandler func(ServerUnsubscribeEvent)
)

// clientEventHub holds the optional handlers registered on a Client via its
// OnXxx setters, mirroring the teacher's clientEventHub (client.go).
type clientEventHub struct {
	onConnecting func(ConnectingEvent)
	onConnected  func(ConnectedEvent)
	onDisconnected func(DisconnectedEvent)
	onClosed     func(ClosedEvent)
	onError      func(ErrorEvent)
	onMessage    func(MessageEvent)

	onServerPublication func(ServerPublicationEvent)
	onServerJoin         func(ServerJoinEvent)
	onServerLeave         func(ServerLeaveEvent)
	onServerSubscribe     func(ServerSubscribeEvent)
	onServerUnsubscribe   func(ServerUnsubscribeEvent)
}

// Subscription events.

type SubscribingEvent struct {
	Code   uint32
	Reason string
}

type SubscribedEvent struct {
	Recoverable bool
	Positioned  bool
	StreamPosition
	Data []byte
}

type SubscriptionErrorEvent struct {
	Error error
}

type UnsubscribedEvent struct {
	Code   uint32
	Reason string
}

type PublicationEvent struct {
	Publication
}

type JoinEvent struct {
	ClientInfo
}

type LeaveEvent struct {
	ClientInfo
}

type (
	SubscribingHandler       func(SubscribingEvent)
	SubscribedHandler        func(SubscribedEvent)
	SubscriptionErrorHandler func(SubscriptionErrorEvent)
	UnsubscribedHandler      func(UnsubscribedEvent)
	PublicationHandler       func(PublicationEvent)
	JoinHandler              func(JoinEvent)
	LeaveHandler             func(LeaveEvent)
)

// subscriptionEventHub holds the optional handlers registered on a
// Subscription via its OnXxx setters.
type subscriptionEventHub struct {
	onSubscribing func(SubscribingEvent)
	onSubscribed  func(SubscribedEvent)
	onError       func(SubscriptionErrorEvent)
	onUnsubscribed func(UnsubscribedEvent)
	onPublication func(PublicationEvent)
	onJoin        func(JoinEvent)
	onLeave       func(LeaveEvent)
}
