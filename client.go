package centrifuge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/centrifugal/centrifuge-go-client/internal/queue"
	"github.com/centrifugal/centrifuge-go-client/internal/timers"
)

// status is the session state machine of spec.md §4.1.
type status int

const (
	statusDisconnected status = iota
	statusConnecting
	statusConnected
	statusClosed
)

// Client is a single Centrifuge session: one transport connection plus any
// number of channel Subscriptions multiplexed over it (spec.md §4).
type Client struct {
	mu     sync.Mutex
	config Config
	log    *logger

	encoder Encoder
	decoder Decoder

	status    status
	clientID  string
	transport Transport
	bo        *backoff

	mux        *multiplexer
	dispatcher *dispatcher
	writeQueue *queue.Queue

	subs       map[string]*Subscription
	serverSubs map[string]*serverSubscription

	events *clientEventHub

	pingWatchdog   *time.Timer
	reconnectTmr   *time.Timer
	clientPingStop chan struct{}

	closeCh chan struct{}

	metrics     *clientMetrics
	snapshotter *metricsSnapshotter
}

// NewClient creates a Client in the DISCONNECTED state. Call Connect to
// start the session.
func NewClient(config Config) (*Client, error) {
	config = mergeConfig(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	encoder, decoder := newCodec(config.Protocol)
	c := &Client{
		config:     config,
		log:        newLogger(config.LogLevel, config.LogHandler),
		encoder:    encoder,
		decoder:    decoder,
		bo:         newBackoff(config.MinReconnectDelay, config.MaxReconnectDelay),
		mux:        newMultiplexer(),
		writeQueue: queue.New(2),
		subs:       make(map[string]*Subscription),
		serverSubs: make(map[string]*serverSubscription),
		events:     &clientEventHub{},
		closeCh:    make(chan struct{}),
	}
	c.dispatcher = newDispatcher(c)
	registry := prometheus.NewRegistry()
	c.metrics = newClientMetrics(registry, config.MetricsNamespace)
	if config.Debug {
		c.snapshotter = newMetricsSnapshotter(registry, c.log, 30*time.Second)
	}
	go c.writeLoop()
	return c, nil
}

// writeLoop drains writeQueue for the lifetime of the client, coalescing
// every item queued since the last drain into a single Transport.Send call
// (spec.md §4.3, "batching"). Protobuf frames are already length-prefixed by
// codec_protobuf.go and can be concatenated directly; the JSON codec's
// newline-delimited frames are joined with "\n" so DecodeReplies still sees
// one record per line.
func (c *Client) writeLoop() {
	for c.writeQueue.Wait() {
		var items []queue.Item
		for {
			item, ok := c.writeQueue.Remove()
			if !ok {
				break
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			continue
		}
		var batch []byte
		for i, item := range items {
			if i > 0 && c.config.Protocol == ProtocolTypeJSON {
				batch = append(batch, '\n')
			}
			batch = append(batch, item.Data...)
		}
		c.mu.Lock()
		t := c.transport
		c.mu.Unlock()
		if t == nil {
			continue
		}
		if err := t.Send(batch); err != nil {
			c.events.emitError(ErrorEvent{Error: ErrTransportWrite})
		}
	}
}

func (c *Client) OnConnecting(h ConnectingHandler)       { c.events.onConnecting = h }
func (c *Client) OnConnected(h ConnectedHandler)         { c.events.onConnected = h }
func (c *Client) OnDisconnected(h DisconnectedHandler)   { c.events.onDisconnected = h }
func (c *Client) OnClosed(h ClosedHandler)               { c.events.onClosed = h }
func (c *Client) OnError(h ErrorHandler)                 { c.events.onError = h }
func (c *Client) OnMessage(h MessageHandler)             { c.events.onMessage = h }
func (c *Client) OnServerPublication(h ServerPublicationHandler) {
	c.events.onServerPublication = h
}
func (c *Client) OnServerJoin(h ServerJoinHandler)             { c.events.onServerJoin = h }
func (c *Client) OnServerLeave(h ServerLeaveHandler)           { c.events.onServerLeave = h }
func (c *Client) OnServerSubscribe(h ServerSubscribeHandler)   { c.events.onServerSubscribe = h }
func (c *Client) OnServerUnsubscribe(h ServerUnsubscribeHandler) {
	c.events.onServerUnsubscribe = h
}

// State reports the client's current session state.
func (c *Client) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status {
	case statusConnecting:
		return "connecting"
	case statusConnected:
		return "connected"
	case statusClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Connect starts (or resumes) the session, dialing the configured transport
// and issuing the connect command (spec.md §4.6).
func (c *Client) Connect() {
	c.mu.Lock()
	if c.status == statusClosed || c.status == statusConnecting || c.status == statusConnected {
		c.mu.Unlock()
		return
	}
	c.status = statusConnecting
	c.mu.Unlock()

	c.events.emitConnecting(ConnectingEvent{})
	go c.connectAttempt()
}

func (c *Client) connectAttempt() {
	traceID := uuid.NewString()
	c.log.log(newLogEntry(LogLevelDebug, "connect attempt", map[string]any{"trace_id": traceID}))

	factory := c.config.NewTransport
	endpoint := ""
	if len(c.config.EmulationEndpoints) > 0 {
		factory = c.config.EmulationEndpoints[0].Transport
		endpoint = c.config.EmulationEndpoints[0].Endpoint
	}
	if factory == nil {
		c.handleConnectFailure(ErrTransportWrite)
		return
	}
	transport := factory(endpoint)

	handler := &transportHandlerFuncs{
		onOpen:    func() { c.onTransportOpen() },
		onMessage: func(data []byte) { c.onTransportMessage(data) },
		onError:   func(err error) { c.events.emitError(ErrorEvent{Error: err}) },
		onClose:   func(d *Disconnect) { c.onTransportClose(d) },
	}

	c.mu.Lock()
	c.transport = transport
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()
	if err := transport.Initialize(ctx, handler); err != nil {
		c.handleConnectFailure(err)
		return
	}
}

func (c *Client) onTransportOpen() {
	token := c.config.Token
	if c.config.GetToken != nil {
		t, err := c.config.GetToken(TokenContext{})
		if err != nil {
			c.handleConnectFailure(err)
			return
		}
		token = t
	}

	req := &ConnectRequest{
		Token:   token,
		Data:    c.config.Data,
		Name:    c.config.Name,
		Version: c.config.Version,
	}
	c.mu.Lock()
	subs := make(map[string]*SubscribeRequest, len(c.serverSubs))
	for ch, ss := range c.serverSubs {
		subs[ch] = &SubscribeRequest{
			Channel: ch,
			Recover: true,
			Epoch:   ss.epoch,
			Offset:  ss.offset,
		}
	}
	c.mu.Unlock()
	if len(subs) > 0 {
		req.Subs = subs
	}

	id, replyCh := c.mux.register(c.config.Timeout)
	cmd := &Command{ID: id, Method: MethodConnect, Connect: req}
	if err := c.send(cmd, ""); err != nil {
		c.handleConnectFailure(err)
		return
	}

	go func() {
		reply := <-replyCh
		if reply.Error != nil {
			c.handleConnectFailure(errorFromWire(reply.Error))
			return
		}
		c.handleConnectSuccess(reply.Connect)
	}()
}

func (c *Client) handleConnectSuccess(result *ConnectResult) {
	c.mu.Lock()
	c.status = statusConnected
	c.clientID = result.Client
	c.bo.reset()
	for ch, sr := range result.Subs {
		if ss, ok := c.serverSubs[ch]; ok {
			ss.applyResult(sr)
		}
	}
	clientDriven := result.Ping == 0
	if !clientDriven {
		c.armPingWatchdog(result.Ping)
	}
	c.mu.Unlock()

	if clientDriven {
		c.startClientPingLoop()
	}

	c.events.emitConnected(ConnectedEvent{ClientID: result.Client, Version: result.Version, Data: result.Data})

	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()
	for _, s := range subs {
		s.resubscribe()
	}
}

func (c *Client) handleConnectFailure(err error) {
	c.mu.Lock()
	if c.status == statusClosed {
		c.mu.Unlock()
		return
	}
	c.status = statusDisconnected
	c.mu.Unlock()

	c.log.log(newLogEntry(LogLevelWarn, "connect failed", map[string]any{"error": err.Error()}))
	c.events.emitDisconnected(DisconnectedEvent{Reason: err.Error(), Reconnect: true})
	c.scheduleReconnect()
}

func (c *Client) onTransportMessage(data []byte) {
	replies, err := c.decoder.DecodeReplies(data)
	if err != nil {
		c.events.emitError(ErrorEvent{Error: err})
		return
	}
	for _, reply := range replies {
		c.dispatcher.dispatch(reply)
	}
}

func (c *Client) onTransportClose(d *Disconnect) {
	c.mu.Lock()
	if c.status == statusClosed {
		c.mu.Unlock()
		return
	}
	c.status = statusDisconnected
	c.stopPingWatchdog()
	c.mu.Unlock()

	c.stopClientPingLoop()
	c.mux.drain(ErrDisconnected)

	reconnect := d == nil || d.Reconnect
	code, reason := uint32(0), "connection closed"
	if d != nil {
		code, reason = d.Code, d.Reason
		reconnect = codeIsReconnectable(d.Code)
	}
	c.events.emitDisconnected(DisconnectedEvent{Code: code, Reason: reason, Reconnect: reconnect})

	if reconnect {
		c.scheduleReconnect()
		return
	}

	// A non-reconnectable server disconnect is terminal (spec.md §7): the
	// session moves straight to CLOSED instead of waiting to be retried.
	c.closeWithReason(closeReasonForDisconnect(d))
}

// closeReasonForDisconnect classifies a terminal server Disconnect into the
// CloseReason surfaced on ClosedEvent.
func closeReasonForDisconnect(d *Disconnect) CloseReason {
	switch d {
	case DisconnectConnectFailed:
		return CloseReasonConnectFailed
	case DisconnectUnauthorized:
		return CloseReasonUnauthorized
	case DisconnectUnrecoverablePosition:
		return CloseReasonUnrecoverablePosition
	case DisconnectRefreshFailed:
		return CloseReasonRefreshFailed
	default:
		return CloseReasonServer
	}
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.status == statusClosed {
		c.mu.Unlock()
		return
	}
	delay := c.bo.next()
	c.reconnectTmr = timers.AcquireTimer(delay)
	timer := c.reconnectTmr
	c.mu.Unlock()

	c.metrics.reconnects.Inc()

	go func() {
		select {
		case <-timer.C:
			c.Connect()
		case <-c.closeCh:
		}
	}()
}

// onServerPing resets the keepalive watchdog on any server-driven ping.
func (c *Client) onServerPing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingWatchdog != nil {
		c.pingWatchdog.Reset(c.config.PingInterval + c.config.MaxServerPingDelay)
	}
}

// armPingWatchdog starts the keepalive watchdog. When serverPing is 0 the
// server expects the client to drive pings itself instead (spec.md §4.9).
func (c *Client) armPingWatchdog(serverPing int) {
	interval := c.config.PingInterval
	if serverPing > 0 {
		interval = time.Duration(serverPing) * time.Second
	}
	c.pingWatchdog = time.AfterFunc(interval+c.config.MaxServerPingDelay, func() {
		c.onTransportClose(DisconnectNoPing)
	})
}

func (c *Client) stopPingWatchdog() {
	if c.pingWatchdog != nil {
		c.pingWatchdog.Stop()
		c.pingWatchdog = nil
	}
}

// startClientPingLoop drives pings from the client side when the server did
// not advertise a ping interval on connect (spec.md §4.9, "client-driven
// ping"). Each round trip is observed on the pingRTT histogram.
func (c *Client) startClientPingLoop() {
	c.mu.Lock()
	if c.clientPingStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.clientPingStop = stop
	interval := c.config.PingInterval
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				start := time.Now()
				ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
				_, err := c.call(ctx, MethodPing, func(id uint32) *Command { return &Command{} })
				cancel()
				if err == nil {
					c.metrics.pingRTT.Observe(time.Since(start).Seconds())
				}
			case <-stop:
				return
			case <-c.closeCh:
				return
			}
		}
	}()
}

func (c *Client) stopClientPingLoop() {
	c.mu.Lock()
	stop := c.clientPingStop
	c.clientPingStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// send encodes cmd and hands it to writeLoop for batched delivery.
func (c *Client) send(cmd *Command, channel string) error {
	data, err := c.encoder.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	c.mu.Lock()
	hasTransport := c.transport != nil
	c.mu.Unlock()
	if !hasTransport {
		return ErrDisconnected
	}
	if !c.writeQueue.Add(queue.Item{Data: data, Channel: channel}) {
		return ErrClientClosed
	}
	return nil
}

// call issues cmd and blocks for its Reply, enforcing command gating: calls
// are rejected immediately unless the session is CONNECTED (spec.md §4.7).
func (c *Client) call(ctx context.Context, method CommandMethod, build func(id uint32) *Command) (*Reply, error) {
	c.mu.Lock()
	if c.status != statusConnected {
		c.mu.Unlock()
		return nil, ErrDisconnected
	}
	c.mu.Unlock()

	id, replyCh := c.mux.register(c.config.Timeout)
	cmd := build(id)
	cmd.Method = method
	cmd.ID = id
	c.metrics.commandsSent.WithLabelValues(commandMethodName(method)).Inc()
	if err := c.send(cmd, ""); err != nil {
		c.mux.resolve(id, nil, err)
		<-replyCh
		return nil, err
	}

	select {
	case reply := <-replyCh:
		if reply.Error != nil {
			cerr := errorFromWire(reply.Error)
			c.metrics.commandErr.WithLabelValues(string(cerr.Code)).Inc()
			return nil, cerr
		}
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func commandMethodName(m CommandMethod) string {
	switch m {
	case MethodConnect:
		return "connect"
	case MethodSubscribe:
		return "subscribe"
	case MethodUnsubscribe:
		return "unsubscribe"
	case MethodPublish:
		return "publish"
	case MethodPresence:
		return "presence"
	case MethodPresenceStats:
		return "presence_stats"
	case MethodHistory:
		return "history"
	case MethodPing:
		return "ping"
	case MethodSend:
		return "send"
	case MethodRPC:
		return "rpc"
	case MethodRefresh:
		return "refresh"
	case MethodSubRefresh:
		return "sub_refresh"
	default:
		return "unknown"
	}
}

// RPC issues a method call to the server (spec.md §6).
func (c *Client) RPC(ctx context.Context, method string, data []byte) ([]byte, error) {
	reply, err := c.call(ctx, MethodRPC, func(id uint32) *Command {
		return &Command{RPC: &RPCRequest{Method: method, Data: data}}
	})
	if err != nil {
		return nil, err
	}
	return reply.RPC.Data, nil
}

// Send issues a one-way, replyless message to the server.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	if c.status != statusConnected {
		c.mu.Unlock()
		return ErrDisconnected
	}
	c.mu.Unlock()
	return c.send(&Command{Method: MethodSend, Send: &SendRequest{Data: data}}, "")
}

// Publish publishes data to channel.
func (c *Client) Publish(ctx context.Context, channel string, data []byte) error {
	_, err := c.call(ctx, MethodPublish, func(id uint32) *Command {
		return &Command{Publish: &PublishRequest{Channel: channel, Data: data}}
	})
	return err
}

// History returns the publication history of channel.
func (c *Client) History(ctx context.Context, channel string, limit int) ([]*Publication, error) {
	reply, err := c.call(ctx, MethodHistory, func(id uint32) *Command {
		return &Command{History: &HistoryRequest{Channel: channel, Limit: limit}}
	})
	if err != nil {
		return nil, err
	}
	pubs := make([]*Publication, 0, len(reply.History.Publications))
	for _, wp := range reply.History.Publications {
		pubs = append(pubs, publicationFromWire(wp))
	}
	return pubs, nil
}

// Presence returns the current presence of channel.
func (c *Client) Presence(ctx context.Context, channel string) (map[string]*ClientInfo, error) {
	reply, err := c.call(ctx, MethodPresence, func(id uint32) *Command {
		return &Command{Presence: &PresenceRequest{Channel: channel}}
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ClientInfo, len(reply.Presence.Presence))
	for k, wi := range reply.Presence.Presence {
		out[k] = clientInfoFromWire(wi)
	}
	return out, nil
}

// PresenceStats returns aggregate presence counters for channel.
func (c *Client) PresenceStats(ctx context.Context, channel string) (numClients, numUsers int, err error) {
	reply, err := c.call(ctx, MethodPresenceStats, func(id uint32) *Command {
		return &Command{PresenceStats: &PresenceStatsRequest{Channel: channel}}
	})
	if err != nil {
		return 0, 0, err
	}
	return reply.PresenceStats.NumClients, reply.PresenceStats.NumUsers, nil
}

// Refresh fetches a fresh connection token and sends a refresh command
// (spec.md §4.10).
func (c *Client) Refresh(ctx context.Context) error {
	if c.config.GetToken == nil {
		return nil
	}
	token, err := c.config.GetToken(TokenContext{})
	if err != nil {
		return err
	}
	if token == "" {
		c.onTransportClose(DisconnectRefreshFailed)
		return ErrTokenEmpty
	}
	_, err = c.call(ctx, MethodRefresh, func(id uint32) *Command {
		return &Command{Refresh: &RefreshRequest{Token: token}}
	})
	return err
}

// Disconnect closes the transport but leaves the client eligible to
// reconnect (spec.md §4.1: DISCONNECTED is not terminal).
func (c *Client) Disconnect() {
	c.mu.Lock()
	t := c.transport
	c.status = statusDisconnected
	c.mu.Unlock()
	if t != nil {
		_ = t.Close()
	}
}

// Close permanently ends the session (spec.md §4.1: CLOSED is terminal).
func (c *Client) Close() {
	c.closeWithReason(CloseReasonClient)
}

func (c *Client) closeWithReason(reason CloseReason) {
	c.mu.Lock()
	if c.status == statusClosed {
		c.mu.Unlock()
		return
	}
	c.status = statusClosed
	t := c.transport
	if !preservesServerSubs(reason) {
		c.serverSubs = make(map[string]*serverSubscription)
	}
	c.mu.Unlock()

	close(c.closeCh)
	c.stopPingWatchdog()
	c.stopClientPingLoop()
	if c.snapshotter != nil {
		c.snapshotter.Stop()
	}
	c.mux.drain(ErrClientClosed)
	c.writeQueue.Close()
	if t != nil {
		_ = t.Close()
	}

	for _, s := range c.snapshotSubs() {
		s.handleClientClosed()
	}
	c.events.emitClosed(ClosedEvent{Reason: reason})
}

func (c *Client) snapshotSubs() map[string]*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*Subscription, len(c.subs))
	for k, v := range c.subs {
		out[k] = v
	}
	return out
}

func (c *Client) subscription(channel string) (*Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.subs[channel]
	return s, ok
}

func (c *Client) handleMessage(m *PushMessage) {
	if m == nil {
		return
	}
	c.events.emitMessage(MessageEvent{Data: m.Data})
}

func (c *Client) handleConnectPush(result *ConnectResult) {
	if result == nil {
		return
	}
	c.handleConnectSuccess(result)
}

func (c *Client) handleDisconnectPush(d *Disconnect) {
	c.onTransportClose(d)
}

func (c *Client) handleRefreshPush(r *PushRefresh) {
	if r == nil {
		return
	}
	if !r.Expires {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
		defer cancel()
		_ = c.Refresh(ctx)
	}()
}

func (c *Client) handleServerPublication(channel string, wp *wirePublication) {
	c.events.emitServerPublication(ServerPublicationEvent{Channel: channel, Publication: *publicationFromWire(wp)})
}

func (c *Client) handleServerJoin(channel string, wi *wireClientInfo) {
	c.events.emitServerJoin(ServerJoinEvent{Channel: channel, ClientInfo: *clientInfoFromWire(wi)})
}

func (c *Client) handleServerLeave(channel string, wi *wireClientInfo) {
	c.events.emitServerLeave(ServerLeaveEvent{Channel: channel, ClientInfo: *clientInfoFromWire(wi)})
}

func (c *Client) handleServerUnsubscribe(channel string) {
	c.mu.Lock()
	delete(c.serverSubs, channel)
	c.mu.Unlock()
	c.events.emitServerUnsubscribe(ServerUnsubscribeEvent{Channel: channel})
}

func (c *Client) handleServerSubscribe(channel string, s *PushSubscribe) {
	if s == nil {
		return
	}
	c.mu.Lock()
	c.serverSubs[channel] = &serverSubscription{
		channel: channel,
		epoch:   s.Epoch,
		offset:  s.Offset,
	}
	c.mu.Unlock()
	c.events.emitServerSubscribe(ServerSubscribeEvent{
		Channel:     channel,
		Recoverable: s.Recoverable,
		Positioned:  s.Positioned,
		StreamPosition: StreamPosition{
			Offset: s.Offset,
			Epoch:  s.Epoch,
		},
		Data: s.Data,
	})
}

func (h *clientEventHub) emitConnecting(e ConnectingEvent) {
	if h.onConnecting != nil {
		h.onConnecting(e)
	}
}
func (h *clientEventHub) emitConnected(e ConnectedEvent) {
	if h.onConnected != nil {
		h.onConnected(e)
	}
}
func (h *clientEventHub) emitDisconnected(e DisconnectedEvent) {
	if h.onDisconnected != nil {
		h.onDisconnected(e)
	}
}
func (h *clientEventHub) emitClosed(e ClosedEvent) {
	if h.onClosed != nil {
		h.onClosed(e)
	}
}
func (h *clientEventHub) emitError(e ErrorEvent) {
	if h.onError != nil {
		h.onError(e)
	}
}
func (h *clientEventHub) emitMessage(e MessageEvent) {
	if h.onMessage != nil {
		h.onMessage(e)
	}
}
func (h *clientEventHub) emitServerPublication(e ServerPublicationEvent) {
	if h.onServerPublication != nil {
		h.onServerPublication(e)
	}
}
func (h *clientEventHub) emitServerJoin(e ServerJoinEvent) {
	if h.onServerJoin != nil {
		h.onServerJoin(e)
	}
}
func (h *clientEventHub) emitServerLeave(e ServerLeaveEvent) {
	if h.onServerLeave != nil {
		h.onServerLeave(e)
	}
}
func (h *clientEventHub) emitServerSubscribe(e ServerSubscribeEvent) {
	if h.onServerSubscribe != nil {
		h.onServerSubscribe(e)
	}
}
func (h *clientEventHub) emitServerUnsubscribe(e ServerUnsubscribeEvent) {
	if h.onServerUnsubscribe != nil {
		h.onServerUnsubscribe(e)
	}
}
