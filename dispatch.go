package centrifuge

// dispatcher delivers decoded Replies to the client in the order the
// transport produced them (spec.md §4.4, "serial dispatch"): replies with an
// ID resolve a pending call on the multiplexer, and pushes are routed to the
// owning Subscription or to the client's own server-event handlers, all from
// a single goroutine so handler callbacks never interleave out of wire
// order.
type dispatcher struct {
	client *Client
}

func newDispatcher(c *Client) *dispatcher {
	return &dispatcher{client: c}
}

// dispatch processes one already-decoded Reply. It must only ever be called
// from the client's single read loop goroutine.
func (d *dispatcher) dispatch(reply *Reply) {
	switch {
	case reply.Push != nil:
		d.dispatchPush(reply.Push)
	case reply.ID != 0:
		d.client.mux.resolve(reply.ID, reply, nil)
	default:
		// Empty frame with no id and no push: a server-driven ping
		// (spec.md §4.9). Reset the keepalive watchdog. No pong is sent
		// back, even when the connect reply set Pong.
		d.client.onServerPing()
	}
}

func (d *dispatcher) dispatchPush(push *Push) {
	c := d.client
	switch push.Type {
	case PushTypePublication:
		if push.Channel == "" {
			return
		}
		if sub, ok := c.subscription(push.Channel); ok {
			sub.handlePublication(push.Publication)
			return
		}
		c.handleServerPublication(push.Channel, push.Publication)
	case PushTypeJoin:
		if sub, ok := c.subscription(push.Channel); ok {
			sub.handleJoin(push.Join)
			return
		}
		c.handleServerJoin(push.Channel, push.Join)
	case PushTypeLeave:
		if sub, ok := c.subscription(push.Channel); ok {
			sub.handleLeave(push.Leave)
			return
		}
		c.handleServerLeave(push.Channel, push.Leave)
	case PushTypeUnsubscribe:
		if sub, ok := c.subscription(push.Channel); ok {
			sub.handleUnsubscribePush(push.Unsubscribe)
			return
		}
		c.handleServerUnsubscribe(push.Channel)
	case PushTypeSubscribe:
		c.handleServerSubscribe(push.Channel, push.Subscribe)
	case PushTypeMessage:
		c.handleMessage(push.Message)
	case PushTypeConnect:
		c.handleConnectPush(push.Connect)
	case PushTypeDisconnect:
		c.handleDisconnectPush(push.Disconnect)
	case PushTypeRefresh:
		if sub, ok := c.subscription(push.Channel); ok {
			sub.handleRefreshPush(push.Refresh)
			return
		}
		c.handleRefreshPush(push.Refresh)
	}
}
