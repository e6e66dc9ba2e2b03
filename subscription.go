package centrifuge

import (
	"context"
	"sync"

	fossildelta "github.com/shadowspore/fossil-delta"
	"golang.org/x/sync/singleflight"

	"github.com/centrifugal/centrifuge-go-client/internal/recovery"
)

// subStatus is the per-channel state machine of spec.md §4.5.
type subStatus int

const (
	subStatusUnsubscribed subStatus = iota
	subStatusSubscribing
	subStatusSubscribed
)

// Subscription is one channel subscription multiplexed over a Client's
// session (spec.md §4.5).
type Subscription struct {
	mu      sync.Mutex
	client  *Client
	channel string

	status subStatus

	recoverable bool
	positioned  bool
	offset      uint64
	epoch       string

	// buffered accumulates publications that arrive while a recover-mode
	// subscribe is in flight, so they can be merged with the server's
	// recovered history in offset order (spec.md §8).
	recovering bool
	buffered   []*Publication

	// lastData is the last full (non-delta) publication payload seen, used
	// to apply fossil-delta patches to subsequent delta publications
	// (spec.md §4.5, "delta compression").
	lastData []byte

	tokenGroup singleflight.Group

	events *subscriptionEventHub
}

func newSubscription(c *Client, channel string) *Subscription {
	return &Subscription{client: c, channel: channel, events: &subscriptionEventHub{}}
}

// NewSubscription creates and registers a Subscription for channel. The
// Subscription starts UNSUBSCRIBED; call Subscribe to join the channel.
func (c *Client) NewSubscription(channel string) (*Subscription, error) {
	c.mu.Lock()
	if _, exists := c.subs[channel]; exists {
		c.mu.Unlock()
		return nil, newError(ErrorCodeProtocol, "subscription already exists for channel "+channel)
	}
	sub := newSubscription(c, channel)
	c.subs[channel] = sub
	c.mu.Unlock()
	return sub, nil
}

func (s *Subscription) OnSubscribing(h SubscribingHandler) { s.events.onSubscribing = h }
func (s *Subscription) OnSubscribed(h SubscribedHandler)   { s.events.onSubscribed = h }
func (s *Subscription) OnError(h SubscriptionErrorHandler) { s.events.onError = h }
func (s *Subscription) OnUnsubscribed(h UnsubscribedHandler) {
	s.events.onUnsubscribed = h
}
func (s *Subscription) OnPublication(h PublicationHandler) { s.events.onPublication = h }
func (s *Subscription) OnJoin(h JoinHandler)               { s.events.onJoin = h }
func (s *Subscription) OnLeave(h LeaveHandler)             { s.events.onLeave = h }

func (s *Subscription) Channel() string { return s.channel }

// Subscribe moves the subscription to SUBSCRIBING and, once the session is
// CONNECTED, issues a subscribe command (spec.md §4.5).
func (s *Subscription) Subscribe() {
	s.mu.Lock()
	if s.status == subStatusSubscribing || s.status == subStatusSubscribed {
		s.mu.Unlock()
		return
	}
	s.status = subStatusSubscribing
	s.mu.Unlock()

	s.events.emitSubscribing(SubscribingEvent{})
	if s.client.State() == "connected" {
		s.resubscribe()
	}
}

// resubscribe (re)issues the subscribe command, used both for the initial
// Subscribe call and to recover the subscription after the session
// reconnects (spec.md §4.6 step 7 analog at the subscription level).
func (s *Subscription) resubscribe() {
	s.mu.Lock()
	if s.status == subStatusUnsubscribed {
		s.mu.Unlock()
		return
	}
	token := ""
	var err error
	if isPrivateChannel(s.channel, s.client.config.PrivateChannelPrefix) && s.client.config.GetSubscriptionToken != nil {
		token, err = s.fetchToken()
		if err != nil {
			s.mu.Unlock()
			s.events.emitError(SubscriptionErrorEvent{Error: err})
			return
		}
	}
	req := &SubscribeRequest{
		Channel:     s.channel,
		Token:       token,
		Recover:     s.recoverable && s.offset > 0,
		Epoch:       s.epoch,
		Offset:      s.offset,
		Recoverable: s.recoverable,
		Positioned:  s.positioned,
	}
	if req.Recover {
		s.recovering = true
		s.buffered = nil
	}
	s.mu.Unlock()

	id, replyCh := s.client.mux.register(s.client.config.Timeout)
	cmd := &Command{ID: id, Method: MethodSubscribe, Subscribe: req}
	if err := s.client.send(cmd, s.channel); err != nil {
		s.client.mux.resolve(id, nil, err)
		<-replyCh
		s.events.emitError(SubscriptionErrorEvent{Error: err})
		return
	}

	go func() {
		reply := <-replyCh
		if reply.Error != nil {
			s.handleSubscribeError(errorFromWire(reply.Error))
			return
		}
		s.handleSubscribeSuccess(reply.Subscribe)
	}()
}

// fetchToken resolves the subscription token for s.channel on the subscribe
// path, consulting SubscriptionTokenCache first and deduplicating concurrent
// callers behind singleflight. refresh does not go through fetchToken: it
// calls GetSubscriptionToken directly, bypassing both the cache and the
// deduplication.
func (s *Subscription) fetchToken() (string, error) {
	cache := s.client.config.SubscriptionTokenCache
	if cache != nil {
		if tok, ok := cache.Get(s.channel); ok {
			return tok, nil
		}
	}
	v, err, _ := s.tokenGroup.Do(s.channel, func() (interface{}, error) {
		tok, err := s.client.config.GetSubscriptionToken(SubscriptionTokenContext{Channel: s.channel})
		if err != nil {
			return "", err
		}
		if tok == "" {
			return "", ErrTokenEmpty
		}
		if cache != nil {
			cache.Set(s.channel, tok)
		}
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Subscription) handleSubscribeSuccess(result *SubscribeResult) {
	s.mu.Lock()
	s.status = subStatusSubscribed
	s.recoverable = result.Recoverable
	s.positioned = result.Positioned
	s.epoch = result.Epoch

	recovered := make([]*Publication, 0, len(result.Publications))
	for _, wp := range result.Publications {
		pub := publicationFromWire(wp)
		s.applyDeltaLocked(pub, wp)
		recovered = append(recovered, pub)
	}
	var toEmit []*Publication
	if s.recovering {
		toEmit = recovery.Merge(recovered, s.buffered)
		s.buffered = nil
		s.recovering = false
	} else {
		toEmit = recovered
	}
	if len(toEmit) > 0 {
		s.offset = toEmit[len(toEmit)-1].Offset
	} else {
		s.offset = result.Offset
	}
	s.mu.Unlock()

	s.events.emitSubscribed(SubscribedEvent{
		Recoverable: result.Recoverable,
		Positioned:  result.Positioned,
		StreamPosition: StreamPosition{
			Offset: result.Offset,
			Epoch:  result.Epoch,
		},
		Data: result.Data,
	})
	for _, p := range toEmit {
		s.events.emitPublication(PublicationEvent{Publication: *p})
	}
}

func (s *Subscription) handleSubscribeError(err error) {
	s.mu.Lock()
	s.status = subStatusUnsubscribed
	s.recovering = false
	s.mu.Unlock()
	s.events.emitError(SubscriptionErrorEvent{Error: err})
}

// Unsubscribe leaves the channel, sending an unsubscribe command if the
// session is currently connected.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	s.mu.Lock()
	if s.status == subStatusUnsubscribed {
		s.mu.Unlock()
		return nil
	}
	s.status = subStatusUnsubscribed
	s.mu.Unlock()

	_, err := s.client.call(ctx, MethodUnsubscribe, func(id uint32) *Command {
		return &Command{Unsubscribe: &UnsubscribeRequest{Channel: s.channel}}
	})
	s.events.emitUnsubscribed(UnsubscribedEvent{})
	return err
}

func (s *Subscription) handlePublication(wp *wirePublication) {
	if wp == nil {
		return
	}
	pub := publicationFromWire(wp)
	s.mu.Lock()
	s.applyDeltaLocked(pub, wp)
	if s.recovering {
		s.buffered = append(s.buffered, pub)
		s.mu.Unlock()
		return
	}
	s.offset = pub.Offset
	s.mu.Unlock()
	s.events.emitPublication(PublicationEvent{Publication: *pub})
}

// applyDeltaLocked patches pub.Data in place when wp.Delta is set, keeping
// lastData up to date either way. Caller must hold s.mu.
func (s *Subscription) applyDeltaLocked(pub *Publication, wp *wirePublication) {
	if wp.Delta {
		patched, err := fossildelta.Apply(s.lastData, wp.Data)
		if err == nil {
			pub.Data = patched
		}
	}
	s.lastData = pub.Data
}

func (s *Subscription) handleJoin(wi *wireClientInfo) {
	s.events.emitJoin(JoinEvent{ClientInfo: *clientInfoFromWire(wi)})
}

func (s *Subscription) handleLeave(wi *wireClientInfo) {
	s.events.emitLeave(LeaveEvent{ClientInfo: *clientInfoFromWire(wi)})
}

func (s *Subscription) handleUnsubscribePush(u *PushUnsubscribe) {
	s.mu.Lock()
	s.status = subStatusUnsubscribed
	s.mu.Unlock()
	code, reason := uint32(0), ""
	if u != nil {
		code, reason = u.Code, u.Reason
	}
	s.events.emitUnsubscribed(UnsubscribedEvent{Code: code, Reason: reason})
}

func (s *Subscription) handleRefreshPush(r *PushRefresh) {
	if r == nil || !r.Expires {
		return
	}
	go s.refresh()
}

func (s *Subscription) refresh() {
	if s.client.config.GetSubscriptionToken == nil {
		return
	}
	token, err := s.client.config.GetSubscriptionToken(SubscriptionTokenContext{Channel: s.channel})
	if err != nil || token == "" {
		s.events.emitError(SubscriptionErrorEvent{Error: ErrTokenEmpty})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.client.config.Timeout)
	defer cancel()
	_, err = s.client.call(ctx, MethodSubRefresh, func(id uint32) *Command {
		return &Command{SubRefresh: &SubRefreshRequest{Channel: s.channel, Token: token}}
	})
	if err != nil {
		s.events.emitError(SubscriptionErrorEvent{Error: err})
	}
}

func (s *Subscription) handleClientClosed() {
	s.mu.Lock()
	s.status = subStatusUnsubscribed
	s.mu.Unlock()
	s.events.emitUnsubscribed(UnsubscribedEvent{Reason: "client closed"})
}

func isPrivateChannel(channel, prefix string) bool {
	if prefix == "" {
		return false
	}
	return len(channel) >= len(prefix) && channel[:len(prefix)] == prefix
}

func (h *subscriptionEventHub) emitSubscribing(e SubscribingEvent) {
	if h.onSubscribing != nil {
		h.onSubscribing(e)
	}
}
func (h *subscriptionEventHub) emitSubscribed(e SubscribedEvent) {
	if h.onSubscribed != nil {
		h.onSubscribed(e)
	}
}
func (h *subscriptionEventHub) emitError(e SubscriptionErrorEvent) {
	if h.onError != nil {
		h.onError(e)
	}
}
func (h *subscriptionEventHub) emitUnsubscribed(e UnsubscribedEvent) {
	if h.onUnsubscribed != nil {
		h.onUnsubscribed(e)
	}
}
func (h *subscriptionEventHub) emitPublication(e PublicationEvent) {
	if h.onPublication != nil {
		h.onPublication(e)
	}
}
func (h *subscriptionEventHub) emitJoin(e JoinEvent) {
	if h.onJoin != nil {
		h.onJoin(e)
	}
}
func (h *subscriptionEventHub) emitLeave(e LeaveEvent) {
	if h.onLeave != nil {
		h.onLeave(e)
	}
}
