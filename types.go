package centrifuge

// StreamPosition identifies a position in a recoverable stream, reported on
// SubscribedEvent and ServerSubscribeEvent (the server's current position)
// and accepted by HistoryRequest.Since. A Publication carries only its
// Offset.
type StreamPosition struct {
	Offset uint64
	Epoch  string
}

// Publication contains Data sent to channel subscribers. In channels with
// recovery on, it also carries an incrementing Offset within Epoch. Info is
// set only for publications produced by client-side publish calls.
type Publication struct {
	Offset uint64
	Data   []byte
	Info   *ClientInfo
}

// StreamOffset implements internal/recovery.Offset, letting Publication be
// deduplicated and ordered by recovery.Merge (called from
// Subscription.handleSubscribeSuccess) without that package importing this
// one.
func (p *Publication) StreamOffset() uint64 {
	return p.Offset
}

func publicationFromWire(wp *wirePublication) *Publication {
	if wp == nil {
		return nil
	}
	pub := &Publication{
		Offset: wp.Offset,
		Data:   wp.Data,
	}
	if wp.Info != nil {
		pub.Info = clientInfoFromWire(wp.Info)
	}
	return pub
}

// ClientInfo describes a connection: in presence responses, in Join/Leave
// events, and optionally attached to a Publication.
type ClientInfo struct {
	User     string
	Client   string
	ConnInfo []byte
	ChanInfo []byte
}

func clientInfoFromWire(wi *wireClientInfo) *ClientInfo {
	if wi == nil {
		return nil
	}
	return &ClientInfo{
		User:     wi.User,
		Client:   wi.Client,
		ConnInfo: wi.ConnInfo,
		ChanInfo: wi.ChanInfo,
	}
}
